// Package render turns plugin routes into complete pages in memory. Markdown
// bodies go through goldmark, every page is wrapped in the site layout with
// navbar, sidebar, table of contents and footer. Nothing is written to disk.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/nav"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

//go:embed templates/layout.html
var templateFS embed.FS

var layout = template.Must(template.ParseFS(templateFS, "templates/layout.html"))

// Page is a rendered route.
type Page struct {
	Route plugin.Route
	// HTML is the complete output file content.
	HTML []byte
	// Headings are all headings of a markdown body; TOC is the bounded subset shown.
	Headings []markdown.Heading
	TOC      []markdown.Heading
	// UnresolvedLinks lists markdown file links that match no route.
	UnresolvedLinks []string
}

// Error reports a route that failed to render.
type Error struct {
	Route string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("render %s: %v", e.Route, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Category implements errors.Categorized.
func (e *Error) Category() errors.ErrorCategory { return errors.CategoryRender }

// Renderer renders the routes of one locale build.
type Renderer struct {
	site        *config.SiteConfig
	locale      string
	nav         *nav.Navigation
	stylesheets []string
	sources     map[string]string
	sourceDir   string
}

// New creates a renderer. routes are used to resolve markdown file links.
func New(site *config.SiteConfig, locale string, navigation *nav.Navigation, routes []plugin.Route, stylesheets []string, sourceDir string) *Renderer {
	sources := make(map[string]string)
	for _, r := range routes {
		if r.SourcePath != "" && r.Format == plugin.FormatMarkdown {
			sources[filepath.Clean(r.SourcePath)] = r.Path
		}
	}
	if navigation == nil {
		navigation = &nav.Navigation{}
	}
	return &Renderer{
		site:        site,
		locale:      locale,
		nav:         navigation,
		stylesheets: stylesheets,
		sources:     sources,
		sourceDir:   sourceDir,
	}
}

// RenderAll renders every route in order.
func (r *Renderer) RenderAll(ctx context.Context, routes []plugin.Route) ([]*Page, error) {
	pages := make([]*Page, 0, len(routes))
	for _, route := range routes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := r.Render(route)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Render renders one route. Asset routes are passed through unchanged.
func (r *Renderer) Render(route plugin.Route) (*Page, error) {
	page := &Page{Route: route}
	if route.Kind == plugin.RouteAsset || route.Format == plugin.FormatRaw {
		page.HTML = route.Body
		return page, nil
	}

	var content template.HTML
	switch route.Format {
	case plugin.FormatMarkdown:
		res, err := markdown.Render(route.Body, markdown.Options{
			ResolveLink: func(dest string) (string, bool) { return r.resolveLink(route, dest) },
		})
		if err != nil {
			return nil, &Error{Route: route.Path, Err: err}
		}
		// #nosec G203 -- rendered from site sources.
		content = template.HTML(res.HTML)
		page.Headings = res.Headings
		page.UnresolvedLinks = res.Unresolved
		if !boolField(route.Frontmatter, "hide_table_of_contents") {
			minLevel, maxLevel := r.tocBounds(route)
			page.TOC = markdown.FilterHeadings(res.Headings, minLevel, maxLevel)
		}
	default:
		// #nosec G203 -- HTML pages and plugin shells are trusted site content.
		content = template.HTML(route.Body)
	}

	var buf bytes.Buffer
	if err := layout.ExecuteTemplate(&buf, "layout.html", r.pageData(route, content, page.TOC)); err != nil {
		return nil, &Error{Route: route.Path, Err: err}
	}
	page.HTML = buf.Bytes()
	return page, nil
}

// tocBounds returns the heading levels shown in the table of contents. The
// site bounds apply unless the page frontmatter overrides them.
func (r *Renderer) tocBounds(route plugin.Route) (int, int) {
	minLevel := r.site.ThemeConfig.TableOfContents.MinHeadingLevel
	maxLevel := r.site.ThemeConfig.TableOfContents.MaxHeadingLevel
	if minLevel == 0 {
		minLevel = config.DefaultMinHeadingLevel
	}
	if maxLevel == 0 {
		maxLevel = config.DefaultMaxHeadingLevel
	}
	if v, ok := intField(route.Frontmatter, "toc_min_heading_level"); ok {
		minLevel = v
	}
	if v, ok := intField(route.Frontmatter, "toc_max_heading_level"); ok {
		maxLevel = v
	}
	if minLevel > maxLevel {
		maxLevel = minLevel
	}
	return minLevel, maxLevel
}

// resolveLink maps a markdown file link of route to the href of the route
// built from that file.
func (r *Renderer) resolveLink(route plugin.Route, dest string) (string, bool) {
	target, fragment := markdown.SplitFragment(dest)
	var abs string
	if strings.HasPrefix(target, "/") {
		abs = filepath.Join(r.sourceDir, filepath.FromSlash(target))
	} else {
		abs = filepath.Join(filepath.Dir(route.SourcePath), filepath.FromSlash(target))
	}
	routePath, ok := r.sources[filepath.Clean(abs)]
	if !ok {
		return "", false
	}
	href := nav.RouteHref(r.site, routePath)
	if fragment != "" {
		href += "#" + fragment
	}
	return href, true
}

type entryView struct {
	Label    string
	Href     string
	Active   bool
	Category bool
	Items    []entryView
}

type pageData struct {
	Lang        string
	Dir         string
	ColorMode   string
	Title       string
	Description string
	Favicon     string
	Image       string
	Canonical   string
	Stylesheets []string
	Nav         *nav.Navigation
	Sidebar     []entryView
	Content     template.HTML
	TOC         []markdown.Heading
	EditURL     string
	LastUpdated string
}

func (r *Renderer) pageData(route plugin.Route, content template.HTML, toc []markdown.Heading) pageData {
	site := r.site
	data := pageData{
		Lang:        site.HTMLLang(r.locale),
		Dir:         "ltr",
		ColorMode:   site.ThemeConfig.ColorMode.DefaultMode,
		Title:       site.Title,
		Description: route.Description,
		Stylesheets: make([]string, 0, len(r.stylesheets)),
		Nav:         r.nav,
		Content:     content,
		TOC:         toc,
	}
	if data.ColorMode == "" {
		data.ColorMode = "light"
	}
	if lc, ok := site.I18n.LocaleConfigs[r.locale]; ok && lc.Direction != "" {
		data.Dir = lc.Direction
	}
	if route.Title != "" && route.Path != "/" {
		data.Title = route.Title + " | " + site.Title
	}
	if data.Description == "" && route.Path == "/" {
		data.Description = site.Tagline
	}
	if site.Favicon != "" {
		data.Favicon = nav.Href(site, site.Favicon)
	}
	if site.ThemeConfig.Image != "" {
		data.Image = nav.Href(site, site.ThemeConfig.Image)
	}
	if site.URL != "" {
		data.Canonical = strings.TrimSuffix(site.URL, "/") + nav.RouteHref(site, route.Path)
	}
	for _, css := range r.stylesheets {
		data.Stylesheets = append(data.Stylesheets, nav.RouteHref(site, css))
	}
	if sb := r.nav.Sidebar(route.Sidebar); sb != nil {
		data.Sidebar = entryViews(sb.Entries, route.Path)
	}
	if edit, ok := route.Frontmatter["edit_url"].(string); ok {
		data.EditURL = edit
	}
	if !route.LastUpdated.IsZero() {
		data.LastUpdated = route.LastUpdated.UTC().Format("Jan 2, 2006")
	}
	return data
}

func entryViews(entries []nav.SidebarEntry, current string) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = entryView{
			Label:    e.Label,
			Href:     e.Href,
			Active:   e.Path != "" && path.Clean(e.Path) == path.Clean(current),
			Category: e.IsCategory(),
		}
		if e.IsCategory() {
			out[i].Items = entryViews(e.Items, current)
		}
	}
	return out
}

func boolField(fields map[string]any, key string) bool {
	v, _ := fields[key].(bool)
	return v
}

func intField(fields map[string]any, key string) (int, bool) {
	switch v := fields[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
