// Package nav assembles the site chrome shared by every page: the navbar,
// the sidebars built from doc routes, and the footer with its copyright line.
package nav

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// Clock returns the current time. Assemble uses it for the copyright year.
type Clock func() time.Time

// Link is a resolved navigation entry.
type Link struct {
	Kind     config.NavbarKind
	Label    string
	Href     string
	DocID    string
	Sidebar  string
	External bool
}

// Logo is the navbar logo with its source resolved against the base URL.
type Logo struct {
	Alt  string
	Src  string
	Href string
}

// Navbar is the assembled top bar.
type Navbar struct {
	Title        string
	Logo         *Logo
	HomeHref     string
	HideOnScroll bool
	Left         []Link
	Right        []Link
}

// SidebarEntry is a doc or a category of a sidebar.
type SidebarEntry struct {
	Label    string
	Href     string
	Path     string
	DocID    string
	Position int
	Items    []SidebarEntry
}

// IsCategory reports whether the entry groups other entries.
func (e SidebarEntry) IsCategory() bool { return e.DocID == "" }

// Sidebar is one named sidebar root.
type Sidebar struct {
	ID      string
	Entries []SidebarEntry
}

// FooterGroup is a titled column of footer links.
type FooterGroup struct {
	Title string
	Links []Link
}

// Footer is the assembled page footer.
type Footer struct {
	Style     config.FooterStyle
	Groups    []FooterGroup
	Copyright string
}

// Navigation is the complete site chrome for one locale build.
type Navigation struct {
	Navbar   Navbar
	Sidebars map[string]*Sidebar
	Footer   Footer
}

// Sidebar returns the sidebar with the given id, or nil.
func (n *Navigation) Sidebar(id string) *Sidebar {
	if n == nil || id == "" {
		return nil
	}
	return n.Sidebars[id]
}

// MissingDoc is a doc-link that references an unknown document id.
type MissingDoc struct {
	Field string
	DocID string
}

// NavigationIntegrityError reports navbar doc-links to unknown documents. It
// is fatal regardless of the broken link policy.
type NavigationIntegrityError struct {
	Missing []MissingDoc
}

func (e *NavigationIntegrityError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = fmt.Sprintf("%s: unknown doc id %q", m.Field, m.DocID)
	}
	return "navigation integrity: " + strings.Join(parts, "; ")
}

// Category implements errors.Categorized.
func (e *NavigationIntegrityError) Category() errors.ErrorCategory {
	return errors.CategoryNavigation
}

// Assemble builds the navigation for a resolved site. Config navbar items come
// before plugin items within each position group.
func Assemble(site *config.SiteConfig, routes []plugin.Route, pluginItems []config.NavbarItem, now Clock) (*Navigation, error) {
	if now == nil {
		now = time.Now
	}
	docs := make(map[string]plugin.Route)
	for _, r := range routes {
		if r.Kind == plugin.RouteDoc && r.DocID != "" {
			docs[r.DocID] = r
		}
	}

	tc := site.ThemeConfig
	nav := &Navigation{
		Navbar: Navbar{
			Title:        tc.Navbar.Title,
			HomeHref:     site.BaseURL,
			HideOnScroll: tc.Navbar.HideOnScroll,
		},
		Sidebars: buildSidebars(site, routes),
		Footer: Footer{
			Style:     tc.Footer.Style,
			Copyright: strings.ReplaceAll(tc.Footer.Copyright, config.CopyrightYearToken, fmt.Sprint(now().Year())),
		},
	}
	if tc.Navbar.Logo.Src != "" {
		href := site.BaseURL
		if tc.Navbar.Logo.Href != "" {
			href = Href(site, tc.Navbar.Logo.Href)
		}
		nav.Navbar.Logo = &Logo{Alt: tc.Navbar.Logo.Alt, Src: Href(site, tc.Navbar.Logo.Src), Href: href}
	}

	var missing []MissingDoc
	place := func(field string, item config.NavbarItem) {
		link, ok := navbarLink(site, docs, item)
		if !ok {
			missing = append(missing, MissingDoc{Field: field + ".docId", DocID: item.DocID})
			return
		}
		if item.Position == config.PositionRight {
			nav.Navbar.Right = append(nav.Navbar.Right, link)
		} else {
			nav.Navbar.Left = append(nav.Navbar.Left, link)
		}
	}
	for i, item := range tc.Navbar.Items {
		place(fmt.Sprintf("themeConfig.navbar.items[%d]", i), item)
	}
	for i, item := range pluginItems {
		place(fmt.Sprintf("plugins.navbarItems[%d]", i), item)
	}
	if len(missing) > 0 {
		return nil, &NavigationIntegrityError{Missing: missing}
	}

	for _, group := range tc.Footer.Links {
		fg := FooterGroup{Title: group.Title}
		for _, item := range group.Items {
			target := item.Href
			if target == "" {
				target = item.To
			}
			fg.Links = append(fg.Links, Link{
				Kind:     config.NavbarPageLink,
				Label:    item.Label,
				Href:     Href(site, target),
				External: IsExternal(target),
			})
		}
		nav.Footer.Groups = append(nav.Footer.Groups, fg)
	}
	return nav, nil
}

func navbarLink(site *config.SiteConfig, docs map[string]plugin.Route, item config.NavbarItem) (Link, bool) {
	kind := config.NormalizeNavbarKind(string(item.Type))
	link := Link{Kind: kind, Label: item.Label}
	switch kind {
	case config.NavbarDocLink:
		doc, ok := docs[item.DocID]
		if !ok {
			return Link{}, false
		}
		link.DocID = item.DocID
		link.Sidebar = doc.Sidebar
		link.Href = RouteHref(site, doc.Path)
		if link.Label == "" {
			link.Label = doc.Label()
		}
	case config.NavbarSearchBox:
	default:
		target := item.Href
		if target == "" {
			target = item.To
		}
		link.Href = Href(site, target)
		link.External = IsExternal(target)
	}
	return link, true
}

// IsExternal reports whether target leaves the site (scheme or protocol
// relative URL).
func IsExternal(target string) bool {
	if strings.HasPrefix(target, "//") {
		return true
	}
	if i := strings.Index(target, ":"); i > 0 {
		scheme := target[:i]
		return !strings.ContainsAny(scheme, "/?#")
	}
	return false
}

// Href resolves a site relative target against the base URL. External
// targets, fragments and targets already under the base URL are unchanged.
func Href(site *config.SiteConfig, target string) string {
	if target == "" || IsExternal(target) || strings.HasPrefix(target, "#") {
		return target
	}
	if base := site.BaseURL; base != "" && base != "/" && strings.HasPrefix(target, base) {
		return target
	}
	return RouteHref(site, target)
}

// RouteHref returns the href of a route path. The base URL is always
// prepended and trailingSlash is applied to page routes.
func RouteHref(site *config.SiteConfig, routePath string) string {
	base := site.BaseURL
	if base == "" {
		base = "/"
	}
	out := base + strings.TrimPrefix(routePath, "/")
	if site.TrailingSlash && !strings.HasSuffix(out, "/") && !hasExt(out) && !strings.ContainsAny(out, "?#") {
		out += "/"
	}
	return out
}

func hasExt(p string) bool {
	last := p[strings.LastIndex(p, "/")+1:]
	return strings.Contains(last, ".")
}

func buildSidebars(site *config.SiteConfig, routes []plugin.Route) map[string]*Sidebar {
	type bucket struct {
		top        []SidebarEntry
		categories map[string]*SidebarEntry
		order      []string
	}
	buckets := make(map[string]*bucket)
	for _, r := range routes {
		if r.Kind != plugin.RouteDoc || r.Sidebar == "" {
			continue
		}
		b, ok := buckets[r.Sidebar]
		if !ok {
			b = &bucket{categories: make(map[string]*SidebarEntry)}
			buckets[r.Sidebar] = b
		}
		entry := SidebarEntry{
			Label:    r.Label(),
			Href:     RouteHref(site, r.Path),
			Path:     r.Path,
			DocID:    r.DocID,
			Position: r.SidebarPosition,
		}
		if r.Category == "" {
			b.top = append(b.top, entry)
			continue
		}
		cat, ok := b.categories[r.Category]
		if !ok {
			cat = &SidebarEntry{Label: r.Category}
			b.categories[r.Category] = cat
			b.order = append(b.order, r.Category)
		}
		cat.Items = append(cat.Items, entry)
		if entry.Position > 0 && (cat.Position == 0 || entry.Position < cat.Position) {
			cat.Position = entry.Position
		}
	}

	out := make(map[string]*Sidebar, len(buckets))
	for id, b := range buckets {
		entries := b.top
		for _, name := range b.order {
			cat := b.categories[name]
			SortEntries(cat.Items)
			entries = append(entries, *cat)
		}
		SortEntries(entries)
		out[id] = &Sidebar{ID: id, Entries: entries}
	}
	return out
}

// SortEntries orders entries by sidebar position, then label. Entries without
// a position follow positioned ones.
func SortEntries(entries []SidebarEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.Position > 0) != (b.Position > 0) {
			return a.Position > 0
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return strings.ToLower(a.Label) < strings.ToLower(b.Label)
	})
}
