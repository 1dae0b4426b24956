// Package sitemap implements the sitemap plugin, a route finalizer writing
// sitemap.xml for every HTML route of the build.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// Name is the plugin identifier.
const Name = "sitemap"

// Options configures the plugin.
type Options struct {
	Changefreq     string   `yaml:"changefreq"`
	Priority       float64  `yaml:"priority"`
	IgnorePatterns []string `yaml:"ignorePatterns"`
	Filename       string   `yaml:"filename"`
}

// Plugin is the sitemap plugin instance.
type Plugin struct {
	opts Options
}

// New is the plugin factory.
func New(options map[string]any) (plugin.Plugin, error) {
	opts := Options{Changefreq: "weekly", Priority: 0.5, Filename: "sitemap.xml"}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.Priority < 0 || opts.Priority > 1 {
		return nil, fmt.Errorf("priority must be between 0 and 1")
	}
	for _, p := range opts.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return &Plugin{opts: opts}, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Description implements plugin.Describer.
func (p *Plugin) Description() string { return "sitemap.xml for all pages" }

// ContributeRoutes implements plugin.Plugin. The sitemap is produced in FinalizeRoutes.
func (p *Plugin) ContributeRoutes(context.Context, *plugin.BuildContext) ([]plugin.Route, error) {
	return nil, nil
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	Changefreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// FinalizeRoutes implements plugin.RouteFinalizer.
func (p *Plugin) FinalizeRoutes(_ context.Context, bc *plugin.BuildContext, routes []plugin.Route) ([]plugin.Route, error) {
	set := urlset{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, r := range routes {
		if r.Kind == plugin.RouteAsset || r.Format == plugin.FormatRaw {
			continue
		}
		if noindex, _ := r.Frontmatter["noindex"].(bool); noindex {
			continue
		}
		if p.ignored(r.Path) {
			continue
		}
		e := entry{
			Loc:        AbsoluteURL(bc.Site.URL, bc.Site.BaseURL, r.Path, bc.Site.TrailingSlash),
			Changefreq: p.opts.Changefreq,
			Priority:   fmt.Sprintf("%.1f", p.opts.Priority),
		}
		if !r.LastUpdated.IsZero() {
			e.LastMod = r.LastUpdated.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, e)
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	body := append([]byte(xml.Header), out...)
	body = append(body, '\n')

	return []plugin.Route{{
		Path:   "/" + strings.TrimPrefix(p.opts.Filename, "/"),
		Kind:   plugin.RouteAsset,
		Format: plugin.FormatRaw,
		Body:   body,
	}}, nil
}

func (p *Plugin) ignored(routePath string) bool {
	for _, pattern := range p.opts.IgnorePatterns {
		if ok, _ := doublestar.Match(pattern, routePath); ok {
			return true
		}
	}
	return false
}

// AbsoluteURL joins the site URL, base URL and a route path.
func AbsoluteURL(siteURL, baseURL, routePath string, trailingSlash bool) string {
	u := strings.TrimSuffix(siteURL, "/") + strings.TrimSuffix(baseURL, "/") + routePath
	if trailingSlash && !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
