// Package contentpages implements the content-pages plugin: standalone
// markdown and HTML pages under src/pages.
package contentpages

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// Name is the plugin identifier.
const Name = "content-pages"

// Options configures the plugin.
type Options struct {
	Path          string   `yaml:"path"`
	RouteBasePath string   `yaml:"routeBasePath"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
}

// Plugin is the content-pages plugin instance.
type Plugin struct {
	opts Options
}

// New is the plugin factory.
func New(options map[string]any) (plugin.Plugin, error) {
	opts := Options{
		Path:    "src/pages",
		Include: []string{"**/*.md", "**/*.mdx", "**/*.html"},
		Exclude: []string{"**/_*", "**/_*/**"},
	}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("path must not be empty")
	}
	opts.RouteBasePath = strings.Trim(opts.RouteBasePath, "/")
	return &Plugin{opts: opts}, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Description implements plugin.Describer.
func (p *Plugin) Description() string { return "standalone pages under src/pages" }

// ContributeRoutes implements plugin.Plugin.
func (p *Plugin) ContributeRoutes(ctx context.Context, bc *plugin.BuildContext) ([]plugin.Route, error) {
	root := bc.SourcePath(p.opts.Path)
	files, err := plugin.CollectFiles(root, p.opts.Include, p.opts.Exclude)
	if err != nil {
		return nil, err
	}

	routes := make([]plugin.Route, 0, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := plugin.ReadSource(root, rel)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		doc, err := frontmatter.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rel, err)
		}
		if doc.Meta.Draft {
			continue
		}

		format := plugin.FormatMarkdown
		if strings.EqualFold(path.Ext(rel), ".html") {
			format = plugin.FormatHTML
		}
		title := doc.Meta.Title
		if title == "" && format == plugin.FormatMarkdown {
			title = markdown.Title(doc.Body)
		}

		routes = append(routes, plugin.Route{
			Path:        p.routePath(rel, doc.Meta.Slug),
			Kind:        plugin.RoutePage,
			Format:      format,
			Title:       title,
			Description: doc.Meta.Description,
			Body:        doc.Body,
			SourcePath:  filepath.Join(root, filepath.FromSlash(rel)),
			Frontmatter: doc.Fields,
		})
	}
	return routes, nil
}

func (p *Plugin) routePath(rel, slug string) string {
	prefix := "/"
	if p.opts.RouteBasePath != "" {
		prefix = "/" + p.opts.RouteBasePath + "/"
	}
	if slug != "" {
		return plugin.NormalizeRoutePath(prefix + strings.TrimPrefix(slug, "/"))
	}
	noExt := strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(noExt) == "index" {
		noExt = strings.TrimSuffix(path.Dir(noExt), ".")
	}
	return plugin.NormalizeRoutePath(strings.TrimSuffix(prefix+noExt, "/"))
}
