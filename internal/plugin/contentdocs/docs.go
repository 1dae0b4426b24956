// Package contentdocs implements the content-docs plugin: every markdown file
// under the docs directory becomes a document route with an id, a title and
// sidebar metadata.
package contentdocs

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// Name is the plugin identifier.
const Name = "content-docs"

// DefaultSidebar is the sidebar id used when no sidebar file is configured.
const DefaultSidebar = "docs"

// Options configures the plugin.
type Options struct {
	Path               string   `yaml:"path"`
	RouteBasePath      string   `yaml:"routeBasePath"`
	SidebarPath        string   `yaml:"sidebarPath"`
	Include            []string `yaml:"include"`
	Exclude            []string `yaml:"exclude"`
	ShowLastUpdateTime bool     `yaml:"showLastUpdateTime"`
	EditURL            string   `yaml:"editUrl"`
}

// DefaultOptions returns the options applied when none are declared.
func DefaultOptions() Options {
	return Options{
		Path:          "docs",
		RouteBasePath: "docs",
		Include:       []string{"**/*.md", "**/*.mdx"},
		Exclude:       []string{"**/_*", "**/_*/**"},
	}
}

// Plugin is the content-docs plugin instance.
type Plugin struct {
	opts Options
}

// New is the plugin factory.
func New(options map[string]any) (plugin.Plugin, error) {
	opts := DefaultOptions()
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("path must not be empty")
	}
	if len(opts.Include) == 0 {
		return nil, fmt.Errorf("include must list at least one pattern")
	}
	opts.RouteBasePath = strings.Trim(opts.RouteBasePath, "/")
	return &Plugin{opts: opts}, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Description implements plugin.Describer.
func (p *Plugin) Description() string {
	return "markdown documents under docs/ with ids and sidebars"
}

// Options returns the effective options.
func (p *Plugin) Options() Options { return p.opts }

// ContributeRoutes implements plugin.Plugin.
func (p *Plugin) ContributeRoutes(ctx context.Context, bc *plugin.BuildContext) ([]plugin.Route, error) {
	root := bc.SourcePath(p.opts.Path)
	files, err := plugin.CollectFiles(root, p.opts.Include, p.opts.Exclude)
	if err != nil {
		return nil, err
	}
	log := bc.PluginLogger(Name)

	routes := make([]plugin.Route, 0, len(files))
	byID := make(map[string]string, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		route, skip, err := p.loadDoc(bc, root, rel)
		if err != nil {
			return nil, err
		}
		if skip {
			log.Debug("Skipping draft document", logfields.Path(rel))
			continue
		}
		if prev, dup := byID[route.DocID]; dup {
			return nil, fmt.Errorf("duplicate doc id %q in %s and %s", route.DocID, prev, rel)
		}
		byID[route.DocID] = rel
		routes = append(routes, route)
	}

	if p.opts.SidebarPath != "" {
		if err := p.applySidebarFile(bc, routes); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

func (p *Plugin) loadDoc(bc *plugin.BuildContext, root, rel string) (plugin.Route, bool, error) {
	data, err := plugin.ReadSource(root, rel)
	if err != nil {
		return plugin.Route{}, false, fmt.Errorf("read %s: %w", rel, err)
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return plugin.Route{}, false, fmt.Errorf("%s: %w", rel, err)
	}
	if doc.Meta.Draft {
		return plugin.Route{}, true, nil
	}

	id := DocID(rel, doc.Meta.ID)
	title := doc.Meta.Title
	if title == "" {
		title = markdown.Title(doc.Body)
	}
	if title == "" {
		title = path.Base(id)
	}

	source := filepath.Join(root, filepath.FromSlash(rel))
	route := plugin.Route{
		Path:            RoutePath(p.opts.RouteBasePath, rel, id, doc.Meta.Slug),
		Kind:            plugin.RouteDoc,
		Format:          plugin.FormatMarkdown,
		Title:           title,
		Description:     doc.Meta.Description,
		Body:            doc.Body,
		DocID:           id,
		SourcePath:      source,
		Sidebar:         DefaultSidebar,
		SidebarLabel:    doc.Meta.SidebarLabel,
		SidebarPosition: doc.Meta.SidebarPosition,
		Category:        topCategory(id),
		Frontmatter:     doc.Fields,
	}
	if p.opts.EditURL != "" {
		route.Frontmatter["edit_url"] = strings.TrimSuffix(p.opts.EditURL, "/") + "/" + path.Join(p.opts.Path, rel)
	}
	if p.opts.ShowLastUpdateTime {
		if ts, ok := bc.LastUpdated(source); ok {
			route.LastUpdated = ts
		}
	}
	return route, false, nil
}

// DocID derives a document id from its path relative to the docs root. An id
// set in frontmatter replaces the file name but keeps the directory.
func DocID(rel, frontmatterID string) string {
	noExt := strings.TrimSuffix(rel, path.Ext(rel))
	if frontmatterID == "" {
		return noExt
	}
	dir := path.Dir(noExt)
	if dir == "." {
		return frontmatterID
	}
	return dir + "/" + frontmatterID
}

// RoutePath derives the route of a document. Absolute slugs are taken
// relative to the route base; index and README files serve their directory.
func RoutePath(base, rel, id, slug string) string {
	prefix := "/"
	if base != "" {
		prefix = "/" + base + "/"
	}
	switch {
	case strings.HasPrefix(slug, "/"):
		return plugin.NormalizeRoutePath(prefix + strings.TrimPrefix(slug, "/"))
	case slug != "":
		return plugin.NormalizeRoutePath(prefix + path.Join(path.Dir(id), slug))
	}

	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if strings.EqualFold(name, "index") || strings.EqualFold(name, "readme") {
		dir := path.Dir(rel)
		if dir == "." {
			return plugin.NormalizeRoutePath(strings.TrimSuffix(prefix, "/"))
		}
		return plugin.NormalizeRoutePath(prefix + dir)
	}
	return plugin.NormalizeRoutePath(prefix + id)
}

func topCategory(id string) string {
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return ""
}
