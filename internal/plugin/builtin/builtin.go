// Package builtin wires the plugins and presets shipped with docsite into a
// plugin registry.
package builtin

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/plugin"
	"git.home.luguber.info/inful/docsite/internal/plugin/apiref"
	"git.home.luguber.info/inful/docsite/internal/plugin/contentdocs"
	"git.home.luguber.info/inful/docsite/internal/plugin/contentpages"
	"git.home.luguber.info/inful/docsite/internal/plugin/sitemap"
	"git.home.luguber.info/inful/docsite/internal/plugin/theme"
)

// ClassicPreset is the identifier of the classic preset.
const ClassicPreset = "classic"

// classicParts maps preset option keys to the plugin they configure, in
// expansion order.
var classicParts = []struct {
	key    string
	plugin string
}{
	{"docs", contentdocs.Name},
	{"pages", contentpages.Name},
	{"theme", theme.Name},
	{"sitemap", sitemap.Name},
}

// NewRegistry returns a registry holding every built-in plugin and preset.
func NewRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	factories := map[string]plugin.Factory{
		contentdocs.Name:  contentdocs.New,
		contentpages.Name: contentpages.New,
		apiref.Name:       apiref.New,
		apiref.Alias:      apiref.NewAlias,
		sitemap.Name:      sitemap.New,
		theme.Name:        theme.New,
	}
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mustRegister(r.Register(name, factories[name]))
	}
	mustRegister(r.RegisterPreset(ClassicPreset, Classic))
	return r
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// Classic expands the classic preset. Each part takes an options mapping or
// false to disable it. The blog part is accepted only when disabled.
func Classic(options map[string]any) ([]config.PluginDeclaration, error) {
	known := map[string]bool{"blog": true}
	for _, part := range classicParts {
		known[part.key] = true
	}
	for key := range options {
		if !known[key] {
			return nil, fmt.Errorf("unknown classic preset option %q", key)
		}
	}
	if v, ok := options["blog"]; ok && !plugin.Disabled(v) {
		return nil, fmt.Errorf("blog is not supported; set blog: false")
	}

	var decls []config.PluginDeclaration
	for _, part := range classicParts {
		v, ok := options[part.key]
		if ok && plugin.Disabled(v) {
			continue
		}
		if ok && v != nil && plugin.SubOptions(options, part.key) == nil {
			return nil, fmt.Errorf("classic preset option %q must be a mapping or false", part.key)
		}
		opts := plugin.SubOptions(options, part.key)
		if opts == nil {
			opts = map[string]any{}
		}
		decls = append(decls, config.PluginDeclaration{Name: part.plugin, Options: opts})
	}
	return decls, nil
}
