// Package theme implements the classic theme plugin: the base stylesheet of
// the page layout plus optional site custom CSS.
package theme

import (
	"context"
	_ "embed"
	"fmt"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// Name is the plugin identifier.
const Name = "theme"

// BaseStylesheet is the route of the embedded layout stylesheet.
const BaseStylesheet = "/assets/css/theme.css"

//go:embed assets/theme.css
var baseCSS []byte

// CSSList accepts a single path or a list of paths.
type CSSList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *CSSList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s != "" {
			*l = CSSList{s}
		}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("customCss must be a path or a list of paths")
	}
}

// Options configures the plugin.
type Options struct {
	CustomCSS CSSList `yaml:"customCss"`
}

// Plugin is the theme plugin instance.
type Plugin struct {
	opts Options
}

// New is the plugin factory.
func New(options map[string]any) (plugin.Plugin, error) {
	var opts Options
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &Plugin{opts: opts}, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Description implements plugin.Describer.
func (p *Plugin) Description() string { return "classic layout stylesheet and custom CSS" }

// Stylesheets implements plugin.StylesheetContributor.
func (p *Plugin) Stylesheets() []string {
	out := []string{BaseStylesheet}
	for _, css := range p.opts.CustomCSS {
		out = append(out, customRoute(css))
	}
	return out
}

// ContributeRoutes implements plugin.Plugin. Custom CSS files are read from
// the site source directory; a missing file is an error.
func (p *Plugin) ContributeRoutes(_ context.Context, bc *plugin.BuildContext) ([]plugin.Route, error) {
	routes := []plugin.Route{{
		Path:   BaseStylesheet,
		Kind:   plugin.RouteAsset,
		Format: plugin.FormatRaw,
		Body:   baseCSS,
	}}
	for _, css := range p.opts.CustomCSS {
		src := bc.SourcePath(filepath.FromSlash(css))
		data, err := plugin.ReadSource(filepath.Dir(src), filepath.Base(src))
		if err != nil {
			return nil, fmt.Errorf("custom css %s: %w", css, err)
		}
		routes = append(routes, plugin.Route{
			Path:       customRoute(css),
			Kind:       plugin.RouteAsset,
			Format:     plugin.FormatRaw,
			Body:       data,
			SourcePath: css,
		})
	}
	return routes, nil
}

func customRoute(css string) string {
	return "/assets/css/" + path.Base(filepath.ToSlash(css))
}
