// Package apiref implements the api-reference plugin. It contributes a page
// that loads an OpenAPI document into the Scalar API reference viewer and can
// add a navbar link to it.
package apiref

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// Name is the plugin identifier. Alias is the name used by Docusaurus sites.
const (
	Name  = "api-reference"
	Alias = "@scalar/docusaurus"
)

// DefaultCDN is the viewer script loaded by the generated page.
const DefaultCDN = "https://cdn.jsdelivr.net/npm/@scalar/api-reference"

// Options configures the plugin.
type Options struct {
	Label         string         `yaml:"label"`
	ShowNavLink   bool           `yaml:"showNavLink"`
	Route         string         `yaml:"route"`
	CDN           string         `yaml:"cdn"`
	Configuration map[string]any `yaml:"configuration"`
}

// SpecURL returns configuration.spec.url, if set.
func (o Options) SpecURL() string {
	spec, _ := o.Configuration["spec"].(map[string]any)
	u, _ := spec["url"].(string)
	return u
}

// Plugin is the api-reference plugin instance.
type Plugin struct {
	name string
	opts Options
}

// New is the plugin factory registered under Name.
func New(options map[string]any) (plugin.Plugin, error) {
	return newNamed(Name, options)
}

// NewAlias is the plugin factory registered under Alias.
func NewAlias(options map[string]any) (plugin.Plugin, error) {
	return newNamed(Alias, options)
}

func newNamed(name string, options map[string]any) (*Plugin, error) {
	opts := Options{
		Label:       "API Reference",
		ShowNavLink: true,
		Route:       "/api-reference",
		CDN:         DefaultCDN,
	}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(opts.Route, "/") {
		return nil, fmt.Errorf("route %q must start with /", opts.Route)
	}
	if opts.SpecURL() == "" {
		return nil, fmt.Errorf("configuration.spec.url is required")
	}
	return &Plugin{name: name, opts: opts}, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return p.name }

// Description implements plugin.Describer.
func (p *Plugin) Description() string { return "OpenAPI reference page (Scalar viewer)" }

// NavbarItems implements plugin.NavbarContributor.
func (p *Plugin) NavbarItems() []config.NavbarItem {
	if !p.opts.ShowNavLink {
		return nil
	}
	return []config.NavbarItem{{
		Type:  config.NavbarPageLink,
		Label: p.opts.Label,
		To:    p.opts.Route,
	}}
}

var shell = template.Must(template.New("apiref").Parse(
	`<div class="api-reference">
<script id="api-reference" data-url="{{.SpecURL}}" data-configuration="{{.Configuration}}"></script>
<script src="{{.CDN}}"></script>
</div>
`))

// ContributeRoutes implements plugin.Plugin.
func (p *Plugin) ContributeRoutes(_ context.Context, bc *plugin.BuildContext) ([]plugin.Route, error) {
	specURL := p.opts.SpecURL()
	if strings.HasPrefix(specURL, "/") && !strings.HasPrefix(specURL, "//") {
		specURL = strings.TrimSuffix(bc.Site.BaseURL, "/") + specURL
	}

	cfg := make(map[string]any, len(p.opts.Configuration))
	for k, v := range p.opts.Configuration {
		if k != "spec" {
			cfg[k] = v
		}
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}

	var body bytes.Buffer
	if err := shell.Execute(&body, map[string]string{
		"SpecURL":       specURL,
		"Configuration": string(cfgJSON),
		"CDN":           p.opts.CDN,
	}); err != nil {
		return nil, fmt.Errorf("render reference shell: %w", err)
	}

	return []plugin.Route{{
		Path:   p.opts.Route,
		Kind:   plugin.RouteGenerated,
		Format: plugin.FormatHTML,
		Title:  p.opts.Label,
		Body:   body.Bytes(),
		Frontmatter: map[string]any{
			"hide_table_of_contents": true,
			"spec_url":               specURL,
		},
	}}, nil
}
