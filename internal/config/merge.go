package config

import (
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Resolve validates a raw document and merges it over the framework defaults.
func Resolve(doc *yaml.Node) (*SiteConfig, error) {
	cfg, err := Validate(doc)
	if err != nil {
		return nil, err
	}
	return Merge(Defaults(), cfg)
}

// Merge layers input over defaults key by key. Nested records merge, lists are
// replaced wholesale and zero-valued (absent or null) input fields keep the
// default. Neither argument is modified.
func Merge(defaults, input *SiteConfig) (*SiteConfig, error) {
	if defaults == nil {
		defaults = Defaults()
	}
	out := defaults.Clone()
	if input != nil {
		if err := mergo.Merge(out, input.Clone(), mergo.WithOverride); err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "merge site config over defaults").Build()
		}
		overlayEmptyLists(out, input)
	}

	Normalize(out)

	if violations := tagViolations(out); len(violations) > 0 {
		return nil, &SchemaValidationError{Violations: dedupe(violations)}
	}
	return out, nil
}

// overlayEmptyLists applies lists the input set explicitly to []. mergo treats
// an empty source slice like an absent one, so those would keep the default.
func overlayEmptyLists(out, input *SiteConfig) {
	if input.StaticDirectories != nil && len(input.StaticDirectories) == 0 {
		out.StaticDirectories = []string{}
	}
	if input.Presets != nil && len(input.Presets) == 0 {
		out.Presets = []PluginDeclaration{}
	}
	if input.Plugins != nil && len(input.Plugins) == 0 {
		out.Plugins = []PluginDeclaration{}
	}
	if input.ThemeConfig.Navbar.Items != nil && len(input.ThemeConfig.Navbar.Items) == 0 {
		out.ThemeConfig.Navbar.Items = []NavbarItem{}
	}
	if input.ThemeConfig.Footer.Links != nil && len(input.ThemeConfig.Footer.Links) == 0 {
		out.ThemeConfig.Footer.Links = []FooterLinkGroup{}
	}
}

// Normalize rewrites accepted aliases to canonical values and fills derived
// fields. It is applied after merging and is idempotent.
func Normalize(cfg *SiteConfig) {
	if cfg == nil {
		return
	}

	cfg.OnBrokenLinks = normalizePolicy(cfg.OnBrokenLinks)
	cfg.OnBrokenAnchors = normalizePolicy(cfg.OnBrokenAnchors)
	cfg.OnBrokenMarkdownLinks = normalizePolicy(cfg.OnBrokenMarkdownLinks)

	for i := range cfg.ThemeConfig.Navbar.Items {
		item := &cfg.ThemeConfig.Navbar.Items[i]
		if kind := NormalizeNavbarKind(string(item.Type)); kind != "" {
			item.Type = kind
		}
		if item.Position == "" {
			item.Position = PositionLeft
		}
		item.Position = Position(strings.ToLower(string(item.Position)))
	}

	if len(cfg.I18n.Locales) > 0 {
		if cfg.I18n.LocaleConfigs == nil {
			cfg.I18n.LocaleConfigs = make(map[string]LocaleConfig, len(cfg.I18n.Locales))
		}
		for _, loc := range cfg.I18n.Locales {
			derived := DefaultLocaleConfig(loc)
			lc := cfg.I18n.LocaleConfigs[loc]
			if lc.Label == "" {
				lc.Label = derived.Label
			}
			if lc.Direction == "" {
				lc.Direction = derived.Direction
			}
			if lc.HTMLLang == "" {
				lc.HTMLLang = derived.HTMLLang
			}
			cfg.I18n.LocaleConfigs[loc] = lc
		}
	}

	for i := range cfg.Presets {
		if cfg.Presets[i].Options == nil {
			cfg.Presets[i].Options = map[string]any{}
		}
	}
	for i := range cfg.Plugins {
		if cfg.Plugins[i].Options == nil {
			cfg.Plugins[i].Options = map[string]any{}
		}
	}
}

func normalizePolicy(p LinkPolicy) LinkPolicy {
	if n := NormalizeLinkPolicy(string(p)); n != "" {
		return n
	}
	return p
}

// ForLocale returns an isolated copy of a resolved config for one locale of a
// multi-locale build. Non-default locales are served under /<locale>/.
func (c *SiteConfig) ForLocale(locale string) *SiteConfig {
	out := c.Clone()
	if locale == "" || locale == c.I18n.DefaultLocale {
		return out
	}
	out.BaseURL = c.BaseURL + locale + "/"
	return out
}

// HTMLLang returns the html lang attribute of the locale a config was built for.
func (c *SiteConfig) HTMLLang(locale string) string {
	if lc, ok := c.I18n.LocaleConfigs[locale]; ok && lc.HTMLLang != "" {
		return lc.HTMLLang
	}
	return locale
}

// Clone returns a deep copy of the config.
func (c *SiteConfig) Clone() *SiteConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.StaticDirectories = cloneStrings(c.StaticDirectories)
	out.I18n.Locales = cloneStrings(c.I18n.Locales)
	if c.I18n.LocaleConfigs != nil {
		out.I18n.LocaleConfigs = make(map[string]LocaleConfig, len(c.I18n.LocaleConfigs))
		for k, v := range c.I18n.LocaleConfigs {
			out.I18n.LocaleConfigs[k] = v
		}
	}
	out.Presets = cloneDeclarations(c.Presets)
	out.Plugins = cloneDeclarations(c.Plugins)
	if c.ThemeConfig.Navbar.Items != nil {
		out.ThemeConfig.Navbar.Items = append(make([]NavbarItem, 0, len(c.ThemeConfig.Navbar.Items)), c.ThemeConfig.Navbar.Items...)
	}
	if c.ThemeConfig.Footer.Links != nil {
		out.ThemeConfig.Footer.Links = make([]FooterLinkGroup, len(c.ThemeConfig.Footer.Links))
		for i, g := range c.ThemeConfig.Footer.Links {
			g.Items = append([]FooterLink(nil), g.Items...)
			out.ThemeConfig.Footer.Links[i] = g
		}
	}
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func cloneDeclarations(in []PluginDeclaration) []PluginDeclaration {
	if in == nil {
		return nil
	}
	out := make([]PluginDeclaration, len(in))
	for i, d := range in {
		out[i] = PluginDeclaration{Name: d.Name, Options: CloneOptions(d.Options)}
	}
	return out
}

// CloneOptions deep copies a free-form options record.
func CloneOptions(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneOptions(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
