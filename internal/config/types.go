// Package config defines the site configuration model and the pipeline that
// turns a raw configuration document into an immutable, fully resolved
// SiteConfig: schema validation, default merging and normalization.
package config

// SiteConfig is the configuration driving one site build. After Resolve it is
// treated as read-only by every consumer.
type SiteConfig struct {
	Title            string `yaml:"title" validate:"required"`
	Tagline          string `yaml:"tagline,omitempty"`
	Favicon          string `yaml:"favicon,omitempty"`
	URL              string `yaml:"url" validate:"required,url"`
	BaseURL          string `yaml:"baseUrl" validate:"required"`
	OrganizationName string `yaml:"organizationName" validate:"required"`
	ProjectName      string `yaml:"projectName" validate:"required"`
	TrailingSlash    bool   `yaml:"trailingSlash,omitempty"`

	OnBrokenLinks         LinkPolicy `yaml:"onBrokenLinks,omitempty"`
	OnBrokenAnchors       LinkPolicy `yaml:"onBrokenAnchors,omitempty"`
	OnBrokenMarkdownLinks LinkPolicy `yaml:"onBrokenMarkdownLinks,omitempty"`

	StaticDirectories []string `yaml:"staticDirectories,omitempty" validate:"dive,required"`

	I18n        I18nConfig          `yaml:"i18n"`
	Presets     []PluginDeclaration `yaml:"presets,omitempty" validate:"dive"`
	Plugins     []PluginDeclaration `yaml:"plugins,omitempty" validate:"dive"`
	ThemeConfig ThemeConfig         `yaml:"themeConfig,omitempty"`
}

// I18nConfig lists the locales a site is built for.
type I18nConfig struct {
	DefaultLocale string                  `yaml:"defaultLocale" validate:"required"`
	Locales       []string                `yaml:"locales" validate:"required,min=1"`
	LocaleConfigs map[string]LocaleConfig `yaml:"localeConfigs,omitempty" validate:"dive"`
}

// LocaleConfig carries per-locale presentation settings.
type LocaleConfig struct {
	Label     string `yaml:"label,omitempty"`
	Direction string `yaml:"direction,omitempty" validate:"omitempty,oneof=ltr rtl"`
	HTMLLang  string `yaml:"htmlLang,omitempty"`
}

// PluginDeclaration names a plugin (or preset) and carries its options record.
type PluginDeclaration struct {
	Name    string         `yaml:"name" validate:"required"`
	Options map[string]any `yaml:"options,omitempty"`
}

// ThemeConfig groups the presentation settings consumed by the navigation assembler.
type ThemeConfig struct {
	Image           string          `yaml:"image,omitempty"`
	Navbar          NavbarConfig    `yaml:"navbar,omitempty"`
	TableOfContents TOCConfig       `yaml:"tableOfContents,omitempty"`
	Footer          FooterConfig    `yaml:"footer,omitempty"`
	ColorMode       ColorModeConfig `yaml:"colorMode,omitempty"`
	Prism           PrismConfig     `yaml:"prism,omitempty"`
}

// NavbarConfig describes the top navigation bar.
type NavbarConfig struct {
	Title        string       `yaml:"title,omitempty"`
	Logo         LogoConfig   `yaml:"logo,omitempty"`
	HideOnScroll bool         `yaml:"hideOnScroll,omitempty"`
	Items        []NavbarItem `yaml:"items,omitempty" validate:"dive"`
}

// LogoConfig is the navbar logo.
type LogoConfig struct {
	Alt  string `yaml:"alt,omitempty"`
	Src  string `yaml:"src,omitempty"`
	Href string `yaml:"href,omitempty"`
}

// NavbarItem is a discriminated navbar entry; Type selects which fields apply.
type NavbarItem struct {
	Type     NavbarKind `yaml:"type,omitempty"`
	Label    string     `yaml:"label,omitempty"`
	DocID    string     `yaml:"docId,omitempty"`
	To       string     `yaml:"to,omitempty"`
	Href     string     `yaml:"href,omitempty"`
	Position Position   `yaml:"position,omitempty" validate:"omitempty,oneof=left right"`
}

// TOCConfig bounds the heading levels included in a page table of contents.
type TOCConfig struct {
	MinHeadingLevel int `yaml:"minHeadingLevel,omitempty" validate:"omitempty,min=2,max=6"`
	MaxHeadingLevel int `yaml:"maxHeadingLevel,omitempty" validate:"omitempty,min=2,max=6"`
}

// FooterConfig describes the page footer.
type FooterConfig struct {
	Style     FooterStyle       `yaml:"style,omitempty" validate:"omitempty,oneof=dark light"`
	Links     []FooterLinkGroup `yaml:"links,omitempty" validate:"dive"`
	Copyright string            `yaml:"copyright,omitempty"`
}

// FooterLinkGroup is a titled column of footer links.
type FooterLinkGroup struct {
	Title string       `yaml:"title,omitempty"`
	Items []FooterLink `yaml:"items,omitempty" validate:"dive"`
}

// FooterLink points either at a site route (To) or an external URL (Href).
type FooterLink struct {
	Label string `yaml:"label" validate:"required"`
	To    string `yaml:"to,omitempty"`
	Href  string `yaml:"href,omitempty"`
}

// ColorModeConfig controls the light/dark switch.
type ColorModeConfig struct {
	DefaultMode               string `yaml:"defaultMode,omitempty" validate:"omitempty,oneof=light dark"`
	DisableSwitch             bool   `yaml:"disableSwitch,omitempty"`
	RespectPrefersColorScheme bool   `yaml:"respectPrefersColorScheme,omitempty"`
}

// PrismConfig names the code block color themes.
type PrismConfig struct {
	Theme     string `yaml:"theme,omitempty"`
	DarkTheme string `yaml:"darkTheme,omitempty"`
}

// CopyrightYearToken is replaced with the build year when the footer is assembled.
const CopyrightYearToken = "{year}"
