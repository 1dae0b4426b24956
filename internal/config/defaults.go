package config

// Documented defaults for optional fields.
const (
	DefaultMinHeadingLevel = 2
	DefaultMaxHeadingLevel = 3
	DefaultStaticDirectory = "static"
)

// Defaults returns a fresh framework default configuration. Required identity
// fields (title, url, ...) are intentionally left empty.
func Defaults() *SiteConfig {
	return &SiteConfig{
		OnBrokenLinks:         LinkPolicyThrow,
		OnBrokenAnchors:       LinkPolicyWarn,
		OnBrokenMarkdownLinks: LinkPolicyWarn,
		StaticDirectories:     []string{DefaultStaticDirectory},
		I18n: I18nConfig{
			DefaultLocale: "en",
			Locales:       []string{"en"},
		},
		ThemeConfig: ThemeConfig{
			TableOfContents: TOCConfig{
				MinHeadingLevel: DefaultMinHeadingLevel,
				MaxHeadingLevel: DefaultMaxHeadingLevel,
			},
			Footer: FooterConfig{
				Style: FooterLight,
			},
			ColorMode: ColorModeConfig{
				DefaultMode: "light",
			},
			Prism: PrismConfig{
				Theme:     "github",
				DarkTheme: "dracula",
			},
		},
	}
}
