package config

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const avLLMConfig = `
title: av_llm
tagline: Tools
url: https://x
baseUrl: /av_llm/
organizationName: avble
projectName: av_llm
i18n:
  defaultLocale: en
  locales: [en]
plugins: []
themeConfig:
  tableOfContents:
    minHeadingLevel: 2
    maxHeadingLevel: 5
`

func parseYAML(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &n))
	return &n
}

func schemaError(t *testing.T, err error) *SchemaValidationError {
	t.Helper()
	require.Error(t, err)
	var sve *SchemaValidationError
	require.True(t, stderrors.As(err, &sve), "expected SchemaValidationError, got %T: %v", err, err)
	return sve
}

func TestValidate_AcceptsMinimalSite(t *testing.T) {
	cfg, err := Validate(parseYAML(t, avLLMConfig))
	require.NoError(t, err)
	assert.Equal(t, "av_llm", cfg.Title)
	assert.Equal(t, "/av_llm/", cfg.BaseURL)
	assert.Equal(t, 5, cfg.ThemeConfig.TableOfContents.MaxHeadingLevel)
	assert.Empty(t, cfg.Plugins)
}

func TestValidate_ReportsEveryMissingRequiredField(t *testing.T) {
	_, err := Validate(parseYAML(t, `tagline: nothing else`))
	sve := schemaError(t, err)

	for _, field := range []string{
		"title", "url", "baseUrl", "organizationName", "projectName",
		"i18n.defaultLocale", "i18n.locales",
	} {
		assert.True(t, sve.Has(field), "missing violation for %s in %v", field, sve.Violations)
	}
}

func TestValidate_ReportsSingleMissingField(t *testing.T) {
	src := `
title: av_llm
url: https://x
baseUrl: /av_llm/
organizationName: avble
i18n:
  defaultLocale: en
  locales: [en]
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)
	require.Len(t, sve.Violations, 1)
	assert.Equal(t, "projectName", sve.Violations[0].Field)
	assert.Equal(t, "is required", sve.Violations[0].Message)
}

func TestValidate_HeadingBoundsReportedOnce(t *testing.T) {
	src := `
title: av_llm
tagline: Tools
url: https://x
baseUrl: /av_llm/
organizationName: avble
projectName: av_llm
i18n:
  defaultLocale: en
  locales: [en]
plugins: []
themeConfig:
  tableOfContents:
    minHeadingLevel: 6
    maxHeadingLevel: 2
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)
	require.Len(t, sve.Violations, 1)
	assert.Equal(t, "themeConfig.tableOfContents", sve.Violations[0].Field)
	assert.Equal(t, "min must be ≤ max", sve.Violations[0].Message)
}

func TestValidate_HeadingBoundsUseDefaultForMissingSide(t *testing.T) {
	src := `
title: t
url: https://x
baseUrl: /
organizationName: o
projectName: p
i18n: {defaultLocale: en, locales: [en]}
themeConfig:
  tableOfContents:
    minHeadingLevel: 4
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)
	assert.True(t, sve.Has("themeConfig.tableOfContents"))
}

func TestValidate_HeadingLevelsStayWithinTwoToSix(t *testing.T) {
	src := `
title: t
url: https://x
baseUrl: /
organizationName: o
projectName: p
i18n: {defaultLocale: en, locales: [en]}
themeConfig:
  tableOfContents:
    minHeadingLevel: 1
    maxHeadingLevel: 7
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)
	assert.True(t, sve.Has("themeConfig.tableOfContents.minHeadingLevel"))
	assert.True(t, sve.Has("themeConfig.tableOfContents.maxHeadingLevel"))
}

func TestValidate_CollectsViolationsAcrossSections(t *testing.T) {
	src := `
title: t
url: not-a-url
baseUrl: docs
organizationName: o
projectName: p
onBrokenLinks: explode
colour: red
i18n:
  defaultLocale: fr
  locales: [en, en]
themeConfig:
  footer:
    style: neon
  navbar:
    items:
      - type: doc
        label: Docs
      - type: carousel
      - to: /a
        href: https://b
        position: middle
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)

	for _, field := range []string{
		"url",
		"baseUrl",
		"onBrokenLinks",
		"colour",
		"i18n.defaultLocale",
		"i18n.locales[1]",
		"themeConfig.footer.style",
		"themeConfig.navbar.items[0].docId",
		"themeConfig.navbar.items[1].type",
		"themeConfig.navbar.items[2].to",
		"themeConfig.navbar.items[2].position",
	} {
		assert.True(t, sve.Has(field), "missing violation for %s in %v", field, sve.Violations)
	}
}

func TestValidate_TypeMismatchNamesField(t *testing.T) {
	src := `
title: t
url: https://x
baseUrl: /
organizationName: o
projectName: p
trailingSlash: sometimes
i18n: {defaultLocale: en, locales: en}
themeConfig:
  tableOfContents:
    maxHeadingLevel: five
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)
	assert.True(t, sve.Has("trailingSlash"))
	assert.True(t, sve.Has("i18n.locales"))
	assert.True(t, sve.Has("themeConfig.tableOfContents.maxHeadingLevel"))
}

func TestValidate_AcceptsPolicyAliasesAndNavbarVariants(t *testing.T) {
	src := `
title: t
url: https://x
baseUrl: /
organizationName: o
projectName: p
onBrokenLinks: Error
onBrokenAnchors: off
i18n: {defaultLocale: en, locales: [en, ar]}
themeConfig:
  navbar:
    items:
      - {type: doc, docId: cli, label: Docs}
      - {to: /api-reference, label: API Reference, position: right}
      - {type: search, position: right}
  footer:
    links:
      - title: Tools
        items:
          - {label: CLI, href: https://example.com/cli}
          - {label: Blog, to: /blog}
`
	cfg, err := Validate(parseYAML(t, src))
	require.NoError(t, err)
	assert.Len(t, cfg.ThemeConfig.Navbar.Items, 3)
}

func TestValidate_FooterLinkNeedsExactlyOneTarget(t *testing.T) {
	src := `
title: t
url: https://x
baseUrl: /
organizationName: o
projectName: p
i18n: {defaultLocale: en, locales: [en]}
themeConfig:
  footer:
    links:
      - items:
          - {label: Both, to: /a, href: https://b}
          - {label: Neither}
          - {to: /c}
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)
	assert.True(t, sve.Has("themeConfig.footer.links[0].items[0]"))
	assert.True(t, sve.Has("themeConfig.footer.links[0].items[1]"))
	assert.True(t, sve.Has("themeConfig.footer.links[0].items[2].label"))
}

func TestValidate_EmptyDocument(t *testing.T) {
	_, err := Validate(&yaml.Node{})
	sve := schemaError(t, err)
	require.Len(t, sve.Violations, 1)
	assert.Contains(t, sve.Error(), "empty")
}

func TestValidate_InvalidLocaleTag(t *testing.T) {
	src := `
title: t
url: https://x
baseUrl: /
organizationName: o
projectName: p
i18n:
  defaultLocale: en
  locales: [en, "not a locale!"]
  localeConfigs:
    de: {label: Deutsch}
`
	_, err := Validate(parseYAML(t, src))
	sve := schemaError(t, err)
	assert.True(t, sve.Has("i18n.locales[1]"))
	assert.True(t, sve.Has("i18n.localeConfigs[de]"))
}
