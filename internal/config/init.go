package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// ExampleYAML is the configuration written by `docsite init`.
const ExampleYAML = `title: av_llm
tagline: Tools for LLM Explorer
favicon: img/favicon.ico
url: https://docs.example.com
baseUrl: /av_llm/
organizationName: avble
projectName: av_llm

onBrokenLinks: throw
onBrokenMarkdownLinks: warn

i18n:
  defaultLocale: en
  locales: [en]

presets:
  - - classic
    - docs:
        sidebarPath: ./sidebars.yaml
      theme:
        customCss: ./src/css/custom.css

plugins:
  - - api-reference
    - label: API Reference
      showNavLink: false
      route: /api-reference
      configuration:
        spec:
          url: /av_llm_api.json
        hideModels: true

themeConfig:
  navbar:
    title: av_llm
    logo:
      alt: Site Logo
      src: img/logo.svg
    items:
      - type: doc
        position: left
        docId: cli
        label: Docs
      # - to: /api-reference
      #   label: API Reference
      #   position: right
      # - type: search
      #   position: right
  tableOfContents:
    minHeadingLevel: 2
    maxHeadingLevel: 5
  footer:
    style: dark
    copyright: Copyright © {year} A-Konnect, Labs. Built with docsite.
  prism:
    theme: github
    darkTheme: dracula
`

// WriteExample writes ExampleYAML to path. An existing file is only replaced
// when force is set.
func WriteExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.ConfigError("config file already exists (use --force to overwrite)").
				WithPath(path).
				Build()
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create config directory").
			WithPath(path).
			Build()
	}
	if err := os.WriteFile(path, []byte(ExampleYAML), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write example config").
			WithPath(path).
			Build()
	}
	return nil
}
