package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadFile_YAMLWithEnvFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "DOCSITE_TEST_LOAD_TITLE=From Env\n")
	writeFile(t, filepath.Join(dir, "docsite.yaml"), `
title: ${DOCSITE_TEST_LOAD_TITLE}
url: https://x
baseUrl: /
organizationName: o
projectName: $NOT_EXPANDED
i18n: {defaultLocale: en, locales: [en]}
`)
	doc, err := LoadFile(filepath.Join(dir, "docsite.yaml"))
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, doc.Format)
	assert.Len(t, doc.Hash, 64)

	cfg, err := Resolve(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Title)
	assert.Equal(t, "$NOT_EXPANDED", cfg.ProjectName)
}

func TestLoadFile_RereadsEnvFileOnEveryLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "docsite.yaml")
	writeFile(t, cfgPath, `
title: ${DOCSITE_TEST_RELOAD_TITLE}
url: https://x
baseUrl: /
organizationName: o
projectName: p
i18n: {defaultLocale: en, locales: [en]}
`)

	load := func() string {
		t.Helper()
		doc, err := LoadFile(cfgPath)
		require.NoError(t, err)
		cfg, err := Resolve(doc.Root)
		require.NoError(t, err)
		return cfg.Title
	}

	writeFile(t, filepath.Join(dir, ".env"), "DOCSITE_TEST_RELOAD_TITLE=first\n")
	assert.Equal(t, "first", load())

	writeFile(t, filepath.Join(dir, ".env"), "DOCSITE_TEST_RELOAD_TITLE=second\n")
	assert.Equal(t, "second", load())

	_, exported := os.LookupEnv("DOCSITE_TEST_RELOAD_TITLE")
	assert.False(t, exported, "env file values must not leak into the process environment")
}

func TestLoadFile_EnvFileTakesPrecedenceOverLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "DOCSITE_TEST_LOCAL_ORG=from-env\n")
	writeFile(t, filepath.Join(dir, ".env.local"), "DOCSITE_TEST_LOCAL_ORG=from-local\nDOCSITE_TEST_LOCAL_PROJECT=local-only\n")
	writeFile(t, filepath.Join(dir, "docsite.yaml"), `
title: t
url: https://x
baseUrl: /
organizationName: ${DOCSITE_TEST_LOCAL_ORG}
projectName: ${DOCSITE_TEST_LOCAL_PROJECT}
i18n: {defaultLocale: en, locales: [en]}
`)

	doc, err := LoadFile(filepath.Join(dir, "docsite.yaml"))
	require.NoError(t, err)
	cfg, err := Resolve(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OrganizationName)
	assert.Equal(t, "local-only", cfg.ProjectName)
}

func TestLoadFile_ProcessEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSITE_TEST_LOAD_ORG", "from-process")
	writeFile(t, filepath.Join(dir, ".env"), "DOCSITE_TEST_LOAD_ORG=from-dotenv\n")
	writeFile(t, filepath.Join(dir, "site.yml"), `
title: t
url: https://x
baseUrl: /
organizationName: ${DOCSITE_TEST_LOAD_ORG}
projectName: p
i18n: {defaultLocale: en, locales: [en]}
`)

	doc, err := LoadFile(filepath.Join(dir, "site.yml"))
	require.NoError(t, err)
	cfg, err := Resolve(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, "from-process", cfg.OrganizationName)
}

func TestLoadFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docsite.toml")
	writeFile(t, path, `
title = "av_llm"
url = "https://x"
baseUrl = "/av_llm/"
organizationName = "avble"
projectName = "av_llm"
plugins = ["sitemap"]

[i18n]
defaultLocale = "en"
locales = ["en"]

[themeConfig.tableOfContents]
minHeadingLevel = 2
maxHeadingLevel = 5
`)

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, doc.Format)

	cfg, err := Resolve(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, "av_llm", cfg.Title)
	assert.Equal(t, 5, cfg.ThemeConfig.TableOfContents.MaxHeadingLevel)
	require.Len(t, cfg.Plugins, 1)
	assert.Equal(t, "sitemap", cfg.Plugins[0].Name)
}

func TestLoadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docsite.json")
	writeFile(t, path, `{"title": "t", "url": "https://x", "baseUrl": "/", "organizationName": "o", "projectName": "p", "i18n": {"defaultLocale": "en", "locales": ["en"]}}`)

	doc, err := LoadFile(path)
	require.NoError(t, err)
	_, err = Resolve(doc.Root)
	require.NoError(t, err)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))

	bad := filepath.Join(dir, "docsite.ini")
	writeFile(t, bad, "title=t")
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "title: [unterminated")
	_, err = LoadFile(broken)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestFindConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := FindConfig(dir)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	writeFile(t, filepath.Join(dir, "docsite.toml"), "")
	writeFile(t, filepath.Join(dir, "docsite.yml"), "")
	path, err := FindConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docsite.yml"), path)
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site", "docsite.yaml")
	require.NoError(t, WriteExample(path, false))

	err := WriteExample(path, false)
	require.Error(t, err)
	require.NoError(t, WriteExample(path, true))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	cfg, err := Resolve(doc.Root)
	require.NoError(t, err)

	assert.Equal(t, "av_llm", cfg.Title)
	require.Len(t, cfg.Presets, 1)
	assert.Equal(t, "classic", cfg.Presets[0].Name)
	require.Len(t, cfg.Plugins, 1)
	assert.Equal(t, "api-reference", cfg.Plugins[0].Name)
	assert.Equal(t, "/api-reference", cfg.Plugins[0].Options["route"])
	assert.Equal(t, FooterDark, cfg.ThemeConfig.Footer.Style)
	assert.Len(t, cfg.ThemeConfig.Navbar.Items, 1)
}
