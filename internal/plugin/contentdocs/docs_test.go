package contentdocs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

type fixedUpdates map[string]time.Time

func (f fixedUpdates) LastUpdated(p string) (time.Time, bool) {
	ts, ok := f[p]
	return ts, ok
}

func newSite(t *testing.T) (string, *plugin.BuildContext) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "cli.md"), "---\nsidebar_position: 2\n---\n# Command line\n\nText\n")
	writeFile(t, filepath.Join(dir, "docs", "intro.md"), "---\ntitle: Introduction\nsidebar_position: 1\n---\nWelcome\n")
	writeFile(t, filepath.Join(dir, "docs", "guides", "index.md"), "# Guides\n")
	writeFile(t, filepath.Join(dir, "docs", "guides", "setup.md"), "---\nid: installation\nsidebar_label: Install\n---\n# Setup\n")
	writeFile(t, filepath.Join(dir, "docs", "guides", "wip.md"), "---\ndraft: true\n---\n# WIP\n")
	writeFile(t, filepath.Join(dir, "docs", "_partial.md"), "partial\n")
	writeFile(t, filepath.Join(dir, "docs", "notes.txt"), "not markdown\n")

	bc := plugin.NewBuildContext(config.Defaults(), "en", dir, "b1", nil)
	return dir, bc
}

func routesByID(routes []plugin.Route) map[string]plugin.Route {
	out := make(map[string]plugin.Route, len(routes))
	for _, r := range routes {
		out[r.DocID] = r
	}
	return out
}

func TestContributeRoutes_Autogenerated(t *testing.T) {
	dir, bc := newSite(t)
	bc.LastUpdates = fixedUpdates{
		filepath.Join(dir, "docs", "cli.md"): time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	p, err := New(map[string]any{"showLastUpdateTime": true})
	require.NoError(t, err)

	routes, err := p.ContributeRoutes(context.Background(), bc)
	require.NoError(t, err)
	require.Len(t, routes, 4)

	byID := routesByID(routes)
	cli := byID["cli"]
	assert.Equal(t, "/docs/cli", cli.Path)
	assert.Equal(t, "Command line", cli.Title)
	assert.Equal(t, 2, cli.SidebarPosition)
	assert.Equal(t, DefaultSidebar, cli.Sidebar)
	assert.Equal(t, "", cli.Category)
	assert.Equal(t, plugin.RouteDoc, cli.Kind)
	assert.Equal(t, plugin.FormatMarkdown, cli.Format)
	assert.Equal(t, 2026, cli.LastUpdated.Year())

	assert.Equal(t, "Introduction", byID["intro"].Title)
	assert.True(t, byID["intro"].LastUpdated.IsZero())

	guides := byID["guides/index"]
	assert.Equal(t, "/docs/guides", guides.Path)
	assert.Equal(t, "guides", guides.Category)

	setup := byID["guides/installation"]
	assert.Equal(t, "/docs/guides/installation", setup.Path)
	assert.Equal(t, "Install", setup.Label())
	assert.NotContains(t, byID, "guides/wip")
}

func TestContributeRoutes_SidebarFile(t *testing.T) {
	dir, bc := newSite(t)
	writeFile(t, filepath.Join(dir, "sidebars.yaml"), `
docs:
  - intro
  - type: category
    label: Getting started
    items:
      - guides/installation
      - cli
`)

	p, err := New(map[string]any{"sidebarPath": "./sidebars.yaml", "routeBasePath": "/"})
	require.NoError(t, err)
	routes, err := p.ContributeRoutes(context.Background(), bc)
	require.NoError(t, err)

	byID := routesByID(routes)
	assert.Equal(t, "/intro", byID["intro"].Path)
	assert.Equal(t, 1, byID["intro"].SidebarPosition)
	assert.Equal(t, "", byID["intro"].Category)
	assert.Equal(t, "Getting started", byID["cli"].Category)
	assert.Equal(t, 3, byID["cli"].SidebarPosition)
	assert.Equal(t, "", byID["guides/index"].Sidebar, "unlisted docs are not in a sidebar")
}

func TestContributeRoutes_SidebarFileUnknownDoc(t *testing.T) {
	dir, bc := newSite(t)
	writeFile(t, filepath.Join(dir, "sidebars.yml"), "docs: [intro, missing]\n")

	p, err := New(map[string]any{"sidebarPath": "sidebars.yml"})
	require.NoError(t, err)
	_, err = p.ContributeRoutes(context.Background(), bc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestContributeRoutes_NonYAMLSidebarFallsBack(t *testing.T) {
	_, bc := newSite(t)
	p, err := New(map[string]any{"sidebarPath": "./sidebars.ts"})
	require.NoError(t, err)
	routes, err := p.ContributeRoutes(context.Background(), bc)
	require.NoError(t, err)
	for _, r := range routes {
		assert.Equal(t, DefaultSidebar, r.Sidebar)
	}
}

func TestContributeRoutes_MissingDocsDir(t *testing.T) {
	bc := plugin.NewBuildContext(config.Defaults(), "en", t.TempDir(), "b1", nil)
	p, err := New(nil)
	require.NoError(t, err)
	routes, err := p.ContributeRoutes(context.Background(), bc)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestContributeRoutes_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "a.md"), "---\nid: same\n---\n")
	writeFile(t, filepath.Join(dir, "docs", "b.md"), "---\nid: same\n---\n")
	bc := plugin.NewBuildContext(config.Defaults(), "en", dir, "b1", nil)

	p, err := New(nil)
	require.NoError(t, err)
	_, err = p.ContributeRoutes(context.Background(), bc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate doc id")
}

func TestContributeRoutes_TranslatedDocs(t *testing.T) {
	dir, _ := newSite(t)
	writeFile(t, filepath.Join(dir, "i18n", "fr", "docs", "cli.md"), "# Ligne de commande\n")

	site := config.Defaults()
	site.I18n.Locales = []string{"en", "fr"}
	bc := plugin.NewBuildContext(site, "fr", dir, "b1", nil)

	p, err := New(nil)
	require.NoError(t, err)
	routes, err := p.ContributeRoutes(context.Background(), bc)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "Ligne de commande", routes[0].Title)
}

func TestNew_RejectsUnknownOptions(t *testing.T) {
	_, err := New(map[string]any{"sidebarPth": "./sidebars.yaml"})
	require.Error(t, err)
}

func TestRoutePath(t *testing.T) {
	assert.Equal(t, "/docs/a/b", RoutePath("docs", "a/b.md", "a/b", ""))
	assert.Equal(t, "/docs", RoutePath("docs", "index.md", "index", ""))
	assert.Equal(t, "/", RoutePath("", "README.md", "README", ""))
	assert.Equal(t, "/docs/start", RoutePath("docs", "a/b.md", "a/b", "/start"))
	assert.Equal(t, "/docs/a/custom", RoutePath("docs", "a/b.md", "a/b", "custom"))
}

func TestDocID(t *testing.T) {
	assert.Equal(t, "guides/setup", DocID("guides/setup.md", ""))
	assert.Equal(t, "guides/install", DocID("guides/setup.md", "install"))
	assert.Equal(t, "cli", DocID("command.mdx", "cli"))
}
