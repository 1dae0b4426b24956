package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/nav"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

const cliBody = `# CLI

## Install

### Flags

#### Deep

##### Deeper

See [intro](./intro.md#start) and [gone](./gone.md).
`

func testSite() *config.SiteConfig {
	site := config.Defaults()
	site.Title = "av_llm"
	site.Tagline = "Tools for LLM Explorer"
	site.URL = "https://docs.example.com"
	site.BaseURL = "/av_llm/"
	site.Favicon = "img/favicon.ico"
	site.ThemeConfig.Navbar.Title = "av_llm"
	site.ThemeConfig.Navbar.Items = []config.NavbarItem{
		{Type: config.NavbarDocLink, DocID: "cli", Label: "Docs"},
	}
	site.ThemeConfig.Footer.Copyright = "Copyright © {year} av_llm"
	config.Normalize(site)
	return site
}

func testRoutes() []plugin.Route {
	return []plugin.Route{
		{
			Path: "/docs/cli", Kind: plugin.RouteDoc, Format: plugin.FormatMarkdown,
			Title: "CLI", DocID: "cli", Sidebar: "docs", SidebarPosition: 1,
			SourcePath: "/site/docs/cli.md", Body: []byte(cliBody),
			Frontmatter: map[string]any{},
		},
		{
			Path: "/docs/intro", Kind: plugin.RouteDoc, Format: plugin.FormatMarkdown,
			Title: "Intro", DocID: "intro", Sidebar: "docs",
			SourcePath: "/site/docs/intro.md", Body: []byte("# Intro\n\n## Start\n"),
			Frontmatter: map[string]any{"hide_table_of_contents": true},
		},
		{
			Path: "/about", Kind: plugin.RoutePage, Format: plugin.FormatHTML,
			Title: "About", Body: []byte("<p id=\"team\">About us</p>"),
		},
		{
			Path: "/sitemap.xml", Kind: plugin.RouteAsset, Format: plugin.FormatRaw,
			Body: []byte("<urlset/>"),
		},
	}
}

func newRenderer(t *testing.T, site *config.SiteConfig, routes []plugin.Route) *Renderer {
	t.Helper()
	n, err := nav.Assemble(site, routes, nil, func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
	require.NoError(t, err)
	return New(site, "en", n, routes, []string{"/assets/css/theme.css"}, "/site")
}

func TestRender_MarkdownDoc(t *testing.T) {
	site := testSite()
	routes := testRoutes()
	page, err := newRenderer(t, site, routes).Render(routes[0])
	require.NoError(t, err)

	out := string(page.HTML)
	assert.Contains(t, out, `<html lang="en" dir="ltr" data-theme="light">`)
	assert.Contains(t, out, "<title>CLI | av_llm</title>")
	assert.Contains(t, out, `<link rel="stylesheet" href="/av_llm/assets/css/theme.css">`)
	assert.Contains(t, out, `<link rel="icon" href="/av_llm/img/favicon.ico">`)
	assert.Contains(t, out, `<link rel="canonical" href="https://docs.example.com/av_llm/docs/cli">`)
	assert.Contains(t, out, `href="/av_llm/docs/intro#start"`)
	assert.Contains(t, out, `href="./gone.md"`)
	assert.Contains(t, out, `aria-current="page">CLI</a>`)
	assert.Contains(t, out, "Copyright © 2026 av_llm")

	assert.Equal(t, []string{"./gone.md"}, page.UnresolvedLinks)
	require.Len(t, page.TOC, 2)
	assert.Equal(t, "install", page.TOC[0].ID)
	assert.Equal(t, "flags", page.TOC[1].ID)
	assert.Len(t, page.Headings, 5)
}

func TestRender_TOCBounds(t *testing.T) {
	site := testSite()
	site.ThemeConfig.TableOfContents = config.TOCConfig{MinHeadingLevel: 2, MaxHeadingLevel: 5}
	routes := testRoutes()
	r := newRenderer(t, site, routes)

	page, err := r.Render(routes[0])
	require.NoError(t, err)
	assert.Len(t, page.TOC, 4)

	routes[0].Frontmatter["toc_min_heading_level"] = 3
	routes[0].Frontmatter["toc_max_heading_level"] = 4
	page, err = r.Render(routes[0])
	require.NoError(t, err)
	require.Len(t, page.TOC, 2)
	assert.Equal(t, "flags", page.TOC[0].ID)
	assert.Equal(t, "deep", page.TOC[1].ID)

	page, err = r.Render(routes[1])
	require.NoError(t, err)
	assert.Empty(t, page.TOC, "hide_table_of_contents")
}

func TestRender_HTMLPageAndAsset(t *testing.T) {
	site := testSite()
	routes := testRoutes()
	pages, err := newRenderer(t, site, routes).RenderAll(context.Background(), routes)
	require.NoError(t, err)
	require.Len(t, pages, 4)

	about := string(pages[2].HTML)
	assert.Contains(t, about, `<p id="team">About us</p>`)
	assert.NotContains(t, about, `class="sidebar"`)

	assert.Equal(t, "<urlset/>", string(pages[3].HTML))
}

func TestRenderAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRenderer(t, testSite(), testRoutes()).RenderAll(ctx, testRoutes())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRender_RTLLocale(t *testing.T) {
	site := testSite()
	site.I18n.Locales = []string{"en", "he"}
	config.Normalize(site)
	routes := testRoutes()
	n, err := nav.Assemble(site, routes, nil, nil)
	require.NoError(t, err)

	page, err := New(site, "he", n, routes, nil, "/site").Render(routes[2])
	require.NoError(t, err)
	assert.Contains(t, string(page.HTML), `dir="rtl"`)
}
