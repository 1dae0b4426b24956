package plugin

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
)

type finalizer struct {
	fakePlugin
	seen int
}

func (f *finalizer) FinalizeRoutes(_ context.Context, _ *BuildContext, routes []Route) ([]Route, error) {
	f.seen = len(routes)
	return []Route{{Path: "/sitemap.xml", Kind: RouteAsset, Format: FormatRaw}}, nil
}

func testBuildContext() *BuildContext {
	site := config.Defaults()
	site.BaseURL = "/"
	return NewBuildContext(site, "en", "", "build-1", nil)
}

func TestPipelineContributeRoutes(t *testing.T) {
	fin := &finalizer{fakePlugin: fakePlugin{name: "sitemap"}}
	pipe := &Pipeline{plugins: []Plugin{
		&fakePlugin{name: "docs", routes: []Route{{Path: "docs/intro", Kind: RouteDoc, DocID: "intro"}}},
		&fakePlugin{name: "pages", routes: []Route{{Path: "/", Kind: RoutePage}}},
		fin,
	}}

	routes, err := pipe.ContributeRoutes(context.Background(), testBuildContext())
	require.NoError(t, err)
	require.Len(t, routes, 3)

	assert.Equal(t, 2, fin.seen)
	assert.Equal(t, "/", routes[0].Path)
	assert.Equal(t, "/docs/intro", routes[1].Path)
	assert.Equal(t, "docs", routes[1].Plugin)
	assert.Equal(t, "/sitemap.xml", routes[2].Path)
	assert.Equal(t, "sitemap", routes[2].Plugin)
}

func TestPipelineRouteConflict(t *testing.T) {
	pipe := &Pipeline{plugins: []Plugin{
		&fakePlugin{name: "docs", routes: []Route{{Path: "/intro"}}},
		&fakePlugin{name: "pages", routes: []Route{{Path: "/intro/"}}},
	}}

	_, err := pipe.ContributeRoutes(context.Background(), testBuildContext())
	var conflict *RouteConflictError
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, "intro/index.html", conflict.File)
	assert.Equal(t, []string{"docs", "pages"}, conflict.Plugins)
}

func TestPipelinePluginErrorAndCancel(t *testing.T) {
	pipe := &Pipeline{plugins: []Plugin{&fakePlugin{name: "bad", err: assert.AnError}}}
	_, err := pipe.ContributeRoutes(context.Background(), testBuildContext())
	var perr *PluginError
	require.True(t, stderrors.As(err, &perr))
	assert.Equal(t, "bad", perr.PluginName)
	assert.ErrorIs(t, err, assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pipe.ContributeRoutes(ctx, testBuildContext())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineNavbarItems(t *testing.T) {
	pipe := &Pipeline{plugins: []Plugin{
		&fakePlugin{name: "a", navbar: []config.NavbarItem{{Label: "A", To: "/a"}}},
		&fakePlugin{name: "b"},
		&fakePlugin{name: "c", navbar: []config.NavbarItem{{Label: "C", To: "/c"}}},
	}}
	items := pipe.NavbarItems()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Label)
	assert.Equal(t, "C", items[1].Label)
}

func TestRouteOutputFile(t *testing.T) {
	tests := []struct {
		route Route
		want  string
	}{
		{Route{Path: "/"}, "index.html"},
		{Route{Path: "/docs/cli"}, "docs/cli/index.html"},
		{Route{Path: "/docs/cli/"}, "docs/cli/index.html"},
		{Route{Path: "/sitemap.xml"}, "sitemap.xml"},
		{Route{Path: "/feed", Format: FormatRaw}, "feed"},
		{Route{Path: "/../escape"}, "escape/index.html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.route.OutputFile(), tt.route.Path)
	}
}

func TestDecodeOptions(t *testing.T) {
	var opts struct {
		Route       string `yaml:"route"`
		ShowNavLink bool   `yaml:"showNavLink"`
	}
	require.NoError(t, DecodeOptions(map[string]any{"route": "/api", "showNavLink": true}, &opts))
	assert.Equal(t, "/api", opts.Route)
	assert.True(t, opts.ShowNavLink)

	err := DecodeOptions(map[string]any{"rout": "/api"}, &opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rout")

	require.NoError(t, DecodeOptions(nil, &opts))
}
