// Package plugin provides the plugin system that contributes routes to a site
// build. Plugins are created by named factories held in a Registry and run in
// declaration order as a Pipeline.
package plugin

import (
	"context"

	"git.home.luguber.info/inful/docsite/internal/config"
)

// Plugin is a named unit contributing routes to a build.
type Plugin interface {
	// Name returns the identifier the plugin was declared with.
	Name() string

	// ContributeRoutes returns zero or more route descriptors for the build.
	// It must not write to the filesystem.
	ContributeRoutes(ctx context.Context, bc *BuildContext) ([]Route, error)
}

// NavbarContributor is implemented by plugins that add items to the navbar
// (for example a reference plugin with showNavLink enabled).
type NavbarContributor interface {
	NavbarItems() []config.NavbarItem
}

// RouteFinalizer is implemented by plugins that need to see every route of
// the build, such as a sitemap. Finalizers run after all plugins contributed
// and may return additional routes.
type RouteFinalizer interface {
	FinalizeRoutes(ctx context.Context, bc *BuildContext, routes []Route) ([]Route, error)
}

// StylesheetContributor is implemented by plugins that add stylesheets to
// every rendered page. Paths are route paths relative to the base URL.
type StylesheetContributor interface {
	Stylesheets() []string
}

// Describer is implemented by plugins that provide a one-line description
// for `docsite plugins`.
type Describer interface {
	Description() string
}

// Factory builds a plugin instance from its declared options record.
type Factory func(options map[string]any) (Plugin, error)

// Preset expands a preset's options into plugin declarations.
type Preset func(options map[string]any) ([]config.PluginDeclaration, error)
