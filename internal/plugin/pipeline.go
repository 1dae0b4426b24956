package plugin

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Pipeline is an ordered set of plugin instances owned by one build.
type Pipeline struct {
	plugins []Plugin
}

// Len returns the number of plugin instances.
func (p *Pipeline) Len() int { return len(p.plugins) }

// Plugins returns the plugin instances in declaration order.
func (p *Pipeline) Plugins() []Plugin {
	return append([]Plugin(nil), p.plugins...)
}

// Names returns the plugin names in declaration order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.plugins))
	for i, pl := range p.plugins {
		out[i] = pl.Name()
	}
	return out
}

// ContributeRoutes runs every plugin in declaration order, then every
// RouteFinalizer, and returns the combined routes. Two routes writing the same
// output file are a *RouteConflictError.
func (p *Pipeline) ContributeRoutes(ctx context.Context, bc *BuildContext) ([]Route, error) {
	owners := make(map[string]string)
	var routes []Route

	add := func(owner string, contributed []Route) error {
		for _, r := range contributed {
			r.Path = NormalizeRoutePath(r.Path)
			if r.Plugin == "" {
				r.Plugin = owner
			}
			file := r.OutputFile()
			if prev, ok := owners[file]; ok {
				return &RouteConflictError{File: file, Plugins: []string{prev, owner}}
			}
			owners[file] = owner
			routes = append(routes, r)
		}
		return nil
	}

	for _, pl := range p.plugins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		contributed, err := pl.ContributeRoutes(ctx, bc)
		if err != nil {
			return nil, NewPluginError(pl.Name(), "contribute routes", err)
		}
		if err := add(pl.Name(), contributed); err != nil {
			return nil, err
		}
		bc.PluginLogger(pl.Name()).Debug("Plugin contributed routes",
			logfields.Count(len(contributed)),
			logfields.Duration(time.Since(start)))
	}

	for _, pl := range p.plugins {
		fin, ok := pl.(RouteFinalizer)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snapshot := append([]Route(nil), routes...)
		extra, err := fin.FinalizeRoutes(ctx, bc, snapshot)
		if err != nil {
			return nil, NewPluginError(pl.Name(), "finalize routes", err)
		}
		if err := add(pl.Name(), extra); err != nil {
			return nil, err
		}
	}

	SortRoutes(routes)
	return routes, nil
}

// NavbarItems collects navbar items declared by plugins, in plugin order.
func (p *Pipeline) NavbarItems() []config.NavbarItem {
	var out []config.NavbarItem
	for _, pl := range p.plugins {
		if nc, ok := pl.(NavbarContributor); ok {
			out = append(out, nc.NavbarItems()...)
		}
	}
	return out
}

// Stylesheets collects stylesheet routes declared by plugins, in plugin order.
func (p *Pipeline) Stylesheets() []string {
	var out []string
	for _, pl := range p.plugins {
		if sc, ok := pl.(StylesheetContributor); ok {
			out = append(out, sc.Stylesheets()...)
		}
	}
	return out
}
