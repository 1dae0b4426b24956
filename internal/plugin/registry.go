package plugin

import (
	"fmt"
	"sort"
	"sync"

	"git.home.luguber.info/inful/docsite/internal/config"
)

// Registry maps plugin and preset identifiers to their factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	presets   map[string]Preset
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		presets:   make(map[string]Preset),
	}
}

// Register adds a plugin factory under name.
// Returns an error if the name is empty or already registered.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for plugin %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// RegisterPreset adds a preset under name.
func (r *Registry) RegisterPreset(name string, preset Preset) error {
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	if preset == nil {
		return fmt.Errorf("cannot register nil preset %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[name]; exists {
		return fmt.Errorf("preset %s already registered", name)
	}
	r.presets[name] = preset
	return nil
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}

// HasPreset checks if a preset with the given name is registered.
func (r *Registry) HasPreset(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.presets[name]
	return ok
}

// Names returns the registered plugin names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.factories)
}

// PresetNames returns the registered preset names in sorted order.
func (r *Registry) PresetNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.presets)
}

// Describe returns the description of the named plugin when an instance
// built with default options implements Describer.
func (r *Registry) Describe(name string) string {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return ""
	}
	p, err := factory(map[string]any{})
	if err != nil {
		return ""
	}
	if d, ok := p.(Describer); ok {
		return d.Description()
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ExpandPresets turns preset declarations into plugin declarations, in
// preset order. Unknown presets fail the whole expansion.
func (r *Registry) ExpandPresets(presets []config.PluginDeclaration) ([]config.PluginDeclaration, error) {
	r.mu.RLock()
	var unknown []string
	for _, p := range presets {
		if _, ok := r.presets[p.Name]; !ok {
			unknown = append(unknown, p.Name)
		}
	}
	if len(unknown) > 0 {
		registered := sortedKeys(r.presets)
		r.mu.RUnlock()
		return nil, &UnknownPluginError{Name: unknown[0], Names: unknown, Registered: registered, Preset: true}
	}
	expanders := make([]Preset, len(presets))
	for i, p := range presets {
		expanders[i] = r.presets[p.Name]
	}
	r.mu.RUnlock()

	var out []config.PluginDeclaration
	for i, p := range presets {
		decls, err := expanders[i](config.CloneOptions(p.Options))
		if err != nil {
			return nil, NewPluginError(p.Name, "expand preset", err)
		}
		out = append(out, decls...)
	}
	return out, nil
}

// Resolve builds a pipeline from plugin declarations. If any declaration
// names an unregistered identifier, Resolve returns an *UnknownPluginError
// listing every such identifier and no factory is invoked.
func (r *Registry) Resolve(decls []config.PluginDeclaration) (*Pipeline, error) {
	r.mu.RLock()
	var unknown []string
	factories := make([]Factory, len(decls))
	for i, d := range decls {
		f, ok := r.factories[d.Name]
		if !ok {
			unknown = append(unknown, d.Name)
			continue
		}
		factories[i] = f
	}
	var registered []string
	if len(unknown) > 0 {
		registered = sortedKeys(r.factories)
	}
	r.mu.RUnlock()

	if len(unknown) > 0 {
		return nil, &UnknownPluginError{Name: unknown[0], Names: unknown, Registered: registered}
	}

	plugins := make([]Plugin, 0, len(decls))
	for i, d := range decls {
		p, err := factories[i](config.CloneOptions(d.Options))
		if err != nil {
			return nil, NewPluginError(d.Name, "configure", err)
		}
		if p == nil {
			return nil, NewPluginError(d.Name, "configure", fmt.Errorf("factory returned nil plugin"))
		}
		plugins = append(plugins, p)
	}
	return &Pipeline{plugins: plugins}, nil
}

// ResolveSite expands the site's presets and resolves them together with the
// site's plugins. Preset plugins come first.
func (r *Registry) ResolveSite(site *config.SiteConfig) (*Pipeline, error) {
	expanded, err := r.ExpandPresets(site.Presets)
	if err != nil {
		return nil, err
	}
	decls := make([]config.PluginDeclaration, 0, len(expanded)+len(site.Plugins))
	decls = append(decls, expanded...)
	decls = append(decls, site.Plugins...)
	return r.Resolve(decls)
}
