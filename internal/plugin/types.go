package plugin

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// RouteKind identifies what a route was contributed as.
type RouteKind string

const (
	// RouteDoc is a document with an id, addressable by navbar doc links and sidebars.
	RouteDoc RouteKind = "doc"

	// RoutePage is a standalone page.
	RoutePage RouteKind = "page"

	// RouteGenerated is produced by a plugin rather than read from source (e.g. a reference shell).
	RouteGenerated RouteKind = "generated"

	// RouteAsset is emitted verbatim without a page layout (e.g. sitemap.xml).
	RouteAsset RouteKind = "asset"
)

// Format is the syntax of a route body.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatRaw      Format = "raw"
)

// Route describes one output path contributed by a plugin. Path is relative
// to the site base URL and always begins with "/".
type Route struct {
	Path        string
	Kind        RouteKind
	Plugin      string
	Format      Format
	Title       string
	Description string
	Body        []byte

	// DocID is set for RouteDoc routes.
	DocID      string
	SourcePath string

	// Sidebar is the sidebar this document belongs to; empty for pages.
	Sidebar         string
	SidebarLabel    string
	SidebarPosition int
	Category        string

	Frontmatter map[string]any
	LastUpdated time.Time
}

// OutputFile returns the slash separated file path the route is written to,
// relative to the site output directory.
func (r Route) OutputFile() string {
	p := strings.TrimPrefix(path.Clean("/"+r.Path), "/")
	if r.Format == FormatRaw || path.Ext(p) != "" {
		return p
	}
	if p == "" {
		return "index.html"
	}
	return p + "/index.html"
}

// Label returns the text used for the route in navigation.
func (r Route) Label() string {
	switch {
	case r.SidebarLabel != "":
		return r.SidebarLabel
	case r.Title != "":
		return r.Title
	case r.DocID != "":
		return path.Base(r.DocID)
	default:
		return r.Path
	}
}

// NormalizeRoutePath cleans a route path and ensures a leading slash.
func NormalizeRoutePath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// UnknownPluginError reports declarations naming identifiers that are not registered.
type UnknownPluginError struct {
	// Name is the first unknown identifier in declaration order.
	Name string
	// Names lists every unknown identifier in declaration order.
	Names []string
	// Registered lists the identifiers that are available.
	Registered []string
	// Preset is set when the unknown identifier was declared as a preset.
	Preset bool
}

func (e *UnknownPluginError) Error() string {
	kind := "plugin"
	if e.Preset {
		kind = "preset"
	}
	if len(e.Names) > 1 {
		return fmt.Sprintf("unknown %ss %q (registered: %s)", kind, e.Names, strings.Join(e.Registered, ", "))
	}
	return fmt.Sprintf("unknown %s %q (registered: %s)", kind, e.Name, strings.Join(e.Registered, ", "))
}

// Category classifies the error for exit code mapping.
func (e *UnknownPluginError) Category() errors.ErrorCategory {
	return errors.CategoryPlugin
}

// PluginError represents an error that occurred within a plugin.
type PluginError struct {
	// PluginName identifies which plugin failed.
	PluginName string

	// Operation describes what the plugin was doing when it failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s failed during %s: %v", e.PluginName, e.Operation, e.Err)
}

// Unwrap returns the underlying error for error inspection.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// Category classifies the error for exit code mapping.
func (e *PluginError) Category() errors.ErrorCategory {
	return errors.CategoryPlugin
}

// NewPluginError creates a new plugin error.
func NewPluginError(pluginName, operation string, err error) *PluginError {
	return &PluginError{
		PluginName: pluginName,
		Operation:  operation,
		Err:        err,
	}
}

// RouteConflictError reports two routes resolving to the same output file.
type RouteConflictError struct {
	File    string
	Plugins []string
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("route conflict: %s is contributed by %s", e.File, strings.Join(e.Plugins, " and "))
}

// Category classifies the error for exit code mapping.
func (e *RouteConflictError) Category() errors.ErrorCategory {
	return errors.CategoryPlugin
}

// SortRoutes orders routes by path for deterministic output.
func SortRoutes(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Path < routes[j].Path
	})
}
