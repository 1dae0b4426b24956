package plugin

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// LastUpdateSource reports when a source file last changed. It is backed by
// git history when the site source is a repository.
type LastUpdateSource interface {
	LastUpdated(path string) (time.Time, bool)
}

// BuildContext gives plugins read-only access to the resolved site and the
// build they run in. A BuildContext belongs to one build and is never shared.
type BuildContext struct {
	// Site is the resolved configuration; plugins must not modify it.
	Site *config.SiteConfig

	// Locale is the locale being built.
	Locale string

	// SourceDir is the site source root (docs/, src/pages/, static/).
	SourceDir string

	// BuildID uniquely identifies this build.
	BuildID string

	// Logger provides structured logging for plugin operations.
	Logger *slog.Logger

	// Now is the build start time.
	Now time.Time

	// LastUpdates is optional.
	LastUpdates LastUpdateSource
}

// NewBuildContext creates a build context for one locale build.
func NewBuildContext(site *config.SiteConfig, locale, sourceDir, buildID string, logger *slog.Logger) *BuildContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildContext{
		Site:      site,
		Locale:    locale,
		SourceDir: sourceDir,
		BuildID:   buildID,
		Logger:    logger,
		Now:       time.Now(),
	}
}

// PluginLogger returns the build logger annotated with a plugin name.
func (bc *BuildContext) PluginLogger(name string) *slog.Logger {
	return bc.Logger.With(logfields.Plugin(name), logfields.Locale(bc.Locale))
}

// IsDefaultLocale reports whether the build is for the site default locale.
func (bc *BuildContext) IsDefaultLocale() bool {
	return bc.Locale == "" || bc.Locale == bc.Site.I18n.DefaultLocale
}

// SourcePath resolves rel against the source directory. For non-default
// locales a translated copy under i18n/<locale>/<rel> is preferred when present.
func (bc *BuildContext) SourcePath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	if !bc.IsDefaultLocale() {
		translated := filepath.Join(bc.SourceDir, "i18n", bc.Locale, rel)
		if _, err := os.Stat(translated); err == nil {
			return translated
		}
	}
	return filepath.Join(bc.SourceDir, rel)
}

// LastUpdated returns the last change time of a source file, when known.
func (bc *BuildContext) LastUpdated(path string) (time.Time, bool) {
	if bc.LastUpdates == nil {
		return time.Time{}, false
	}
	return bc.LastUpdates.LastUpdated(path)
}
