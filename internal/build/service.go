package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/linkcheck"
	"git.home.luguber.info/inful/docsite/internal/manifest"
)

// Service executes site builds. Both the CLI and the watcher go through it.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
	BuildLocales(ctx context.Context, req Request) ([]*Result, error)
}

// Request contains all inputs of a build.
type Request struct {
	// Document is the loaded configuration document.
	Document *config.Document

	// SourceDir is the site source root (docs/, src/pages/, static/).
	SourceDir string

	// OutputDir is the site output directory.
	OutputDir string

	// Locale selects the locale of Run; empty means the default locale.
	Locale string

	// Locales restricts BuildLocales to a subset of the configured locales.
	Locales []string

	// BuildID overrides the generated build id.
	BuildID string
}

// Status is the outcome of a build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusWarning  Status = "warning"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsSuccess reports whether the build produced output.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusWarning
}

// Result is the outcome of one locale build.
type Result struct {
	BuildID string
	Locale  string
	Status  Status
	// State is the final state machine state, Done or Failed.
	State       State
	Transitions []Transition

	// OutputDir is the directory the locale was written to.
	OutputDir   string
	Plugins     []string
	Routes      int
	StaticFiles int
	Warnings    []linkcheck.Broken
	Manifest    *manifest.BuildManifest

	// Err is set when the build failed.
	Err *Error

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Issues returns the issues of a failed build.
func (r *Result) Issues() []Issue {
	if r == nil || r.Err == nil {
		return nil
	}
	return r.Err.Issues
}
