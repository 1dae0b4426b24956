package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/linkcheck"
	"git.home.luguber.info/inful/docsite/internal/nav"
	"git.home.luguber.info/inful/docsite/internal/plugin"
)

// Issue is one problem reported by a failed stage.
type Issue struct {
	Stage   State  `json:"stage"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("[%s] %s", i.Stage, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Stage, i.Field, i.Message)
}

// Error is the failure of a build. Issues holds the complete issue list of
// the failed stage and nothing from any other stage.
type Error struct {
	Stage  State
	Issues []Issue
	Err    error
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("build failed in %s: %s", e.Stage, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return e.Err }

// Category classifies the failure by its cause.
func (e *Error) Category() errors.ErrorCategory {
	if Canceled(e.Err) {
		return errors.CategoryCanceled
	}
	return errors.GetCategory(e.Err)
}

// Canceled reports whether err is a context cancellation or deadline.
func Canceled(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// newError converts a stage failure into an *Error with one issue per
// reported problem.
func newError(stage State, site *config.SiteConfig, err error) *Error {
	return &Error{Stage: stage, Issues: issuesFor(stage, site, err), Err: err}
}

func issuesFor(stage State, site *config.SiteConfig, err error) []Issue {
	if Canceled(err) {
		return []Issue{{Stage: stage, Message: "build canceled: " + err.Error()}}
	}

	var schemaErr *config.SchemaValidationError
	if stderrors.As(err, &schemaErr) {
		issues := make([]Issue, 0, len(schemaErr.Violations))
		for _, v := range schemaErr.Violations {
			issues = append(issues, Issue{Stage: stage, Field: v.Field, Message: v.Message})
		}
		return issues
	}

	var unknown *plugin.UnknownPluginError
	if stderrors.As(err, &unknown) {
		return unknownPluginIssues(stage, site, unknown)
	}

	var navErr *nav.NavigationIntegrityError
	if stderrors.As(err, &navErr) {
		issues := make([]Issue, 0, len(navErr.Missing))
		for _, m := range navErr.Missing {
			issues = append(issues, Issue{Stage: stage, Field: m.Field, Message: fmt.Sprintf("doc-link references unknown document id %q", m.DocID)})
		}
		return issues
	}

	var linkErr *linkcheck.BrokenLinkError
	if stderrors.As(err, &linkErr) {
		issues := make([]Issue, 0, len(linkErr.Broken))
		for _, b := range linkErr.Broken {
			issues = append(issues, Issue{Stage: stage, Field: policyField(b.Kind), Message: b.String()})
		}
		return issues
	}

	return []Issue{{Stage: stage, Message: err.Error()}}
}

func unknownPluginIssues(stage State, site *config.SiteConfig, e *plugin.UnknownPluginError) []Issue {
	kind, decls, field := "plugin", []config.PluginDeclaration(nil), "plugins"
	if site != nil {
		decls = site.Plugins
	}
	if e.Preset {
		kind, field = "preset", "presets"
		if site != nil {
			decls = site.Presets
		}
	}

	issues := make([]Issue, 0, len(e.Names))
	for _, name := range e.Names {
		f := field
		for i, d := range decls {
			if d.Name == name {
				f = fmt.Sprintf("%s[%d].name", field, i)
				break
			}
		}
		issues = append(issues, Issue{
			Stage:   stage,
			Field:   f,
			Message: fmt.Sprintf("unknown %s %q (registered: %s)", kind, name, strings.Join(e.Registered, ", ")),
		})
	}
	return issues
}

func policyField(k linkcheck.Kind) string {
	switch k {
	case linkcheck.KindAnchor:
		return "onBrokenAnchors"
	case linkcheck.KindMarkdown:
		return "onBrokenMarkdownLinks"
	default:
		return "onBrokenLinks"
	}
}
