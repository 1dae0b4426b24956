package commands

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/events"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/gitinfo"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/plugin/builtin"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (default: docsite.yaml, .yml, .toml or .json in the current directory)" env:"DOCSITE_CONFIG" type:"path"`
	HistoryDB string           `name:"history-db" help:"SQLite database recording build history" env:"DOCSITE_HISTORY" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format" enum:"text,json" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the static site for every configured locale"`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration and resolve its plugins"`
	Init     InitCmd     `cmd:"" help:"Scaffold a new site with an example configuration"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild the site whenever sources change"`
	History  HistoryCmd  `cmd:"" help:"Inspect recorded builds"`
	Plugins  PluginsCmd  `cmd:"" help:"List the registered plugins and presets"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadDocument reads the configuration named by --config, or the first
// default config file in the working directory. It returns the document and
// the site directory holding it.
func (c *CLI) loadDocument() (*config.Document, string, error) {
	path := c.Config
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", errors.WrapError(err, errors.CategoryFileSystem, "resolve working directory").Build()
		}
		if path, err = config.FindConfig(wd); err != nil {
			return nil, "", err
		}
	}
	doc, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryFileSystem, "resolve site directory").Build()
	}
	return doc, dir, nil
}

// resolveOutput returns output as an absolute path, relative paths being
// taken from the site directory.
func resolveOutput(siteDir, output string) string {
	if filepath.IsAbs(output) {
		return filepath.Clean(output)
	}
	return filepath.Join(siteDir, output)
}

// ObserverFlags configure where build outcomes are reported.
type ObserverFlags struct {
	NATSURL     string `name:"nats-url" help:"NATS server receiving build events" env:"DOCSITE_NATS_URL"`
	NATSStream  string `name:"nats-stream" help:"JetStream stream created for build events (optional)"`
	NATSSubject string `name:"nats-subject" help:"Subject prefix for build events" default:"docsite.builds"`
	Concurrency int    `help:"Parallel file writes during emission" default:"8"`
}

// runtime holds the orchestrator and the resources it reports to.
type runtime struct {
	orch     *build.Orchestrator
	registry *prom.Registry
	closers  []func() error
	logger   *slog.Logger
}

func newRuntime(ctx context.Context, root *CLI, flags ObserverFlags, siteDir string, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{registry: prom.NewRegistry(), logger: logger}
	opts := []build.Option{
		build.WithLogger(logger),
		build.WithRecorder(metrics.NewPrometheusRecorder(rt.registry)),
		build.WithConcurrency(flags.Concurrency),
	}

	if root.HistoryDB != "" {
		store, err := openHistory(root.HistoryDB)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		opts = append(opts, build.WithHistory(store))
	}

	if flags.NATSURL != "" {
		pub, err := events.NewJetStreamPublisher(ctx, events.Options{
			URL:           flags.NATSURL,
			Stream:        flags.NATSStream,
			SubjectPrefix: flags.NATSSubject,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pub.Close)
		opts = append(opts, build.WithPublisher(pub))
	}

	repo, err := gitinfo.Open(siteDir)
	switch {
	case err == nil:
		opts = append(opts, build.WithGitInfo(repo))
	case errors.HasCategory(err, errors.CategoryNotFound):
		logger.Debug("Site is not in a git repository", logfields.Path(siteDir))
	default:
		logger.Warn("Git metadata unavailable", logfields.Path(siteDir), logfields.Error(err))
	}

	rt.orch = build.NewOrchestrator(builtin.NewRegistry(), opts...)
	return rt, nil
}

// Close releases the history store and event connection.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("Failed to close resource", logfields.Error(err))
		}
	}
	rt.closers = nil
}

func openHistory(path string) (*history.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "create history directory").
				WithPath(path).
				Build()
		}
	}
	return history.NewSQLiteStore(path)
}

// failureReport is the JSON document written to stderr when a build fails.
type failureReport struct {
	BuildID string        `json:"buildId,omitempty"`
	Locale  string        `json:"locale,omitempty"`
	Stage   build.State   `json:"stage"`
	Issues  []build.Issue `json:"issues"`
}

// writeIssues writes the stage and issues of a build failure as JSON. Errors
// that did not come from a build stage are left to the error adapter.
func writeIssues(w io.Writer, res *build.Result, err error) {
	var berr *build.Error
	if !stderrors.As(err, &berr) {
		return
	}
	report := failureReport{Stage: berr.Stage, Issues: berr.Issues}
	if res != nil {
		report.BuildID = res.BuildID
		report.Locale = res.Locale
	}
	data, mErr := json.MarshalIndent(report, "", "  ")
	if mErr != nil {
		return
	}
	_, _ = fmt.Fprintln(w, string(data))
}

// failedResult returns the result carrying err, if any.
func failedResult(results []*build.Result) *build.Result {
	for _, r := range results {
		if r != nil && r.Err != nil {
			return r
		}
	}
	return nil
}
