package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ObserverFlags `embed:""`

	Output      string   `short:"o" help:"Output directory, relative to the site directory" default:"build" env:"DOCSITE_OUTPUT"`
	Locale      []string `short:"l" help:"Locales to build (default: every configured locale)"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics to this textfile after the build" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	doc, siteDir, err := root.loadDocument()
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, root, b.ObserverFlags, siteDir, runLogger(g))
	if err != nil {
		return err
	}
	defer rt.Close()

	req := build.Request{
		Document:  doc,
		SourceDir: siteDir,
		OutputDir: resolveOutput(siteDir, b.Output),
		Locales:   b.Locale,
	}
	results, err := rt.orch.BuildLocales(ctx, req)

	if b.MetricsFile != "" {
		if mErr := metrics.WriteTextfile(rt.registry, b.MetricsFile); mErr != nil {
			runLogger(g).Warn("Failed to write metrics", logfields.Path(b.MetricsFile), logfields.Error(mErr))
		}
	}

	if err != nil {
		writeIssues(os.Stderr, failedResult(results), err)
		return err
	}
	printSummary(os.Stdout, results)
	return nil
}

func printSummary(w io.Writer, results []*build.Result) {
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s: %d routes, %d static files, %d warnings -> %s (%s)\n",
			r.Locale, r.Routes, r.StaticFiles, len(r.Warnings), r.OutputDir, r.Status)
	}
}

// runLogger returns the build logger of a command invocation.
func runLogger(g *Global) *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}
