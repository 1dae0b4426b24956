package commands

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	ObserverFlags `embed:""`

	Output        string        `short:"o" help:"Output directory, relative to the site directory" default:"build" env:"DOCSITE_OUTPUT"`
	Locale        []string      `short:"l" help:"Locales to build (default: every configured locale)"`
	Debounce      time.Duration `help:"Quiet period after a change before rebuilding" default:"300ms"`
	Interval      time.Duration `help:"Also rebuild on this interval, for sources outside the watched tree (0 disables)" default:"0s"`
	MetricsListen string        `name:"metrics-listen" help:"Serve Prometheus metrics on this address (e.g. :9102)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	logger := runLogger(g)

	// The first load fixes the site directory; every rebuild reloads the file.
	doc, siteDir, err := root.loadDocument()
	if err != nil {
		return err
	}
	cfgPath := doc.Path
	rt, err := newRuntime(ctx, root, w.ObserverFlags, siteDir, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if w.MetricsListen != "" {
		srv := &http.Server{Addr: w.MetricsListen, ReadHeaderTimeout: 5 * time.Second}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(rt.registry))
		srv.Handler = mux
		go func() {
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("Serving metrics", "addr", w.MetricsListen)
	}

	output := resolveOutput(siteDir, w.Output)
	ignore := []string{output, output + "_stage", output + ".prev"}
	if root.HistoryDB != "" {
		db := root.HistoryDB
		ignore = append(ignore, db, db+"-journal", db+"-wal", db+"-shm")
	}

	rebuild := func(ctx context.Context, _ string) error {
		doc, err := config.LoadFile(cfgPath)
		if err != nil {
			return err
		}
		req := build.Request{Document: doc, SourceDir: siteDir, OutputDir: output, Locales: w.Locale}
		results, err := rt.orch.BuildLocales(ctx, req)
		if err != nil {
			writeIssues(os.Stderr, failedResult(results), err)
			return err
		}
		printSummary(os.Stdout, results)
		return nil
	}

	watcher, err := watch.New(watch.Options{
		Paths:    []string{siteDir},
		Ignore:   ignore,
		Debounce: w.Debounce,
		Interval: w.Interval,
		Logger:   logger,
	}, rebuild)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "start watcher").Build()
	}
	logger.Info("Watching site sources", logfields.Path(siteDir))
	return watcher.Run(ctx)
}
