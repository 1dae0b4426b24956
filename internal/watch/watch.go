// Package watch rebuilds a site when its sources change and, optionally, on
// a fixed schedule.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// DefaultDebounce coalesces bursts of file events into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Rebuild reasons passed to the RebuildFunc.
const (
	ReasonInitial   = "initial"
	ReasonChange    = "change"
	ReasonScheduled = "scheduled"
)

// RebuildFunc runs one build. Errors are logged and never stop the watcher.
type RebuildFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	// Paths are files or directories; directories are watched recursively.
	Paths []string
	// Ignore lists path prefixes whose events never trigger a rebuild.
	Ignore   []string
	Debounce time.Duration
	// Interval schedules periodic rebuilds; zero disables them.
	Interval time.Duration
	Logger   *slog.Logger
}

// Watcher serializes rebuilds triggered by file changes and the schedule.
type Watcher struct {
	opts      Options
	rebuild   RebuildFunc
	fsw       *fsnotify.Watcher
	scheduler gocron.Scheduler
	ticks     chan struct{}
	logger    *slog.Logger
}

// New creates a watcher over opts.Paths. Missing paths are skipped.
func New(opts Options, rebuild RebuildFunc) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		ignore = append(ignore, p)
	}
	opts.Ignore = ignore

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create file watcher").Build()
	}

	w := &Watcher{
		opts:    opts,
		rebuild: rebuild,
		fsw:     fsw,
		ticks:   make(chan struct{}, 1),
		logger:  logger,
	}

	for _, p := range opts.Paths {
		if err := w.add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	if opts.Interval > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			_ = fsw.Close()
			return nil, errors.WrapError(err, errors.CategoryInternal, "create scheduler").Build()
		}
		_, err = s.NewJob(
			gocron.DurationJob(opts.Interval),
			gocron.NewTask(w.tick),
			gocron.WithName("scheduled-rebuild"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = fsw.Close()
			_ = s.Shutdown()
			return nil, errors.WrapError(err, errors.CategoryInternal, "schedule periodic rebuild").Build()
		}
		w.scheduler = s
	}
	return w, nil
}

// Run performs an initial build and then rebuilds on every debounced change
// or scheduled tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()
	if w.scheduler != nil {
		w.scheduler.Start()
		defer func() { _ = w.scheduler.Shutdown() }()
		w.logger.Info("Scheduled periodic rebuilds", slog.Duration("interval", w.opts.Interval))
	}

	w.run(ctx, ReasonInitial)

	var timer *time.Timer
	var timerC <-chan time.Time
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			stopTimer()
			timer = time.NewTimer(w.opts.Debounce)
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		case <-timerC:
			timerC = nil
			w.run(ctx, ReasonChange)
		case <-w.ticks:
			w.run(ctx, ReasonScheduled)
		}
	}
}

func (w *Watcher) run(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	w.logger.Info("Rebuilding site", slog.String("reason", reason))
	if err := w.rebuild(ctx, reason); err != nil {
		w.logger.Error("Rebuild failed", slog.String("reason", reason), logfields.Error(err), logfields.Duration(time.Since(start)))
		return
	}
	w.logger.Info("Rebuild finished", slog.String("reason", reason), logfields.Duration(time.Since(start)))
}

func (w *Watcher) tick() {
	select {
	case w.ticks <- struct{}{}:
	default:
	}
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.logger.Debug("Skipping missing watch path", logfields.Path(path))
			return nil
		}
		return errors.WrapError(err, errors.CategoryFileSystem, "stat watch path").WithPath(path).Build()
	}
	if !info.IsDir() {
		// Watch the parent so editors that replace files keep working.
		return w.watchDir(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && (strings.HasPrefix(d.Name(), ".") || w.ignored(p)) {
			return filepath.SkipDir
		}
		return w.watchDir(p)
	})
}

func (w *Watcher) watchDir(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "watch directory").WithPath(dir).Build()
	}
	return nil
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return true
	}
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	return !w.ignored(event.Name)
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, prefix := range w.opts.Ignore {
		if abs == prefix || strings.HasPrefix(abs, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
