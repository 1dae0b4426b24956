package build

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/emit"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// sharedStage is a staging directory shared by the locale builds of one
// BuildLocales call. It is created by the first build that reaches Emitting.
type sharedStage struct {
	dir    string
	logger *slog.Logger

	once   sync.Once
	stager *emit.Stager
	err    error
}

func (s *sharedStage) get() (*emit.Stager, error) {
	s.once.Do(func() {
		s.stager, s.err = emit.Begin(s.dir, s.logger)
	})
	return s.stager, s.err
}

// BuildLocales builds every configured locale, or req.Locales when set, in
// parallel. Each build resolves its own copy of the configuration. The default
// locale is written to the output root and every other locale under
// /<locale>/. Output is promoted only when every locale succeeded.
//
// When the configuration itself is invalid a single build reports the
// failure so the issue list is not repeated per locale.
func (o *Orchestrator) BuildLocales(ctx context.Context, req Request) ([]*Result, error) {
	if req.BuildID == "" {
		req.BuildID = o.newID()
	}

	locales := uniqueLocales(req.Locales)
	if len(locales) == 0 {
		if req.Document == nil || req.Document.Root == nil {
			res, err := o.run(ctx, req, nil)
			return []*Result{res}, err
		}
		site, err := config.Resolve(req.Document.Root)
		if err != nil {
			res, runErr := o.run(ctx, req, nil)
			return []*Result{res}, runErr
		}
		locales = site.I18n.Locales
	}

	shared := &sharedStage{dir: req.OutputDir, logger: o.logger}
	results := make([]*Result, len(locales))

	g, gctx := errgroup.WithContext(ctx)
	for i, locale := range locales {
		g.Go(func() error {
			r := req
			r.Locale = locale
			res, err := o.run(gctx, r, shared)
			results[i] = res
			return err
		})
	}
	err := g.Wait()

	if shared.stager == nil {
		return results, err
	}
	if err != nil {
		shared.stager.Abort()
		return results, err
	}
	if err := shared.stager.Commit(); err != nil {
		o.logger.Error("Failed to promote site output", logfields.BuildID(req.BuildID), logfields.Error(err))
		return results, newError(StateEmitting, nil, err)
	}
	return results, nil
}

// uniqueLocales drops repeated locales, keeping the first occurrence, so two
// builds never write the same paths into one staging directory.
func uniqueLocales(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, l := range in {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
