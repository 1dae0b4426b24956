package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/emit"
	"git.home.luguber.info/inful/docsite/internal/events"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/gitinfo"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/linkcheck"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/manifest"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/nav"
	"git.home.luguber.info/inful/docsite/internal/plugin"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// SourceInfo supplies source control metadata for the site sources.
type SourceInfo interface {
	plugin.LastUpdateSource
	Head() (gitinfo.Head, error)
}

// Orchestrator runs builds against a plugin registry.
type Orchestrator struct {
	registry    *plugin.Registry
	recorder    metrics.Recorder
	history     history.Store
	publisher   events.Publisher
	source      SourceInfo
	logger      *slog.Logger
	clock       func() time.Time
	newID       func() string
	concurrency int
}

var _ Service = (*Orchestrator)(nil)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithHistory records every build outcome and transition in store.
func WithHistory(store history.Store) Option {
	return func(o *Orchestrator) { o.history = store }
}

// WithPublisher publishes build lifecycle events.
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithGitInfo supplies last update times and the source commit.
func WithGitInfo(src SourceInfo) Option {
	return func(o *Orchestrator) { o.source = src }
}

// WithLogger sets the build logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now, for copyright years and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithConcurrency bounds parallel file writes during emission.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// NewOrchestrator creates an orchestrator resolving plugins from registry.
func NewOrchestrator(registry *plugin.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  registry,
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		clock:     time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run builds one locale. The default locale is written to req.OutputDir,
// other locales to req.OutputDir/<locale>.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if req.BuildID == "" {
		req.BuildID = o.newID()
	}
	return o.run(ctx, req, nil)
}

// Check runs the validation, merge and plugin resolution stages for the
// default locale without assembling or writing anything. It returns the
// resolved plugin names.
func (o *Orchestrator) Check(ctx context.Context, doc *config.Document) ([]string, error) {
	b := &buildRun{
		o:      o,
		req:    Request{Document: doc},
		res:    &Result{},
		logger: o.logger,
		octx:   context.WithoutCancel(ctx),
	}
	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateValidating, b.validate},
		{StateMerging, b.merge},
		{StateResolvingPlugins, b.resolve},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, newError(step.state, b.site, err)
		}
		if err := step.fn(ctx); err != nil {
			return nil, newError(step.state, b.site, err)
		}
	}
	return b.res.Plugins, nil
}

// buildRun is the mutable state of one locale build.
type buildRun struct {
	o      *Orchestrator
	req    Request
	res    *Result
	m      *machine
	logger *slog.Logger
	// octx outlives cancellation so failures can still be recorded.
	octx   context.Context
	shared *sharedStage

	partial  *config.SiteConfig
	site     *config.SiteConfig
	locale   string
	pipeline *plugin.Pipeline
	pages    []*render.Page
	static   []string
}

func (o *Orchestrator) run(ctx context.Context, req Request, shared *sharedStage) (*Result, error) {
	start := o.clock()
	b := &buildRun{
		o:      o,
		req:    req,
		res:    &Result{BuildID: req.BuildID, Locale: req.Locale, State: StateIdle, StartTime: start},
		logger: o.logger.With(logfields.BuildID(req.BuildID)),
		octx:   context.WithoutCancel(ctx),
		shared: shared,
		locale: req.Locale,
	}
	b.m = newMachine(b.observe)

	b.logger.Info("Build started", logfields.Locale(req.Locale), slog.String("source", req.SourceDir))
	o.publish(b.octx, events.Event{Type: events.TypeStarted, BuildID: req.BuildID, Locale: req.Locale, State: string(StateIdle)})

	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateValidating, b.validate},
		{StateMerging, b.merge},
		{StateResolvingPlugins, b.resolve},
		{StateAssembling, b.assemble},
		{StateEmitting, b.emit},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return b.fail(step.state, err)
		}
		if err := b.m.transition(step.state); err != nil {
			return b.fail(step.state, errors.WrapError(err, errors.CategoryInternal, "state machine").Build())
		}
		stageStart := time.Now()
		err := step.fn(ctx)
		o.recorder.ObserveStageDuration(string(step.state), time.Since(stageStart))
		if err != nil {
			return b.fail(step.state, err)
		}
		result := metrics.ResultSuccess
		if step.state == StateAssembling && len(b.res.Warnings) > 0 {
			result = metrics.ResultWarning
		}
		o.recorder.IncStageResult(string(step.state), result)
	}

	if err := b.m.transition(StateDone); err != nil {
		return b.fail(StateEmitting, errors.WrapError(err, errors.CategoryInternal, "state machine").Build())
	}
	b.res.State = StateDone
	b.res.Status = StatusSuccess
	if len(b.res.Warnings) > 0 {
		b.res.Status = StatusWarning
	}
	b.finish()
	b.logger.Info("Build finished",
		logfields.Locale(b.locale),
		slog.String("status", string(b.res.Status)),
		logfields.Count(b.res.Routes),
		logfields.Path(b.res.OutputDir),
		logfields.Duration(b.res.Duration))
	return b.res, nil
}

func (b *buildRun) validate(context.Context) error {
	doc := b.req.Document
	if doc == nil || doc.Root == nil {
		return errors.ConfigError("configuration document is required").Build()
	}
	cfg, err := config.Validate(doc.Root)
	if err != nil {
		return err
	}
	b.partial = cfg
	return nil
}

func (b *buildRun) merge(context.Context) error {
	site, err := config.Merge(config.Defaults(), b.partial)
	if err != nil {
		return err
	}
	if b.locale == "" {
		b.locale = site.I18n.DefaultLocale
	}
	if !slices.Contains(site.I18n.Locales, b.locale) {
		return &config.SchemaValidationError{Violations: []config.Violation{{
			Field:    "i18n.locales",
			Expected: "one of " + fmt.Sprint(site.I18n.Locales),
			Actual:   b.locale,
			Message:  fmt.Sprintf("locale %q is not configured", b.locale),
		}}}
	}
	b.res.Locale = b.locale
	b.site = site.ForLocale(b.locale)
	b.logger = b.logger.With(logfields.Locale(b.locale))
	return nil
}

func (b *buildRun) resolve(context.Context) error {
	pipeline, err := b.o.registry.ResolveSite(b.site)
	if err != nil {
		return err
	}
	b.pipeline = pipeline
	b.res.Plugins = pipeline.Names()
	b.logger.Debug("Resolved plugins", slog.Any("plugins", b.res.Plugins))
	return nil
}

func (b *buildRun) assemble(ctx context.Context) error {
	bc := plugin.NewBuildContext(b.site, b.locale, b.req.SourceDir, b.req.BuildID, b.logger)
	bc.Now = b.res.StartTime
	if b.o.source != nil {
		bc.LastUpdates = b.o.source
	}

	routes, err := b.pipeline.ContributeRoutes(ctx, bc)
	if err != nil {
		return err
	}
	perPlugin := make(map[string]int)
	for _, r := range routes {
		perPlugin[r.Plugin]++
	}
	for name, n := range perPlugin {
		b.o.recorder.AddRoutes(name, n)
	}

	navigation, err := nav.Assemble(b.site, routes, b.pipeline.NavbarItems(), b.o.clock)
	if err != nil {
		return err
	}

	renderer := render.New(b.site, b.locale, navigation, routes, b.pipeline.Stylesheets(), b.req.SourceDir)
	pages, err := renderer.RenderAll(ctx, routes)
	if err != nil {
		return err
	}

	b.static = b.staticDirs()
	index := linkcheck.NewIndex(b.site.BaseURL)
	for _, dir := range b.static {
		files, err := emit.ListStatic(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			index.AddFile("/" + f)
		}
	}
	for _, p := range pages {
		if !isHTMLPage(p.Route) {
			index.AddFile(p.Route.Path)
			continue
		}
		if err := index.AddPage(p.Route.Path, p.HTML); err != nil {
			return &render.Error{Route: p.Route.Path, Err: err}
		}
	}

	var broken []linkcheck.Broken
	for _, p := range pages {
		if !isHTMLPage(p.Route) {
			continue
		}
		found, err := index.Check(p.Route.Path, p.HTML)
		if err != nil {
			return &render.Error{Route: p.Route.Path, Err: err}
		}
		// Unresolved markdown links keep their file href; report them once,
		// under the markdown link policy.
		unresolved := make(map[string]bool, len(p.UnresolvedLinks))
		for _, target := range p.UnresolvedLinks {
			if !unresolved[target] {
				unresolved[target] = true
				broken = append(broken, linkcheck.Broken{Kind: linkcheck.KindMarkdown, Source: p.Route.Path, Target: target})
			}
		}
		for _, br := range found {
			if !unresolved[br.Target] {
				broken = append(broken, br)
			}
		}
	}
	perKind := make(map[linkcheck.Kind]int)
	for _, br := range broken {
		perKind[br.Kind]++
	}
	for kind, n := range perKind {
		b.o.recorder.AddBrokenLinks(string(kind), n)
	}

	warnings, err := linkcheck.Apply(linkcheck.PoliciesFor(b.site), broken, b.logger)
	b.res.Warnings = warnings
	if err != nil {
		return err
	}
	b.pages = pages
	return nil
}

func (b *buildRun) emit(ctx context.Context) (err error) {
	stager, prefix, own, err := b.stager()
	if err != nil {
		return err
	}
	if own {
		defer func() {
			if err != nil {
				stager.Abort()
			}
		}()
	}
	stager.SetConcurrency(b.o.concurrency)

	staticCount, err := stager.CopyStatic(ctx, prefix, b.static)
	if err != nil {
		return err
	}

	m := &manifest.BuildManifest{
		ID:        b.req.BuildID,
		Locale:    b.locale,
		BaseURL:   b.site.BaseURL,
		Timestamp: b.res.StartTime.UTC(),
		Inputs: manifest.Inputs{
			ConfigPath: b.req.Document.Path,
			ConfigHash: b.req.Document.Hash,
		},
		Plugins: b.res.Plugins,
		Status:  string(StatusSuccess),
	}
	if b.o.source != nil {
		if head, herr := b.o.source.Head(); herr == nil {
			m.Inputs.SourceCommit = head.Commit
			m.Inputs.SourceBranch = head.Branch
			m.Inputs.SourceDirty = head.Dirty
		} else {
			b.logger.Warn("Failed to read source revision", logfields.Error(herr))
		}
	}

	files := make([]emit.File, 0, len(b.pages)+1)
	for _, p := range b.pages {
		file := p.Route.OutputFile()
		files = append(files, emit.File{Path: file, Data: p.HTML})
		m.AddRoute(p.Route.Path, file, string(p.Route.Kind), p.Route.Plugin, p.Route.DocID, p.HTML)
	}
	for _, w := range b.res.Warnings {
		m.Warnings = append(m.Warnings, w.String())
	}
	if len(m.Warnings) > 0 {
		m.Status = string(StatusWarning)
	}
	m.Seal(staticCount)
	m.Duration = b.o.clock().Sub(b.res.StartTime).Milliseconds()

	data, err := m.ToJSON()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode manifest").Build()
	}
	files = append(files, emit.File{Path: manifest.FileName, Data: data})

	if err := stager.WriteFiles(ctx, prefix, files); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if own {
		if err := stager.Commit(); err != nil {
			return err
		}
	}

	b.o.recorder.SetEmittedFiles(b.locale, len(files)+staticCount)
	b.res.OutputDir = filepath.Join(stager.OutputDir(), prefix)
	b.res.Manifest = m
	b.res.Routes = len(b.pages)
	b.res.StaticFiles = staticCount
	return nil
}

// stager returns the stager and path prefix of this build. A standalone run
// owns a stager on its own output directory.
func (b *buildRun) stager() (*emit.Stager, string, bool, error) {
	if b.shared != nil {
		s, err := b.shared.get()
		if err != nil {
			return nil, "", false, err
		}
		prefix := ""
		if b.locale != b.site.I18n.DefaultLocale {
			prefix = b.locale
		}
		return s, prefix, false, nil
	}
	dir := b.req.OutputDir
	if b.locale != b.site.I18n.DefaultLocale {
		dir = filepath.Join(dir, b.locale)
	}
	s, err := emit.Begin(dir, b.logger)
	if err != nil {
		return nil, "", false, err
	}
	return s, "", true, nil
}

func (b *buildRun) staticDirs() []string {
	dirs := make([]string, 0, len(b.site.StaticDirectories))
	for _, d := range b.site.StaticDirectories {
		if !filepath.IsAbs(d) {
			d = filepath.Join(b.req.SourceDir, d)
		}
		dirs = append(dirs, d)
	}
	return dirs
}

func (b *buildRun) fail(stage State, err error) (*Result, error) {
	berr := newError(stage, b.site, err)
	if b.m.state.CanTransition(StateFailed) {
		_ = b.m.transition(StateFailed)
	}
	b.res.Err = berr
	b.res.State = StateFailed
	b.res.Status = StatusFailed
	if Canceled(err) {
		b.res.Status = StatusCanceled
		b.o.recorder.IncStageResult(string(stage), metrics.ResultCanceled)
	} else {
		b.o.recorder.IncStageResult(string(stage), metrics.ResultFatal)
	}
	b.finish()

	b.logger.Error("Build failed",
		logfields.Stage(string(stage)),
		logfields.Count(len(berr.Issues)),
		logfields.Error(err),
		logfields.Duration(b.res.Duration))
	return b.res, berr
}

func (b *buildRun) finish() {
	o := b.o
	b.res.EndTime = o.clock()
	b.res.Duration = b.res.EndTime.Sub(b.res.StartTime)
	b.res.Transitions = append([]Transition(nil), b.m.history...)

	o.recorder.ObserveBuildDuration(b.res.Duration)
	o.recorder.IncBuildOutcome(outcomeLabel(b.res.Status))

	issues := b.res.Issues()
	if o.history != nil {
		entry := history.Entry{
			BuildID:   b.res.BuildID,
			Locale:    b.res.Locale,
			Status:    string(b.res.Status),
			StartedAt: b.res.StartTime,
			Duration:  b.res.Duration,
			OutputDir: b.res.OutputDir,
			Routes:    b.res.Routes,
			Warnings:  len(b.res.Warnings),
		}
		if b.req.Document != nil {
			entry.ConfigHash = b.req.Document.Hash
		}
		if b.res.Manifest != nil {
			entry.ContentHash = b.res.Manifest.Outputs.ContentHash
		}
		if b.res.Err != nil {
			entry.FailedStage = string(b.res.Err.Stage)
		}
		for _, is := range issues {
			entry.Issues = append(entry.Issues, history.Issue{Stage: string(is.Stage), Field: is.Field, Message: is.Message})
		}
		if err := o.history.Record(b.octx, entry); err != nil {
			b.logger.Warn("Failed to record build history", logfields.Error(err))
		}
	}

	ev := events.Event{
		Type:     events.TypeCompleted,
		BuildID:  b.res.BuildID,
		Locale:   b.res.Locale,
		State:    string(b.res.State),
		Routes:   b.res.Routes,
		Warnings: len(b.res.Warnings),
	}
	if b.res.Err != nil {
		ev.Type = events.TypeFailed
		for _, is := range issues {
			ev.Issues = append(ev.Issues, events.Issue{Stage: string(is.Stage), Field: is.Field, Message: is.Message})
		}
	}
	o.publish(b.octx, ev)
}

func (b *buildRun) observe(from, to State) {
	b.logger.Debug("Build state transition", slog.String("from", string(from)), logfields.State(string(to)))
	at := b.o.clock()
	if b.o.history != nil {
		t := history.Transition{BuildID: b.req.BuildID, Locale: b.locale, From: string(from), To: string(to), At: at}
		if err := b.o.history.RecordTransition(b.octx, t); err != nil {
			b.logger.Warn("Failed to record build transition", logfields.Error(err))
		}
	}
	b.o.publish(b.octx, events.Event{
		Type:      events.TypeTransition,
		BuildID:   b.req.BuildID,
		Locale:    b.locale,
		From:      string(from),
		State:     string(to),
		Timestamp: at,
	})
}

func (o *Orchestrator) publish(ctx context.Context, e events.Event) {
	if err := o.publisher.Publish(ctx, e); err != nil {
		o.logger.Warn("Failed to publish build event",
			logfields.BuildID(e.BuildID),
			slog.String("type", string(e.Type)),
			logfields.Error(err))
	}
}

func outcomeLabel(s Status) metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess:
		return metrics.BuildOutcomeSuccess
	case StatusWarning:
		return metrics.BuildOutcomeWarning
	case StatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}

func isHTMLPage(r plugin.Route) bool {
	return r.Kind != plugin.RouteAsset && r.Format != plugin.FormatRaw
}
