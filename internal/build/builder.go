package build

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagecompiler/internal/artifact"
	"git.home.luguber.info/inful/pagecompiler/internal/cache"
	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/config"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/metrics"
	"git.home.luguber.info/inful/pagecompiler/internal/pagemap"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

// Builder runs builds for one configuration.
type Builder struct {
	Config   *config.Config
	Compiler *compile.Compiler
	// Cache, when set, serves front matter and full compiles.
	Cache *cache.Cache
	// Registry, when set, receives the snapshot of a successful run.
	Registry *routes.Registry
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// Lenient turns front matter failures into diagnostics.
	Lenient bool
}

// State is shared by the stages of one run.
type State struct {
	cfg      *config.Config
	builder  *Builder
	logger   *slog.Logger
	recorder metrics.Recorder

	Report   *Report
	Scan     *scan.Result
	PageMaps map[string]*pagemap.PageMap
	Snapshot *routes.Snapshot
	Manifest *artifact.Manifest

	staging *artifact.Staging
	writer  *artifact.Writer
}

// Result is the outcome of a run.
type Result struct {
	Report   *Report
	Snapshot *routes.Snapshot
	Manifest *artifact.Manifest
}

func (b *Builder) newState() *State {
	id := uuid.NewString()
	return &State{
		cfg:      b.Config,
		builder:  b,
		logger:   stageLogger(b.Logger).With(logfields.BuildID(id)),
		recorder: metrics.OrNoop(b.Recorder),
		Report:   newReport(id, b.Config.EffectiveLocales()),
		PageMaps: map[string]*pagemap.PageMap{},
	}
}

// IndexStages scan the content tree and compile route tables.
func IndexStages() []StageDef {
	return []StageDef{
		{StageScan, stageScan},
		{StagePageMap, stagePageMap},
		{StageRoutes, stageRoutes},
	}
}

// BuildStages is the full one-shot pipeline.
func BuildStages() []StageDef {
	return append(IndexStages(),
		StageDef{StagePrepareOutput, stagePrepareOutput},
		StageDef{StageCompile, stageCompile},
		StageDef{StageFinalize, stageFinalize},
	)
}

// Index runs the index stages and publishes the snapshot.
func (b *Builder) Index(ctx context.Context) (*Result, error) {
	return b.run(ctx, IndexStages())
}

// Build runs every stage. On failure the output directory is left as it
// was and nothing is published.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	return b.run(ctx, BuildStages())
}

func (b *Builder) run(ctx context.Context, defs []StageDef) (*Result, error) {
	st := b.newState()
	st.logger.Info("Build started", logfields.Count(len(defs)))

	err := RunStages(ctx, st, defs)
	st.Report.Finish()
	st.recorder.ObserveBuildDuration(st.Report.Duration())
	st.recorder.IncBuildOutcome(st.Report.outcomeLabel())

	res := &Result{Report: st.Report}
	if err != nil {
		if st.staging != nil {
			st.staging.Abort()
		}
		st.logger.Error("Build failed", slog.String("summary", st.Report.Summary()), logfields.Error(err))
		return res, err
	}

	res.Snapshot = st.Snapshot
	res.Manifest = st.Manifest
	if st.Manifest != nil {
		if perr := st.Report.Persist(b.Config.OutputDir); perr != nil {
			st.logger.Warn("Failed to persist build report", logfields.Error(perr))
		}
	}
	if b.Registry != nil {
		b.Registry.Publish(st.Snapshot)
	}
	for locale, n := range st.Report.Routes {
		st.recorder.SetRoutes(locale, n)
	}
	st.logger.Info("Build complete", slog.String("summary", st.Report.Summary()))
	return res, nil
}

// PageMapBuilder returns the page map builder for the configuration. The
// watcher uses the same settings for splices.
func (b *Builder) PageMapBuilder() *pagemap.Builder {
	var src pagemap.FrontMatterSource = b.Compiler
	if b.Cache != nil {
		src = b.Cache
	}
	return &pagemap.Builder{
		Source:      src,
		IndexName:   b.Config.IndexName,
		Concurrency: b.Config.Concurrency,
		Lenient:     b.Lenient,
		Logger:      b.Logger,
	}
}

// ScanOptions returns the scanner options for the configuration.
func (b *Builder) ScanOptions() scan.Options {
	return scan.Options{Locales: b.Config.Locales, MetaBaseName: b.Config.MetaFile, Logger: b.Logger}
}

func stageScan(ctx context.Context, st *State) error {
	res, err := scan.Scan(ctx, st.cfg.ContentDir, st.builder.ScanOptions())
	if err != nil {
		return err
	}
	st.Scan = res
	for _, d := range res.Roots {
		st.Report.Documents += len(d.Documents())
	}
	return nil
}

func stagePageMap(ctx context.Context, st *State) error {
	pb := st.builder.PageMapBuilder()
	for _, locale := range st.cfg.EffectiveLocales() {
		root, ok := st.Scan.Roots[locale]
		if !ok {
			return fmt.Errorf("no scanned tree for locale %q", locale)
		}
		pm, diags, err := pb.Build(ctx, root, locale)
		if err != nil {
			return err
		}
		for _, d := range diags {
			st.logger.Warn("Page map diagnostic", logfields.Locale(locale), slog.String("diagnostic", d.String()))
			st.Report.Diagnostics = append(st.Report.Diagnostics, d.String())
		}
		st.PageMaps[locale] = pm
	}
	return nil
}

func stageRoutes(_ context.Context, st *State) error {
	snap, err := routes.NewSnapshot(st.cfg.EffectiveLocales(), st.PageMaps)
	if err != nil {
		return err
	}
	st.Snapshot = snap
	for locale, t := range snap.Tables {
		st.Report.Routes[locale] = t.Len()
	}
	return nil
}

func stagePrepareOutput(_ context.Context, st *State) error {
	s, err := artifact.BeginStaging(st.cfg.OutputDir)
	if err != nil {
		return err
	}
	st.staging = s
	st.writer = artifact.NewWriter(s.Dir(), st.Report.BuildID, st.cfg.EffectiveLocales())
	return nil
}

func stageCompile(ctx context.Context, st *State) error {
	g, gctx := errgroup.WithContext(ctx)
	if st.cfg.Concurrency > 0 {
		g.SetLimit(st.cfg.Concurrency)
	}
	for _, locale := range st.Snapshot.Locales {
		if err := st.writer.WritePageMap(locale, st.Snapshot.PageMaps[locale], st.Snapshot.Tables[locale]); err != nil {
			return err
		}
	}

	var modules atomic.Int64
	for _, locale := range st.Snapshot.Locales {
		table := st.Snapshot.Tables[locale]
		for _, route := range table.Routes() {
			path, _ := table.Lookup(route)
			g.Go(func() error {
				m, err := st.compileFile(gctx, path, locale)
				if err != nil {
					return err
				}
				if err := st.writer.WriteModule(locale, route, m); err != nil {
					return err
				}
				modules.Add(1)
				return nil
			})
		}
	}
	err := g.Wait()
	st.Report.Modules = int(modules.Load())
	return err
}

func (st *State) compileFile(ctx context.Context, path, locale string) (*compile.Module, error) {
	src, err := scan.ReadSource(path, locale)
	if err != nil {
		return nil, err
	}
	if st.builder.Cache != nil {
		return st.builder.Cache.Get(ctx, src, compile.ModeFull)
	}
	start := time.Now()
	m, err := st.builder.Compiler.Compile(ctx, src)
	st.recorder.ObserveCompileDuration(string(compile.ModeFull), time.Since(start))
	if err != nil {
		st.recorder.IncCompileResult(string(compile.ModeFull), metrics.ResultFatal)
		return nil, err
	}
	st.recorder.IncCompileResult(string(compile.ModeFull), metrics.ResultSuccess)
	return m, nil
}

func stageFinalize(_ context.Context, st *State) error {
	m, err := st.writer.Finish(time.Since(st.Report.Start))
	if err != nil {
		return err
	}
	if err := st.staging.Promote(); err != nil {
		return err
	}
	st.Manifest = m
	return nil
}
