package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagecompiler/internal/build"
	"git.home.luguber.info/inful/pagecompiler/internal/cache"
	"git.home.luguber.info/inful/pagecompiler/internal/config"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/metrics"
	"git.home.luguber.info/inful/pagecompiler/internal/pageload"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
	"git.home.luguber.info/inful/pagecompiler/internal/server"
	"git.home.luguber.info/inful/pagecompiler/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr     string        `help:"Listen address (overrides server.addr)"`
	NoWatch  bool          `name:"no-watch" help:"Do not watch the content tree"`
	Static   bool          `help:"Serve modules from the last build's artifacts instead of compiling"`
	Debounce time.Duration `help:"Quiet period before applying content changes" default:"300ms"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		recorder       metrics.Recorder
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	c, err := newCompiler(cfg)
	if err != nil {
		return err
	}
	modules, closeCache, err := openCache(cfg, c, recorder)
	if err != nil {
		return err
	}
	defer closeCache()

	builder := &build.Builder{
		Config:   cfg,
		Compiler: c,
		Cache:    modules,
		Registry: routes.NewRegistry(build.FallbackFor(cfg), cfg.DefaultLocale),
		Recorder: recorder,
		Logger:   slog.Default(),
		Lenient:  !s.Static,
	}
	if _, err := builder.Index(ctx); err != nil {
		return err
	}

	loader := &pageload.Loader{Registry: builder.Registry, Modules: &pageload.CompilingLoader{Cache: modules}}
	if s.Static {
		al, err := pageload.NewArtifactLoader(cfg.OutputDir)
		if err != nil {
			return err
		}
		loader.Modules = al
	}

	if !s.NoWatch && !s.Static {
		w, err := watch.New(builder, s.Debounce)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("Watcher stopped", logfields.Error(err))
			}
		}()
	}

	srv := server.New(server.Options{
		Addr:          cfg.Server.Addr,
		DefaultLocale: cfg.DefaultLocale,
		Loader:        loader,
		Metrics:       metricsHandler,
		Logger:        slog.Default(),
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openCache creates the compile cache, backed by SQLite when configured,
// and starts periodic pruning. The returned func releases both.
func openCache(cfg *config.Config, c cache.Compiler, recorder metrics.Recorder) (*cache.Cache, func(), error) {
	opts := cache.Options{Recorder: recorder, Logger: slog.Default()}
	if cfg.Cache.SQLitePath != "" {
		store, err := cache.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		opts.Store = store
	}
	modules := cache.New(c, opts)
	pruner, err := modules.StartPruner(cfg.Cache.PruneInterval, cfg.Cache.MaxAge)
	if err != nil {
		_ = modules.Close()
		return nil, nil, err
	}
	return modules, func() {
		if err := pruner.Stop(); err != nil {
			slog.Warn("Failed to stop cache pruner", logfields.Error(err))
		}
		if err := modules.Close(); err != nil {
			slog.Warn("Failed to close cache", logfields.Error(err))
		}
	}, nil
}
