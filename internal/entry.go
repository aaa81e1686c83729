// Package internal wires the application together: one entry point per mode
// (serve, check, build, mcp), all driven by the same config.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// reloadThrottle bounds how often preview clients are told to refresh.
const reloadThrottle = 2 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.Level(),
	}))
}

// openTrees ensures the content and static directories exist and returns
// providers over them.
func openTrees(cfg *Config) (docs, static storage.Provider, err error) {
	if err := os.MkdirAll(cfg.Content.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create content dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Content.StaticDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create static dir: %w", err)
	}
	docs, err = storage.NewFS(cfg.Content.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init content storage: %w", err)
	}
	static, err = storage.NewFS(cfg.Content.StaticDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init static storage: %w", err)
	}
	return docs, static, nil
}

// Run starts the authoring server: REST API, SSE live reload, HTML preview,
// static file serving, and the index watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("static_dir", cfg.Content.StaticDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel))

	docs, static, err := openTrees(cfg)
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, docs, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(reloadThrottle)
	defer broker.Close()

	svc := docservice.New(docs, db, lint.New(docs, static), broker)
	renderer := render.New(render.Site{Title: cfg.Site.Title, BaseURL: cfg.Site.BaseURL})

	registry := prometheus.NewRegistry()
	metrics, err := api.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	assets := api.NewAssetHandler(cfg.Content.StaticDir)
	preview := api.NewPreviewHandler(svc, renderer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	// Health and metrics (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Ready(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Rendered preview and assets (unauthenticated).
	r.Get("/preview", preview.Index)
	r.Get("/preview/*", preview.Doc)
	r.Get("/static/*", assets.ServeAsset)

	// API routes, including SSE and asset upload, behind optional auth.
	r.Mount("/api", api.NewRouter(svc, renderer, cfg.Auth.Enabled, cfg.Auth.Token, broker, assets))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the content tree so external edits reach the index and the
	// preview clients.
	g.Go(func() error {
		return index.Watch(gCtx, db, docs, cfg.Content.Dir, logger, broker.PublishDocEvent)
	})

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// Check lints the corpus against the authoring contract and prints findings
// to stdout. It returns an error when the corpus has lint errors, or, in
// strict mode, any findings at all.
func Check(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	docs, static, err := openTrees(cfg)
	if err != nil {
		return err
	}

	report, err := lint.New(docs, static).Corpus()
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	for _, f := range report.Findings {
		fmt.Printf("%s:%d: %s: %s [%s]\n", f.Path, f.Line, f.Severity, f.Message, f.Rule)
	}
	fmt.Printf("%d documents checked: %d errors, %d warnings\n",
		report.Docs, report.Errors, report.Warnings)

	if report.HasErrors() {
		return fmt.Errorf("check failed: %d errors", report.Errors)
	}
	if app.strict && report.Warnings > 0 {
		return fmt.Errorf("check failed (strict): %d warnings", report.Warnings)
	}
	return nil
}

// BuildSite renders the corpus to a static HTML site.
func BuildSite(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	docs, _, err := openTrees(cfg)
	if err != nil {
		return err
	}

	outDir := app.outDir
	if outDir == "" {
		outDir = "public"
	}

	site := render.Site{Title: cfg.Site.Title, BaseURL: cfg.Site.BaseURL}
	if err := render.Build(site, docs, cfg.Content.StaticDir, outDir, app.drafts, logger); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	logger.Info("site built", slog.String("out", outDir))
	return nil
}

// ServeMCP exposes the corpus to editor agents over MCP stdio. Logs go to
// stderr; stdout carries the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	docs, static, err := openTrees(cfg)
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, docs, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := docservice.New(docs, db, lint.New(docs, static), nil)
	srv := mcpserver.New(svc, static)

	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
