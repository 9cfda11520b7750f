// Package internal provides the main application initialization and runtime logic.
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
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/api"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/filter"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/index"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/mcpserver"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/paperservice"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/sse"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/store"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/web"
)

// eventsPath is the page's event stream. It is public like the page itself;
// API clients use the authenticated /api/events.
const eventsPath = "/events"

func newApplication(opts ...Option) (*application, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger initializes the structured JSON logger.
func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func (a *application) newStore(logger *slog.Logger) *store.Store {
	cfg := a.config.Catalog
	src := store.NewSource(cfg.Source, cfg.FetchTimeout)
	return store.New(src, cfg.Schema, logger)
}

// watchCatalog runs the file watcher until ctx ends. Watching is best
// effort: a remote catalog or a watcher failure is logged, not fatal.
func watchCatalog(ctx context.Context, st *store.Store, logger *slog.Logger, cb store.EventCallback) {
	err := store.Watch(ctx, st, logger, cb)
	switch {
	case errors.Is(err, store.ErrNotWatchable):
		logger.Warn("catalog.watch ignored for remote source", slog.String("source", st.Source().Name()))
	case err != nil:
		logger.Error("catalog watcher failed", slog.String("error", err.Error()))
	}
}

// NewRouter builds the HTTP handler: health checks, the page, the raw
// catalog and the JSON API under /api.
func NewRouter(cfg *Config, svc *paperservice.Service, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		state := svc.Snapshot().State
		if state != store.StateLoaded {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, `{"status":%q}`, state)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	var events http.Handler
	if broker != nil {
		events = broker
	}
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events))

	pageEvents := ""
	if broker != nil {
		r.Get(eventsPath, broker.ServeHTTP)
		pageEvents = eventsPath
	}
	page := web.NewHandler(svc, cfg.App.Title, pageEvents)
	r.Get("/", page.Page)
	r.Get("/papers.json", page.Catalog)

	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_source", cfg.Catalog.Source),
		slog.String("catalog_schema", string(cfg.Catalog.Schema)),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st := app.newStore(logger)

	// Initialize SQLite index; it follows every loaded catalog version.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()
	st.Subscribe(paperservice.IndexListener(db, logger))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	st.Subscribe(func(snap *store.Snapshot) {
		switch snap.State {
		case store.StateLoaded:
			broker.PublishLoaded(snap.Count(), snap.Checksum, string(snap.Schema))
		case store.StateFailed:
			broker.PublishFailed(snap.Err)
		}
	})

	svc := paperservice.NewService(st, db)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewRouter(cfg, svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Load the catalog once, then follow the file if asked to.
	g.Go(func() error {
		_ = st.Load(gCtx)
		if cfg.Catalog.Watch {
			watchCatalog(gCtx, st, logger, func(_ *store.Snapshot, err error) {
				if err != nil {
					broker.PublishFailed(err)
				}
			})
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut down on signal or on the first failure.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...", slog.Int("event_clients", broker.ClientCount()))

		// Event streams never go idle on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the catalog tools over MCP stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	st := app.newStore(logger)
	srv := mcpserver.New(paperservice.NewService(st, nil))

	// A failed load is reported through the catalog_status tool.
	_ = st.Load(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if app.config.Catalog.Watch {
		g.Go(func() error {
			watchCatalog(gCtx, st, logger, nil)
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server starting on stdio")
		return srv.ServeStdio()
	})

	return g.Wait()
}

// Check loads the catalog once and writes a summary of it to w. It fails
// when the catalog cannot be loaded.
func Check(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	st := app.newStore(logger)
	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("catalog check failed: %w", err)
	}

	snap := st.Snapshot()
	fmt.Fprintf(w, "source:   %s\n", snap.Source)
	fmt.Fprintf(w, "schema:   %s\n", snap.Schema)
	fmt.Fprintf(w, "records:  %d\n", snap.Count())
	fmt.Fprintf(w, "checksum: %s\n", snap.Checksum)
	for _, facet := range snap.Schema.Facets() {
		values := filter.Options(snap.Records, facet)
		fmt.Fprintf(w, "%s (%d): %s\n", facet, len(values), strings.Join(values, ", "))
	}
	return nil
}
