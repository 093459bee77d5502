package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"projects-dashboard/internal/config"
	"projects-dashboard/internal/middleware"
	"projects-dashboard/internal/observability"
	"projects-dashboard/internal/server"
	"projects-dashboard/internal/services"
	"projects-dashboard/internal/ui/templates"
)

const (
	version         = "1.0.0"
	renderTimeout   = 10 * time.Second
	generateTimeout = 30 * time.Second
	janitorInterval = time.Minute
)

func newDashboardHandler(analytics *services.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")

		props := templates.DashboardProps{
			Managers: analytics.View().Managers(),
			Selected: services.AllManagers,
		}
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newMiddleware orders the chain outermost first. Tracing wraps Logger so the
// request log line carries the trace id.
func newMiddleware(cfg *config.Config, logger *slog.Logger, limiter *middleware.RateLimiter) middleware.Middleware {
	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(logger),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Active projects dashboard over synthetic pipeline data",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set CONFIG_FILE)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	root.AddCommand(serveCmd)
	root.AddCommand(newExportCmd(&configPath))
	return root
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"seed", cfg.Generator.Seed,
		"refresh_interval", cfg.Generator.RefreshInterval,
	)

	analytics := services.NewAnalytics(
		services.WithSeed(cfg.Generator.Seed),
		services.WithCounts(cfg.Generator.Counts),
		services.WithLogger(logger),
	)

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	if err := analytics.Regenerate(genCtx); err != nil {
		return fmt.Errorf("initial data generation: %w", err)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: newDashboardHandler(analytics),
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	handler := newMiddleware(cfg, logger, rateLimiter)(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	workers.Add(1)
	go func() {
		defer workers.Done()
		rateLimiter.RunJanitor(bgCtx, janitorInterval)
	}()

	if cfg.Generator.RefreshInterval > 0 {
		workers.Add(1)
		go func() {
			defer workers.Done()
			analytics.AutoRefresh(bgCtx, cfg.Generator.RefreshInterval)
		}()
	}

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("stopping background workers")
		stopBackground()

		done := make(chan struct{})
		go func() {
			workers.Wait()
			close(done)
		}()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		stopBackground()
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
