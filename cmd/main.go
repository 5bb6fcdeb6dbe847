package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/medtracker/internal/adapters/http/api"
	"github.com/okian/medtracker/internal/adapters/http/site"
	"github.com/okian/medtracker/internal/adapters/http/swagger"
	app "github.com/okian/medtracker/internal/app"
	"github.com/okian/medtracker/internal/config"
	"github.com/okian/medtracker/pkg/logger"
	"github.com/okian/medtracker/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	// writeSlack leaves room past the Overpass timeout to write the 502.
	writeSlack                = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("medtracker: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithFile(cfg.LogFile)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	)

	svc := app.New(app.WithConfig(cfg), app.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if metrics.Enabled() {
		go startSystemMetricsUpdater(ctx, metrics.RefreshInterval())
	}

	if path := os.Getenv(config.EnvConfigPath); cfg.WatchConfig && path != "" {
		go watchConfig(ctx, path)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.OverpassTimeout() + writeSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newHandler builds the full route table wrapped in the API middleware chain.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc, svc,
		api.WithLimits(api.Limits{
			MaxSymptoms:         cfg.MaxSymptoms,
			HistoryLimit:        cfg.HistoryLimit,
			MaxQueryLength:      cfg.MaxQueryLength,
			DefaultRadiusMeters: cfg.DefaultRadiusMeters,
			MaxRadiusMeters:     cfg.MaxRadiusMeters,
		}),
		api.WithSlowRequestThreshold(cfg.SlowRequest()),
	)
	apiServer.Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	return apiServer.Handler(mux, cfg.CORSAllowedOrigins)
}

// watchConfig re-applies log_level whenever the config file changes.
func watchConfig(ctx context.Context, path string) {
	log := logger.Named("main")
	err := config.Watch(ctx, path, func(c *config.Config) {
		if err := logger.SetLevelString(c.LogLevel); err != nil {
			log.Warn(ctx, "ignoring invalid log_level", logger.String("log_level", c.LogLevel))
			return
		}
		log.Info(ctx, "log level updated", logger.String("log_level", c.LogLevel))
	})
	if err != nil {
		log.Error(ctx, "config watcher stopped", logger.Error(err))
	}
}

// startSystemMetricsUpdater samples system metrics every interval until ctx
// is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
