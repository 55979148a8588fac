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

	"github.com/okian/disasterscope/internal/adapters/http/api"
	"github.com/okian/disasterscope/internal/adapters/http/site"
	"github.com/okian/disasterscope/internal/adapters/http/swagger"
	"github.com/okian/disasterscope/internal/adapters/mq/worker"
	"github.com/okian/disasterscope/internal/adapters/notify"
	app "github.com/okian/disasterscope/internal/app"
	"github.com/okian/disasterscope/internal/config"
	"github.com/okian/disasterscope/pkg/logger"
	"github.com/okian/disasterscope/pkg/metrics"
	"github.com/okian/disasterscope/pkg/telemetry"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	sentryFlushTimeout        = 2 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := telemetry.Init(cfg.SentryDSN, telemetryOptions(cfg)...); err != nil {
		log.Warn(ctx, "sentry disabled", logger.Error(err))
	}
	defer telemetry.Flush(sentryFlushTimeout)
	log.Info(ctx, "error reporting configured",
		logger.Bool("enabled", telemetry.Enabled()),
		logger.String("environment", cfg.SentryEnvironment),
	)

	snap, err := app.Load(ctx, cfg, log.Named("loader"))
	if err != nil {
		telemetry.CaptureError(err, "startup")
		return err
	}

	notifier, closeNotifiers := buildNotifiers(ctx, cfg, log)
	defer closeNotifiers()

	svc := app.New(snap,
		app.WithLogger(log.Named("service")),
		app.WithRadius(cfg.NearbyRadiusKm),
		app.WithCacheTTL(cfg.CacheTTL),
		app.WithAlertThreshold(cfg.AlertThreshold),
		app.WithRecipient(cfg.AlertRecipient),
		app.WithAlertCooldown(cfg.AlertCooldown),
		app.WithQueueSize(cfg.AlertQueueSize),
		app.WithWorkerCount(cfg.AlertWorkers),
		app.WithNotifyTimeout(cfg.NotifyTimeout),
		app.WithNotifier(notifier),
	)
	// Workers outlive the request context so queued alerts drain on shutdown.
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc,
		api.WithCORSOrigin(cfg.CORSOrigin),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	apiServer.Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Wrap(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
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

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		if runErr != nil {
			telemetry.CaptureError(runErr, "http")
			log.Error(ctx, "HTTP server failed", logger.Error(runErr))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "alert workers did not drain", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return runErr
}

// buildNotifiers assembles the alert destinations. The log notifier is always
// present; shoutrrr and MQTT are added when configured and reachable.
func buildNotifiers(ctx context.Context, cfg *config.Config, log logger.Logger) (worker.Notifier, func()) {
	notifiers := []notify.Notifier{notify.NewLog(log.Named("alerts"))}
	closeFn := func() {}

	if len(cfg.NotifyURLs) > 0 {
		s, err := notify.NewShoutrrr(cfg.NotifyURLs, cfg.NotifyTimeout)
		if err != nil {
			log.Warn(ctx, "shoutrrr notifier disabled", logger.Error(err))
		} else {
			notifiers = append(notifiers, s)
		}
	}

	if cfg.MQTTBroker != "" {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.NotifyTimeout)
		m, err := notify.NewMQTT(connectCtx, cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, cfg.NotifyTimeout)
		cancel()
		if err != nil {
			log.Warn(ctx, "mqtt notifier disabled", logger.String("broker", cfg.MQTTBroker), logger.Error(err))
		} else {
			notifiers = append(notifiers, m)
			closeFn = m.Close
		}
	}

	multi := notify.NewMulti(notifiers...)
	log.Info(ctx, "alert notifiers", logger.Strings("notifiers", multi.Names()))
	return multi, closeFn
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
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
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func telemetryOptions(cfg *config.Config) []telemetry.Option {
	return []telemetry.Option{
		telemetry.WithEnvironment(cfg.SentryEnvironment),
		telemetry.WithRelease(cfg.SentryRelease),
	}
}
