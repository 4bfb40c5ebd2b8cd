package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/predictfund/engine/internal/adapters/http/api"
	"github.com/predictfund/engine/internal/adapters/ledger"
	"github.com/predictfund/engine/internal/adapters/profile"
	app "github.com/predictfund/engine/internal/app"
	"github.com/predictfund/engine/internal/config"
	"github.com/predictfund/engine/internal/domain/leaderboard"
	"github.com/predictfund/engine/internal/engine"
	"github.com/predictfund/engine/pkg/logger"
	"github.com/predictfund/engine/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// we collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Connect to the ledger RPC endpoint.
	reader, err := ledger.Dial(ctx, cfg.RPCURL, cfg.ContractAddress,
		ledger.WithCallTimeout(time.Duration(cfg.LedgerTimeoutMS)*time.Millisecond),
		ledger.WithRateLimit(cfg.RPCRateLimit),
	)
	if err != nil {
		os.Stderr.WriteString("failed to connect to ledger: " + err.Error() + "\n")
		return
	}
	defer reader.Close()

	// Assemble the snapshot pipeline.
	pipeline := engine.NewPipeline(reader,
		engine.WithLookback(cfg.LookbackBlocks),
		engine.WithWorkers(cfg.AggregateWorkers),
		engine.WithTimeout(time.Duration(cfg.PipelineTimeoutMS)*time.Millisecond),
		engine.WithBuilder(leaderboard.NewBuilder(
			leaderboard.WithMinPredictions(cfg.MinPredictions),
		)),
		engine.WithProfiles(profile.NewStaticStore(cfg.DisplayNames)),
	)

	// Create and start the service with configuration options
	svc := app.New(pipeline,
		app.WithLogger(log),
		app.WithTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second),
		app.WithBackoff(time.Duration(cfg.RefreshBackoffSeconds)*time.Second),
		app.WithDefaultListSize(cfg.DefaultListSize),
		app.WithMaxLimit(cfg.MaxLeaderboardLimit),
		app.WithWorkerCount(cfg.AggregateWorkers),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
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
