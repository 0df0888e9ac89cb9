package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/staticstr/intern"
	"github.com/Amund211/staticstr/internal/config"
	"github.com/Amund211/staticstr/internal/logging"
	"github.com/Amund211/staticstr/internal/ports"
	"github.com/Amund211/staticstr/internal/reporting"
	"github.com/Amund211/staticstr/internal/stress"
	"github.com/Amund211/staticstr/internal/telemetry"
	"github.com/Amund211/staticstr/memo"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// Trust the bundled root certificates when the image has none
	_ "golang.org/x/crypto/x509roots/fallback"
)

const serviceName = "staticstr-stress"

func main() {
	instanceID := uuid.New().String()

	config, err := config.ConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	logger := slog.New(
		logging.NewTraceLogHandler(slog.NewJSONHandler(os.Stdout, nil), config.GCPProject()),
	).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	logger.Info("Loaded config", "config", config.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.AddToContext(ctx, logger)

	if config.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, serviceName)
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := shutdownOTel(shutdownCtx); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	pool := intern.New(intern.WithLogger(logger.With("component", "intern")))
	registry := memo.NewRegistry(pool)

	mux := http.NewServeMux()
	mux.HandleFunc(
		"GET /v1/stats",
		ports.MakeGetStatsHandler(
			pool,
			registry,
			logger.With("port", "stats"),
			sentryMiddleware,
		),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port()),
		Handler:           otelhttp.NewHandler(mux, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	logger.Info("Init complete")

	report, runErr := stress.Run(ctx, pool, registry, stress.Options{
		Workers:        config.StressWorkers(),
		OpsPerSecond:   config.StressOpsPerSecond(),
		Duration:       config.StressDuration(),
		DistinctValues: config.StressDistinctValues(),
		Seed:           uint64(time.Now().UnixNano()),
	})

	stats := pool.Stats()
	logger.Info(
		"Workload finished",
		"interns", report.Interns,
		"lookups", report.Lookups,
		"evictions", report.Evictions,
		"memoCalls", report.MemoCalls,
		"live", stats.Live,
		"retired", stats.Retired,
		"bytes", stats.Bytes,
	)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down server", "error", err.Error())
	}

	if err := <-serverErr; !errors.Is(err, http.ErrServerClosed) {
		reporting.Report(ctx, fmt.Errorf("stats server failed: %w", err))
		logger.Error("Server error", "error", err.Error())
	} else {
		logger.Info("Server shutdown")
	}

	if runErr != nil {
		reporting.Report(ctx, runErr)
		flush()
		fail("Workload failed", "error", runErr.Error())
	}
}
