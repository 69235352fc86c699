package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medibook/clinic-booking/cmd/mainconfig"
	"github.com/medibook/clinic-booking/internal/app/bootstrap"
	"github.com/medibook/clinic-booking/internal/config"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("reminder worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool, err := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	sqlDB := bootstrap.OpenSQLDB(pool)
	defer sqlDB.Close()

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = &loaded
	}
	sender, provider, reason := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if reason != "" {
		logger.Warn("email provider unavailable; using stub sender", "reason", reason)
	}

	clinicMetrics := metrics.NewClinicMetrics(prometheus.DefaultRegisterer)
	stores := bootstrap.BuildStores(pool, sqlDB, nil, cfg, logger)
	notifier := notify.NewDispatcher(sender, clinicMetrics, logger)
	worker := bootstrap.BuildReminderWorker(cfg, stores, notifier, clinicMetrics, logger)

	logger.Info("reminder worker starting",
		"provider", provider,
		"interval", cfg.ReminderPollInterval,
		"lease", cfg.ReminderClaimLease,
		"batch_size", cfg.ReminderBatchSize,
	)
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reminder worker shutting down")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("reminder worker did not stop in time")
	}
}
