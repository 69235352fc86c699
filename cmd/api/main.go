package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medibook/clinic-booking/cmd/mainconfig"
	"github.com/medibook/clinic-booking/internal/accounts"
	"github.com/medibook/clinic-booking/internal/api/router"
	"github.com/medibook/clinic-booking/internal/app/bootstrap"
	"github.com/medibook/clinic-booking/internal/booking"
	"github.com/medibook/clinic-booking/internal/chat"
	appconfig "github.com/medibook/clinic-booking/internal/config"
	"github.com/medibook/clinic-booking/internal/dashboard"
	"github.com/medibook/clinic-booking/internal/doctors"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/internal/reminders"
	"github.com/medibook/clinic-booking/pkg/logging"
)

type application struct {
	handler http.Handler
	worker  *reminders.Worker
	closers []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.worker != nil {
		go app.worker.Run(ctx)
		logger.Info("reminder worker running in-process")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newApplication wires stores, services and the router. Without DATABASE_URL
// every store is in memory; without JWT_SECRET accounts and /admin are off.
func newApplication(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*application, error) {
	app := &application{}

	pool, err := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sqlDB := bootstrap.OpenSQLDB(pool)
	if pool != nil {
		app.closers = append(app.closers, pool.Close, func() { _ = sqlDB.Close() })
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	stores := bootstrap.BuildStores(pool, sqlDB, redisClient, cfg, logger)

	metricsHandler, clinicMetrics := setupMetrics()

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config", "error", err)
		} else {
			awsCfg = &loaded
		}
	}

	sender, provider, reason := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if reason != "" {
		logger.Warn("email provider unavailable; using stub sender", "reason", reason)
	}
	logger.Info("email provider selected", "provider", provider)
	notifier := notify.NewDispatcher(sender, clinicMetrics, logger)

	location := cfg.Location()
	bookingService := booking.NewService(booking.Config{
		Patients:         stores.Patients,
		Appointments:     stores.Appointments,
		Directory:        stores.Directory,
		Notifier:         notifier,
		Reminders:        stores.Reminders,
		Metrics:          clinicMetrics,
		Logger:           logger,
		Location:         location,
		ReminderLeadTime: cfg.ReminderLeadTime,
	})

	routerCfg := &router.Config{
		Logger:             logger,
		DoctorsHandler:     doctors.NewHandler(stores.Directory, stores.Schedules, logger),
		BookingHandler:     booking.NewHandler(bookingService, logger),
		ChatHandler:        chat.NewHandler(chat.NewEngine(chat.DefaultRules), stores.Transcripts, logger),
		NotifyHandler:      notify.NewHandler(notifier, logger),
		MetricsHandler:     metricsHandler,
		HealthCheck:        bootstrap.Ping(pool, redisClient),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	}

	if cfg.JWTSecret != "" {
		accountService := accounts.NewService(stores.Accounts, accounts.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), stores.Denylist, logger)
		admin, err := accountService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed admin profile: %w", err)
		}
		if admin == nil {
			logger.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set; no admin can sign in")
		}
		dashboardService := dashboard.NewService(dashboard.Config{
			Source:   stores.Dashboard,
			Updater:  stores.Appointments,
			Archive:  bootstrap.BuildReportArchive(cfg, awsCfg, logger),
			Metrics:  clinicMetrics,
			Logger:   logger,
			Location: location,
		})
		routerCfg.Authenticator = accountService
		routerCfg.AccountsHandler = accounts.NewHandler(accountService, logger)
		routerCfg.DashboardHandler = dashboard.NewHandler(dashboardService, logger)
	} else {
		logger.Warn("JWT_SECRET not set; accounts and admin dashboard disabled")
	}

	if cfg.RunReminderWorker {
		app.worker = bootstrap.BuildReminderWorker(cfg, stores, notifier, clinicMetrics, logger)
	}
	app.handler = router.New(routerCfg)
	return app, nil
}

// setupMetrics builds a dedicated registry so tests can create many apps.
func setupMetrics() (http.Handler, *metrics.ClinicMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewClinicMetrics(reg)
}
