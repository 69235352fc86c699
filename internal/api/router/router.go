package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medibook/clinic-booking/internal/accounts"
	"github.com/medibook/clinic-booking/internal/booking"
	"github.com/medibook/clinic-booking/internal/chat"
	"github.com/medibook/clinic-booking/internal/dashboard"
	"github.com/medibook/clinic-booking/internal/doctors"
	httpmiddleware "github.com/medibook/clinic-booking/internal/http/middleware"
	"github.com/medibook/clinic-booking/pkg/logging"
)

const notifyFunctionPath = "/functions/send-appointment-notification"

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	DoctorsHandler *doctors.Handler
	BookingHandler *booking.Handler
	ChatHandler    *chat.Handler
	NotifyHandler  http.Handler
	MetricsHandler http.Handler

	// Accounts and the admin dashboard are only mounted with an authenticator.
	AccountsHandler  *accounts.Handler
	DashboardHandler *dashboard.Handler
	Authenticator    httpmiddleware.Authenticator

	// HealthCheck reports dependency health; nil means always healthy.
	HealthCheck func(ctx context.Context) error

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(logger))

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRPS > 0 {
		limit = httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthCheck))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.NotifyHandler != nil {
			public.Method(http.MethodOptions, notifyFunctionPath, cfg.NotifyHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(limit)
		if cfg.DoctorsHandler != nil {
			cfg.DoctorsHandler.RegisterRoutes(api)
		}
		if cfg.BookingHandler != nil {
			cfg.BookingHandler.RegisterRoutes(api)
		}
	})

	if cfg.ChatHandler != nil {
		r.Group(func(c chi.Router) {
			c.Use(limit)
			cfg.ChatHandler.RegisterRoutes(c)
		})
	}

	if cfg.Authenticator != nil {
		requireAuth := httpmiddleware.RequireAuth(cfg.Authenticator)
		if cfg.AccountsHandler != nil {
			r.Group(func(auth chi.Router) {
				auth.Use(limit)
				cfg.AccountsHandler.RegisterRoutes(auth, requireAuth)
			})
		}
		// Bookings and reminders notify in-process; the HTTP function is a
		// staff-only manual send.
		if cfg.NotifyHandler != nil {
			r.Group(func(fn chi.Router) {
				fn.Use(limit)
				fn.Use(requireAuth)
				fn.Use(httpmiddleware.RequireRole(accounts.RoleAdmin))
				fn.Method(http.MethodPost, notifyFunctionPath, cfg.NotifyHandler)
			})
		}
		if cfg.DashboardHandler != nil {
			r.Route("/admin", func(admin chi.Router) {
				admin.Use(requireAuth)
				admin.Use(httpmiddleware.RequireRole(accounts.RoleAdmin))
				cfg.DashboardHandler.RegisterRoutes(admin)
			})
		}
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, map[string]string{"status": "ok"}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
