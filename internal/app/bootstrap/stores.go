package bootstrap

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/medibook/clinic-booking/internal/accounts"
	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/chat"
	appconfig "github.com/medibook/clinic-booking/internal/config"
	"github.com/medibook/clinic-booking/internal/dashboard"
	"github.com/medibook/clinic-booking/internal/doctors"
	"github.com/medibook/clinic-booking/internal/patients"
	"github.com/medibook/clinic-booking/internal/reminders"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// Stores groups every repository a binary needs.
type Stores struct {
	Patients     patients.Repository
	Appointments appointments.Repository
	Directory    doctors.Directory
	Schedules    doctors.ScheduleLister
	Reminders    reminders.Repository
	Accounts     accounts.Repository
	Denylist     accounts.Denylist
	Dashboard    dashboard.Source
	Transcripts  chat.TranscriptStore

	// Persistent is false when everything lives in process memory.
	Persistent bool
}

// BuildStores wires Postgres-backed repositories when a pool is available and
// in-memory ones otherwise. Redis, when present, backs the doctor cache, the
// token denylist and chat transcripts.
func BuildStores(pool *pgxpool.Pool, sqlDB *sql.DB, redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) *Stores {
	if logger == nil {
		logger = logging.Default()
	}
	opts := []appointments.Option{}
	if cfg != nil {
		opts = append(opts, appointments.WithStrictTransitions(cfg.StrictStatusTransitions))
	}

	s := &Stores{}
	if pool != nil && sqlDB != nil {
		doctorRepo := doctors.NewRepository(pool)
		s.Patients = patients.NewPostgresRepository(pool)
		s.Appointments = appointments.NewPostgresRepository(pool, opts...)
		s.Directory = doctorRepo
		s.Schedules = doctorRepo
		s.Reminders = reminders.NewStore(pool)
		s.Accounts = accounts.NewPostgresRepository(pool)
		s.Dashboard = dashboard.NewSQLStore(sqlDB)
		s.Persistent = true
	} else {
		logger.Warn("no database configured; using in-memory stores")
		pats := patients.NewInMemoryRepository()
		appts := appointments.NewInMemoryRepository(opts...)
		fallback := doctors.Fallback()
		docs := make([]doctors.Doctor, 0, len(fallback))
		for _, d := range fallback {
			docs = append(docs, *d.Doctor())
		}
		s.Patients = pats
		s.Appointments = appts
		s.Directory = doctors.NewStaticDirectory(fallback)
		s.Reminders = reminders.NewMemoryStore()
		s.Accounts = accounts.NewInMemoryRepository()
		s.Dashboard = dashboard.NewMemorySource(pats, appts, docs)
	}

	if redisClient != nil {
		var ttl time.Duration
		if cfg != nil {
			ttl = cfg.DoctorCacheTTL
		}
		s.Directory = doctors.NewCachedDirectory(s.Directory, redisClient, ttl)
		s.Denylist = accounts.NewRedisDenylist(redisClient)
		s.Transcripts = chat.NewRedisTranscriptStore(redisClient)
	} else {
		s.Denylist = accounts.NewMemoryDenylist()
	}
	return s
}

// Ping checks the backing stores. It is used by the health endpoint.
func Ping(pool *pgxpool.Pool, redisClient *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
		}
		if redisClient != nil {
			return redisClient.Ping(ctx).Err()
		}
		return nil
	}
}
