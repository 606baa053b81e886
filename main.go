package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/harborlight/center/backend/auth"
	"github.com/harborlight/center/backend/config"
	"github.com/harborlight/center/backend/donations"
	"github.com/harborlight/center/backend/guests"
	"github.com/harborlight/center/backend/meals"
	"github.com/harborlight/center/backend/metrics"
	"github.com/harborlight/center/backend/rbac"
	"github.com/harborlight/center/backend/services"
	"github.com/harborlight/center/backend/settings"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to create connection pool")
	}
	defer pool.Close()

	if err := ensureSchema(ctx, pool); err != nil {
		log.WithError(err).Fatal("failed to ensure schema")
	}

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		sessionSecret = "dev-insecure-session-secret"
		log.Warn("SESSION_SECRET not set, using development fallback")
	}

	sessionManager, err := auth.NewSessionManager(sessionSecret, cfg.SecureCookies)
	if err != nil {
		log.WithError(err).Fatal("failed to configure sessions")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	resolver := rbac.NewResolver(rbac.NewUserStore(pool), log, m)
	enforcer := rbac.NewEnforcer(func(r *http.Request) (int64, any, bool) {
		claims := auth.FromContext(r.Context())
		if claims == nil {
			return 0, nil, false
		}
		return claims.UserID, claims.Role, true
	}, resolver, m)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	router.Use(sessionManager.Middleware)

	router.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", m.Handler())

	router.Mount("/api/auth", auth.NewHandler(sessionManager, resolver).Routes())
	router.Mount("/api/guests", guests.NewHandler(pool).Routes(enforcer))
	router.Mount("/api/meals", meals.NewHandler(pool).Routes(enforcer))
	router.Mount("/api/services", services.NewHandler(pool).Routes(enforcer))
	router.Mount("/api/donations", donations.NewHandler(pool).Routes(enforcer))
	router.Mount("/api/settings", settings.NewHandler(pool).Routes(enforcer))

	log.WithField("addr", cfg.Addr).Info("listening")
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS roles (
            name TEXT PRIMARY KEY,
            description TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            subject TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL,
            full_name TEXT NOT NULL DEFAULT '',
            role TEXT REFERENCES roles(name),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS guests (
            id SERIAL PRIMARY KEY,
            full_name TEXT NOT NULL,
            preferred_name TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS checkins (
            id SERIAL PRIMARY KEY,
            guest_id INTEGER NOT NULL REFERENCES guests(id) ON DELETE CASCADE,
            checked_in_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS meals (
            id SERIAL PRIMARY KEY,
            guest_id INTEGER REFERENCES guests(id) ON DELETE SET NULL,
            served_on DATE NOT NULL,
            meal_type TEXT NOT NULL,
            quantity INTEGER NOT NULL DEFAULT 1,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS service_visits (
            id SERIAL PRIMARY KEY,
            guest_id INTEGER NOT NULL REFERENCES guests(id) ON DELETE CASCADE,
            kind TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'requested',
            notes TEXT NOT NULL DEFAULT '',
            performed_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS donations (
            id SERIAL PRIMARY KEY,
            donor_name TEXT NOT NULL,
            kind TEXT NOT NULL,
            amount_cents BIGINT,
            description TEXT NOT NULL DEFAULT '',
            received_on DATE NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	if err := seedRoles(ctx, pool); err != nil {
		return err
	}

	return seedSettings(ctx, pool)
}

func seedRoles(ctx context.Context, pool *pgxpool.Pool) error {
	type roleSeed struct {
		name        string
		description string
	}

	seeds := []roleSeed{
		{name: string(rbac.RoleAdmin), description: "Full platform administration"},
		{name: string(rbac.RoleBoard), description: "Board oversight and reporting"},
		{name: string(rbac.RoleStaff), description: "Program staff operations"},
		{name: string(rbac.RoleCheckin), description: "Front-desk guest check-in"},
	}

	batch := &pgx.Batch{}
	for _, seed := range seeds {
		batch.Queue(`INSERT INTO roles (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, seed.name, seed.description)
	}

	br := pool.SendBatch(ctx, batch)
	defer br.Close()
	for range seeds {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool) error {
	defaults := map[string]string{
		"org_name":       "Harborlight Center",
		"meal_capacity":  "120",
		"shower_slots":   "8",
		"laundry_slots":  "6",
		"checkin_opens":  "08:00",
		"checkin_closes": "16:00",
	}

	batch := &pgx.Batch{}
	for key, value := range defaults {
		batch.Queue(`INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`, key, value)
	}

	br := pool.SendBatch(ctx, batch)
	defer br.Close()
	for range defaults {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
