package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"Tether/internal/api/middleware"
	"Tether/internal/api/routes"
	"Tether/internal/config"
	"Tether/internal/core/calendar"
	"Tether/internal/core/oauth"
	"Tether/internal/core/tickets"
	"Tether/internal/core/users"
	"Tether/internal/db/migrations"
	postgresRepo "Tether/internal/db/postgres"
	"Tether/internal/db/redisstore"
	"Tether/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("connected to database")

	if err := migrations.Up(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("migrations completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stateStore, closeStates, err := newStateStore(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeStates()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Every provider call goes through one client: bounded by timeout, counted by metrics
	httpClient := &http.Client{
		Timeout:   cfg.HTTPClientTimeout,
		Transport: m.InstrumentTransport(http.DefaultTransport),
	}

	// Initialize repositories and services
	userRepo := postgresRepo.NewUserRepository(db)
	userService := users.NewUserService(userRepo)

	opts := cfg.OAuthOptions()
	opts.Logger = logger
	opts.Recorder = m
	oauthService := oauth.NewService(userRepo, stateStore, httpClient, cfg.OAuthProviders(), opts)

	calendarService := calendar.NewService(userRepo, oauthService, httpClient, cfg.Google.APIBaseURL, logger)
	ticketsService := tickets.NewService(userRepo, oauthService, httpClient, cfg.Jira.APIBaseURL, logger)

	var sessionStore sessions.Store
	if cfg.SessionSecret != "" {
		cookieStore, err := middleware.NewCookieStore(cfg.SessionSecret.String(), !cfg.IsDevelopment())
		if err != nil {
			return err
		}
		sessionStore = cookieStore
	} else {
		logger.Warn("SESSION_SECRET not set, cookie sessions disabled")
	}
	auth := middleware.NewAuthenticator([]byte(cfg.IdentityJWTSecret.String()), sessionStore, logger)

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{cfg.HostURL}
	}

	routes.RegisterOAuthRoutes(r, oauthService, auth, cfg.HostURL, corsOrigins, logger)
	routes.RegisterResourceRoutes(r, calendarService, ticketsService, auth, logger)
	routes.RegisterUserRoutes(r, userService, sessionStore, auth, logger)

	r.Handle("/metrics", m.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Tether starting",
			slog.String("port", cfg.Port),
			slog.String("host_url", cfg.HostURL),
			slog.String("state_store", cfg.StateStore))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
}

// newStateStore builds the configured state store.
// Postgres gets a janitor for expired rows; Redis expires keys natively.
func newStateStore(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (oauth.StateStore, func(), error) {
	switch cfg.StateStore {
	case config.StateStoreRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("using redis state store")
		return redisstore.NewStateStore(client), func() { _ = client.Close() }, nil

	default:
		store := postgresRepo.NewStateStore(db)
		janitor := postgresRepo.NewStateJanitor(store, cfg.StateSweepInterval, logger)
		go janitor.Run(ctx)
		return store, func() {}, nil
	}
}
