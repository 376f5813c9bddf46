// Package main runs the storefront web server: the registration pages, the
// JSON registration endpoint and the health checks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/cors"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-storefront/pkg/audit"
	"github.com/tendant/simple-storefront/pkg/config"
	"github.com/tendant/simple-storefront/pkg/notification"
	"github.com/tendant/simple-storefront/pkg/ratelimit"
	"github.com/tendant/simple-storefront/pkg/registerclient"
	"github.com/tendant/simple-storefront/pkg/sessions"
	"github.com/tendant/simple-storefront/pkg/storefront"
)

func main() {
	cfg, err := config.LoadStorefrontConfig()
	slog.SetDefault(config.NewLogger(os.Stdout, cfg.Log))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting storefront")
	slog.Info(strings.Repeat("=", 60))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := newSessionRepository(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize session store", "store", cfg.Session.Store, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	sessionService := sessions.NewService(repo, sessions.WithTTL(cfg.Session.TTL))
	go sessionService.RunCleanup(ctx, cfg.Session.CleanupInterval)

	cookies := sessions.NewCookieManager(cfg.Session.Secret,
		sessions.WithCookieHttpOnly(cfg.Session.CookieHttpOnly),
		sessions.WithCookieSecure(cfg.Session.CookieSecure),
	)

	registrar := registerclient.New(cfg.RegisterAPI.URL,
		registerclient.WithPath(cfg.RegisterAPI.Path),
		registerclient.WithTimeout(cfg.RegisterAPI.Timeout),
	)

	opts := []storefront.Option{
		storefront.WithRegistrar(registrar),
		storefront.WithSessions(sessionService, cookies),
		storefront.WithAuditor(audit.NewMiddleware(audit.Config{})),
	}

	if cfg.Email.WelcomeEnabled {
		manager, err := notification.NewNotificationManagerWithOptions(cfg.HTTP.BaseUrl,
			notification.WithSMTP(cfg.Email.ToSMTPConfig()),
			notification.WithWelcomeTemplate(),
		)
		if err != nil {
			slog.Error("Failed to initialize notification manager", "error", err)
			os.Exit(1)
		}
		opts = append(opts, storefront.WithNotificationManager(manager))
		slog.Info("Welcome email enabled", "smtp_host", cfg.Email.Host, "smtp_port", cfg.Email.Port)
	}

	if limits := cfg.RateLimit.ToMiddlewareConfig(); limits != nil {
		limiter := ratelimit.NewMiddleware(limits)
		defer limiter.Stop()
		opts = append(opts, storefront.WithRateLimiter(limiter))
	}

	handle := storefront.NewHandle(opts...)
	defer handle.Wait()

	server := app.NewApp(
		app.WithPort(cfg.HTTP.Port),
		app.WithCORS(&cors.Options{
			AllowedOrigins:   cfg.HTTP.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "HX-Current-URL"},
			ExposedHeaders:   []string{"HX-Redirect", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	setupRoutes(server.R, handle)

	slog.Info(strings.Repeat("=", 60))
	slog.Info("Storefront ready")
	slog.Info("Base URL: " + cfg.HTTP.BaseUrl)
	slog.Info("Registration API: " + cfg.RegisterAPI.URL + cfg.RegisterAPI.Path)
	slog.Info("Session store: " + cfg.Session.Store)
	slog.Info(strings.Repeat("=", 60))

	server.Run()
}

func setupRoutes(r *chi.Mux, handle *storefront.Handle) {
	app.RegisterHealthzRoutes(r)

	storefront.Routes(r, handle)
}

func newSessionRepository(ctx context.Context, cfg config.StorefrontConfig) (sessions.Repository, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreFile:
		repo, err := sessions.NewFileRepository(cfg.Session.FileDir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using file session store", "dir", cfg.Session.FileDir)
		return repo, func() {}, nil

	case config.SessionStorePostgres:
		pool, err := dbutils.NewDbPool(ctx, cfg.Database.ToDbConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := sessions.NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("Using postgres session store", "host", cfg.Database.Host, "database", cfg.Database.Database)
		return repo, closePool(pool), nil

	default:
		slog.Info("Using in-memory session store")
		return sessions.NewInMemoryRepository(), func() {}, nil
	}
}

func closePool(pool *pgxpool.Pool) func() {
	return func() {
		pool.Close()
	}
}
