// Package main runs a stand-in registration backend for local development.
// Users live in memory and are lost when the process stops.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-storefront/pkg/config"
	"github.com/tendant/simple-storefront/pkg/signup"
)

func main() {
	cfg, err := config.LoadRegistrarConfig()
	slog.SetDefault(config.NewLogger(os.Stdout, cfg.Log))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting registration backend (no database required)")
	slog.Info(strings.Repeat("=", 60))

	signupService := signup.NewSignupService(
		signup.NewInMemoryRepository(),
		signup.WithJwtSecret(cfg.JwtSecret),
		signup.WithTokenTTL(cfg.TokenTTL),
	)

	server := app.NewApp(app.WithPort(cfg.Port))
	setupRoutes(server.R, signup.NewHandle(signupService))

	slog.Info("API Endpoints:")
	slog.Info("  POST /api/users  - Register a user")
	slog.Info(strings.Repeat("=", 60))

	server.Run()
}

func setupRoutes(r *chi.Mux, handle signup.Handle) {
	app.RegisterHealthzRoutes(r)

	signup.Routes(r, handle)
}
