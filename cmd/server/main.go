// Package main is the entry point for the skill tracker server.
//
// main opens the resources the process owns (database, Redis, outbound
// clients), hands them to server.New, and closes them after shutdown. All
// actual logic lives in the internal packages.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/skill-tracker/internal/advisor"
	"github.com/sakif/skill-tracker/internal/auth"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/config"
	"github.com/sakif/skill-tracker/internal/cooldown"
	sqliteRepo "github.com/sakif/skill-tracker/internal/repository/sqlite"
	"github.com/sakif/skill-tracker/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: ./config/config.yaml or ./config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	clk, err := clock.NewSystem(cfg.Gamification.Timezone)
	if err != nil {
		return err
	}

	// === DATABASE ===
	dbDir := filepath.Dir(cfg.Storage.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dbDir, err)
	}

	ctx := context.Background()
	db, err := sqliteRepo.New(ctx, cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// === AUTH ===
	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		cfg.Auth.JWTSecret = secret
		logger.Warn("auth.jwt_secret not set, using a random secret; sessions end when the process restarts")
	}

	deps := server.Deps{
		Store: db,
		Clock: clk,
	}

	if cfg.Auth.GitHubEnabled() {
		deps.GitHub = auth.NewGitHubProvider(cfg.Auth.GitHubClientID, cfg.Auth.GitHubClientSecret, cfg.Auth.GitHubCallbackURL)
	} else {
		logger.Info("GitHub sign-in disabled: client ID or secret not set")
	}

	// === COOLDOWN STORE ===
	switch cfg.Cooldown.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cooldown.RedisAddr,
			Password: cfg.Cooldown.RedisPassword,
			DB:       cfg.Cooldown.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			// The gate fails open, so a missing Redis only loosens rate limiting.
			logger.Warn("redis unreachable at startup",
				slog.String("addr", cfg.Cooldown.RedisAddr),
				slog.String("error", err.Error()),
			)
		}
		deps.Cooldown = cooldown.NewRedisStore(rdb)
	default:
		deps.Cooldown = cooldown.NewMemoryStore()
	}

	// === ADVISOR ===
	if cfg.Advice.APIKey != "" {
		deps.Advisor = advisor.NewClient(advisor.Config{
			APIKey:            cfg.Advice.APIKey,
			BaseURL:           cfg.Advice.BaseURL,
			Model:             cfg.Advice.Model,
			RequestsPerMinute: cfg.Advice.RequestsPerMinute,
		}, logger)
	} else {
		logger.Info("advice generation disabled: advice.api_key not set, serving fallback plans")
		deps.Advisor = advisor.Disabled{}
	}

	// === SERVER ===
	srv, err := server.New(cfg, deps, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until SIGINT/SIGTERM.
	return srv.Start()
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
