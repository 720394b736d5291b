// Package config loads runtime configuration.
//
// LOAD ORDER (later wins):
//  1. Defaults from setDefaults
//  2. An optional YAML file (config.yaml in ./config or ., or an explicit path)
//  3. Environment variables prefixed SKILLTRACKER_, with "." replaced by "_"
//     (e.g. SKILLTRACKER_AUTH_JWT_SECRET, SKILLTRACKER_SERVER_PORT)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment override.
const EnvPrefix = "SKILLTRACKER"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Gamification GamificationConfig `mapstructure:"gamification"`
	Advice       AdviceConfig       `mapstructure:"advice"`
	Cooldown     CooldownConfig     `mapstructure:"cooldown"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// AuthConfig configures JWT sessions and the optional GitHub sign-in.
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	SecureCookies      bool          `mapstructure:"secure_cookies"`
	GitHubClientID     string        `mapstructure:"github_client_id"`
	GitHubClientSecret string        `mapstructure:"github_client_secret"`
	GitHubCallbackURL  string        `mapstructure:"github_callback_url"`
}

// GitHubEnabled reports whether both GitHub OAuth credentials are set.
func (a AuthConfig) GitHubEnabled() bool {
	return a.GitHubClientID != "" && a.GitHubClientSecret != ""
}

type GamificationConfig struct {
	// Timezone decides where "today" ends for streaks, the ledger and deadlines.
	Timezone           string `mapstructure:"timezone"`
	HeatmapDefaultDays int    `mapstructure:"heatmap_default_days"`
}

// AdviceConfig configures the OpenAI-compatible chat endpoint that writes
// learning plans. An empty APIKey disables generation; callers get the
// fallback text instead.
type AdviceConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type CooldownConfig struct {
	Backend       string `mapstructure:"backend"` // memory | redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration. configPath may be empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	} else {
		slog.Info("loaded config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	cfg.Advice.APIKey = expandEnv(cfg.Advice.APIKey)
	cfg.Auth.JWTSecret = expandEnv(cfg.Auth.JWTSecret)
	cfg.Auth.GitHubClientSecret = expandEnv(cfg.Auth.GitHubClientSecret)

	if cfg.Auth.GitHubCallbackURL == "" {
		cfg.Auth.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Storage.DBPath == "" {
		return errors.New("config: storage.db_path is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}
	if c.Gamification.HeatmapDefaultDays < 0 {
		return errors.New("config: gamification.heatmap_default_days must not be negative")
	}
	if c.Advice.Cooldown < 0 {
		return errors.New("config: advice.cooldown must not be negative")
	}
	switch c.Cooldown.Backend {
	case "memory":
	case "redis":
		if c.Cooldown.RedisAddr == "" {
			return errors.New("config: cooldown.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown cooldown.backend %q", c.Cooldown.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("storage.db_path", "data/skilltracker.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.secure_cookies", false)
	v.SetDefault("auth.github_client_id", "")
	v.SetDefault("auth.github_client_secret", "")
	v.SetDefault("auth.github_callback_url", "")

	v.SetDefault("gamification.timezone", "UTC")
	v.SetDefault("gamification.heatmap_default_days", 365)

	v.SetDefault("advice.api_key", "")
	v.SetDefault("advice.base_url", "https://api.openai.com")
	v.SetDefault("advice.model", "gpt-4o-mini")
	v.SetDefault("advice.timeout", 20*time.Second)
	v.SetDefault("advice.cooldown", 60*time.Second)
	v.SetDefault("advice.requests_per_minute", 30)

	v.SetDefault("cooldown.backend", "memory")
	v.SetDefault("cooldown.redis_addr", "localhost:6379")
	v.SetDefault("cooldown.redis_password", "")
	v.SetDefault("cooldown.redis_db", 0)

	v.SetDefault("log.level", "info")
}

// expandEnv resolves a "${VAR}" placeholder so secrets can stay out of files.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}

// NewLogger builds the process logger for the configured level.
func NewLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
