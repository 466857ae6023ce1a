package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/service"
	"github.com/aussiebroadwan/campusbot/pkg/s21"
	"github.com/aussiebroadwan/campusbot/pkg/telegram"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken   string // Required: bot token
	TelegramAPIURL  string // Optional: Bot API base URL (default: https://api.telegram.org)
	AdminID         int64  // Optional: user id allowed to run /ban and /unban
	AdminTOTPSecret string // Optional: base32 TOTP secret required by admin commands

	S21Login     string // Required: upstream account used for the password grant
	S21Password  string // Required
	S21AuthURL   string // Optional: token endpoint
	S21APIURL    string // Optional: API base URL
	S21ClientID  string // Optional: OAuth2 client id (default: s21-open-api)
	S21RateLimit int    // Optional: outbound requests per second (default: 8)

	DatabaseFile        string        // Optional: path to SQLite database file (default: campus.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // Operator HTTP port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	SnapshotMinInterval time.Duration // Refresh coalescing window (default: 30s)
	SnapshotMaxInterval time.Duration // Snapshot staleness bound (default: 5m)
	PresenceInterval    time.Duration // Presence check period (default: 5m)
	FetchTimeout        time.Duration // Per-cluster fetch timeout (default: 20s)
	ResetAt             service.ClockTime
	Timezone            string // IANA zone for the daily reset (default: Local)

	ClustersFile string           // Optional: YAML cluster table
	Clusters     []domain.Cluster // Loaded from ClustersFile or built in
}

// LoadConfig reads .env (when present) and the environment. Only values
// that cannot be parsed at all are reported; use Validate for the rest.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		TelegramAPIURL:  getEnvOrDefault("TELEGRAM_API_URL", telegram.DefaultBaseURL),
		AdminID:         getEnvInt64OrDefault("MAIN_ADMIN_ID", 0),
		AdminTOTPSecret: os.Getenv("ADMIN_TOTP_SECRET"),

		S21Login:     os.Getenv("S21_LOGIN"),
		S21Password:  os.Getenv("S21_PASSWORD"),
		S21AuthURL:   getEnvOrDefault("S21_AUTH_URL", s21.DefaultAuthURL),
		S21APIURL:    getEnvOrDefault("S21_API_URL", s21.DefaultAPIURL),
		S21ClientID:  getEnvOrDefault("S21_CLIENT_ID", s21.DefaultClientID),
		S21RateLimit: getEnvIntOrDefault("S21_RATE_LIMIT", 8),

		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "campus.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		SnapshotMinInterval: getEnvDurationOrDefault("SNAPSHOT_MIN_INTERVAL", service.DefaultMinInterval),
		SnapshotMaxInterval: getEnvDurationOrDefault("SNAPSHOT_MAX_INTERVAL", service.DefaultMaxInterval),
		PresenceInterval:    getEnvDurationOrDefault("PRESENCE_INTERVAL", service.DefaultPresenceInterval),
		FetchTimeout:        getEnvDurationOrDefault("FETCH_TIMEOUT", service.DefaultFetchTimeout),
		ResetAt:             service.DefaultResetAt,
		Timezone:            getEnvOrDefault("TIMEZONE", "Local"),

		ClustersFile: os.Getenv("CLUSTERS_FILE"),
		Clusters:     domain.DefaultClusters(),
	}

	if raw := os.Getenv("RESET_AT"); raw != "" {
		at, err := service.ParseClockTime(raw)
		if err != nil {
			return cfg, fmt.Errorf("RESET_AT: %w", err)
		}
		cfg.ResetAt = at
	}

	if cfg.ClustersFile != "" {
		clusters, err := LoadClusters(cfg.ClustersFile)
		if err != nil {
			return cfg, err
		}
		cfg.Clusters = clusters
	}

	return cfg, nil
}

// Validate reports every problem that prevents the bot from serving.
func (c Config) Validate() error {
	var errs []error

	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if c.S21Login == "" || c.S21Password == "" {
		errs = append(errs, errors.New("S21_LOGIN and S21_PASSWORD are required"))
	}
	if c.SnapshotMinInterval <= 0 {
		errs = append(errs, errors.New("SNAPSHOT_MIN_INTERVAL must be positive"))
	}
	if c.SnapshotMaxInterval < c.SnapshotMinInterval {
		errs = append(errs, errors.New("SNAPSHOT_MAX_INTERVAL must not be shorter than SNAPSHOT_MIN_INTERVAL"))
	}
	if c.PresenceInterval <= 0 || c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("PRESENCE_INTERVAL and FETCH_TIMEOUT must be positive"))
	}
	if c.S21RateLimit <= 0 {
		errs = append(errs, errors.New("S21_RATE_LIMIT must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if err := validateClusters(c.Clusters); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
