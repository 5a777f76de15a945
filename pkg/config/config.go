package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server and the operator tools read from the environment.
type Config struct {
	Port        string
	UploadBase  string
	AutoMigrate bool
	Seed        bool
	LogLevel    slog.Level
	CORSOrigins []string
	DB          Database
}

// Database describes how to reach PostgreSQL and how hard to try at startup.
type Database struct {
	DSN             string // when set, overrides the discrete fields
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Load reads ./.env when present (variables already in the environment win)
// and builds a Config with local development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "error", err)
	}
	return &Config{
		Port:        getEnv("PORT", "4000"),
		UploadBase:  getEnv("UPLOAD_BASE", "uploads"),
		AutoMigrate: getBool("DB_AUTO_MIGRATE", true),
		Seed:        getBool("DB_SEED", true),
		LogLevel:    parseLevel(getEnv("LOG_LEVEL", "info")),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
		DB: Database{
			DSN:             os.Getenv("DB_DSN"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "cartorio"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			ConnectAttempts: getInt("DB_CONNECT_ATTEMPTS", 10),
			ConnectDelay:    getDuration("DB_CONNECT_DELAY", 3*time.Second),
		},
	}
}

// ConnString returns the PostgreSQL connection string.
func (d Database) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "":
		return def
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

func getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
