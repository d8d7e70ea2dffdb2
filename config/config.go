package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the server reads from the environment.
type Config struct {
	// DB
	DatabaseURL string

	// HTTP
	Port string

	// Tokens
	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration

	// Verification mail
	BaseURL  string
	SMTPAddr string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Catalog cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Abuse protection on /register and /login, 0 disables
	AuthRateEvery time.Duration
}

// Load reads the environment. JWT_SECRET is required, everything else
// has a workable default for local runs.
func Load() Config {
	return Config{
		DatabaseURL: databaseURL(),

		Port: getenv("PORT", "8080"),

		JWTSecret:  must("JWT_SECRET"),
		Issuer:     getenv("JWT_ISSUER", "book-store"),
		AccessTTL:  getdur("ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getdur("REFRESH_TTL", 7*24*time.Hour),
		VerifyTTL:  getdur("VERIFY_TTL", 48*time.Hour),

		BaseURL:  getenv("BASE_URL", "http://localhost:8080"),
		SMTPAddr: os.Getenv("SMTP_ADDR"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getenv("SMTP_FROM", "no-reply@book-store.local"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),
		CacheTTL:      getdur("CACHE_TTL", 5*time.Minute),

		AuthRateEvery: getdur("AUTH_RATE_EVERY", 0),
	}
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* vars.
func databaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getenv("DB_HOST", "localhost"),
		getenv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getenv("DB_NAME", "bookstore"),
		getenv("DB_PORT", "5432"),
	)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("missing required env", "key", k)
		os.Exit(1)
	}
	return v
}
