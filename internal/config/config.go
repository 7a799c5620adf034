// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/notionv2/service/internal/storage"
)

// Environment names accepted in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds all runtime configuration for the service.
type Config struct {
	AppEnv string
	Host   string
	Port   string

	CORSOrigins []string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	MaxUploadBytes int64

	Storage storage.Settings
}

// Load reads configuration from a .env file (if present) and environment variables.
// Malformed values are reported and replaced by their defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment")
	}

	port := getEnv("PORT", "3001")

	return &Config{
		AppEnv: getEnum("APP_ENV", EnvDevelopment, EnvDevelopment, EnvProduction, EnvTest),
		Host:   getEnv("HOST", "0.0.0.0"),
		Port:   port,

		CORSOrigins: splitList(getEnv("CORS_ORIGIN", "http://localhost:3000")),

		DatabaseURL: databaseURL(),

		JWTSecret: getEnv("JWT_SECRET", "change_me_in_production"),
		JWTTTL:    getDuration("JWT_TTL", 30*24*time.Hour),

		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 10<<20),

		Storage: StorageSettings(),
	}
}

// StorageSettings reads only the storage section. It is cheap enough to be used as a
// storage.Registry loader.
func StorageSettings() storage.Settings {
	return storage.Settings{
		Driver:        storage.ParseDriver(getEnv("STORAGE_PROVIDER", string(storage.DriverLocal))),
		LocalPath:     getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE", "http://localhost:"+getEnv("PORT", "3001")+"/uploads"),
		Remote: storage.RemoteOptions{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "notionv2-uploads"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("AWS_S3_ENDPOINT"),
		},
		EnsureBucket: getEnv("STORAGE_ENSURE_BUCKET", "false") == "true",
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// IsDevelopment returns true when detailed errors may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from its parts.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	sslMode := "disable"
	if getEnv("DATABASE_SSL", "false") == "true" {
		sslMode = "require"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DATABASE_USER", "postgres"),
		getEnv("DATABASE_PASSWORD", "postgres"),
		getEnv("DATABASE_HOST", "localhost"),
		getEnv("DATABASE_PORT", "5432"),
		getEnv("DATABASE_NAME", "notionv2"),
		sslMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnum(key, fallback string, allowed ...string) string {
	v := getEnv(key, fallback)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	slog.Warn("config: unsupported value, using default", "key", key, "value", v, "default", fallback)
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("config: invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("config: invalid number, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
