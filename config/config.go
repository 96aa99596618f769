package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	S3       S3Config
	Refresh  RefreshConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/lecturelink?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AdminConfig holds the single admin account credentials. PasswordHash, when
// set, takes precedence over the plain Password.
type AdminConfig struct {
	Email        string
	Password     string
	PasswordHash string
}

// S3Config holds object storage settings. Endpoint defaults to the Wasabi
// endpoint for the configured region; set S3_ENDPOINT to override.
type S3Config struct {
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	Bucket               string
	PresignExpireSeconds int
}

// RefreshConfig holds URL refresh margins and the background sweep interval.
type RefreshConfig struct {
	OnDemandMarginMin  int
	SweepMarginMin     int
	SweepIntervalHours int
}

// AppConfig holds viewer-facing settings.
type AppConfig struct {
	BaseURL     string // prefix for deep links, e.g. http://localhost:8080/watch/
	MaxUploadMB int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// OnDemandMargin is the freshness margin applied when a viewer requests a URL.
func (c RefreshConfig) OnDemandMargin() time.Duration {
	return time.Duration(c.OnDemandMarginMin) * time.Minute
}

// SweepMargin is the freshness margin applied by the background sweep.
func (c RefreshConfig) SweepMargin() time.Duration {
	return time.Duration(c.SweepMarginMin) * time.Minute
}

// SweepInterval is how often the background sweep runs.
func (c RefreshConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalHours) * time.Hour
}

// MaxUploadBytes returns the upload cap in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	region := getEnv("S3_REGION", "ap-northeast-1")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			// Large timeouts: uploads stream up to MAX_UPLOAD_MB through a
			// single request.
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 900),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 900),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/lecturelink?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lecturelink"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 4),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password:     getEnv("ADMIN_PASSWORD", "changeme"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		S3: S3Config{
			Region:               region,
			Endpoint:             getEnv("S3_ENDPOINT", fmt.Sprintf("https://s3.%s.wasabisys.com", region)),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:               getEnv("S3_BUCKET", "lecture-videos"),
			PresignExpireSeconds: getEnvInt("PRESIGN_EXPIRE_SECONDS", 604800),
		},
		Refresh: RefreshConfig{
			OnDemandMarginMin:  getEnvInt("REFRESH_ONDEMAND_MARGIN_MIN", 60),
			SweepMarginMin:     getEnvInt("REFRESH_SWEEP_MARGIN_MIN", 120),
			SweepIntervalHours: getEnvInt("REFRESH_SWEEP_INTERVAL_HOURS", 3),
		},
		App: AppConfig{
			BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080/watch/"),
			MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 500),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
