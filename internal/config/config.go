package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
)

const DefaultConfigFile = "config.toml"

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Auth     AuthConfig     `toml:"auth"`
	Storage  StorageConfig  `toml:"storage"`
	OCR      OCRConfig      `toml:"ocr"`
	Ingest   IngestConfig   `toml:"ingest"`
	Worker   WorkerConfig   `toml:"worker"`
	LogLevel string         `toml:"log_level"`
}

type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	RateLimitRPS   int      `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	URL      string `toml:"url"`
	MaxConns int    `toml:"max_conns"`
	MinConns int    `toml:"min_conns"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type AuthConfig struct {
	SupabaseURL string   `toml:"supabase_url"`
	JWTSecret   string   `toml:"jwt_secret"`
	PublicPaths []string `toml:"public_paths"`
	public      PathSet
}

// Public returns the unauthenticated paths. The set is built once by Load.
func (c AuthConfig) Public() PathSet {
	return c.public
}

type StorageConfig struct {
	Backend            string `toml:"backend"` // "s3", "supabase" or "local"
	Bucket             string `toml:"bucket"`
	SupabaseURL        string `toml:"supabase_url"`
	SupabaseServiceKey string `toml:"supabase_service_key"`
	S3Endpoint         string `toml:"s3_endpoint"`
	S3Region           string `toml:"s3_region"`
	S3AccessKey        string `toml:"s3_access_key"`
	S3SecretKey        string `toml:"s3_secret_key"`
	LocalPath          string `toml:"local_path"`
}

type OCRConfig struct {
	TesseractPath  string `toml:"tesseract_path"`
	PrimaryLang    string `toml:"primary_lang"`
	FallbackLang   string `toml:"fallback_lang"`
	MaxConcurrency int    `toml:"max_concurrency"`
	DPI            int    `toml:"dpi"`
	MaxPages       int    `toml:"max_pages"`
}

type IngestConfig struct {
	MaxUploadSize   string `toml:"max_upload_size"`
	Timeout         string `toml:"timeout"`
	PreviewCacheTTL string `toml:"preview_cache_ttl"`

	maxUploadBytes int64
	timeout        time.Duration
	previewTTL     time.Duration
}

func (c IngestConfig) MaxUploadBytes() int64                  { return c.maxUploadBytes }
func (c IngestConfig) TimeoutDuration() time.Duration         { return c.timeout }
func (c IngestConfig) PreviewCacheTTLDuration() time.Duration { return c.previewTTL }

type WorkerConfig struct {
	Concurrency int `toml:"concurrency"`
}

// Load builds the configuration from defaults, an optional TOML file
// (CONFIG_FILE, or config.toml when present) and environment variables,
// in that order of precedence from lowest to highest.
func Load() (*Config, error) {
	cfg := defaults()

	if path := configFile(); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   5,
			RateLimitBurst: 20,
		},
		Database: DatabaseConfig{MaxConns: 20, MinConns: 5},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Auth:     AuthConfig{PublicPaths: []string{"/healthz", "/readyz"}},
		Storage: StorageConfig{
			Backend:   "s3",
			Bucket:    "notiflex",
			S3Region:  "us-east-1",
			LocalPath: ".data/storage",
		},
		OCR: OCRConfig{
			TesseractPath:  "tesseract",
			PrimaryLang:    "ind",
			FallbackLang:   "eng",
			MaxConcurrency: 2,
			DPI:            300,
			MaxPages:       1,
		},
		Ingest: IngestConfig{
			MaxUploadSize:   "32MB",
			Timeout:         "60s",
			PreviewCacheTTL: "24h",
		},
		Worker:   WorkerConfig{Concurrency: 10},
		LogLevel: "info",
	}
}

func configFile() string {
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		return v
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	var err error

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	if c.Server.Port, err = getEnvInt("SERVER_PORT", c.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if c.Server.RateLimitRPS, err = getEnvInt("RATE_LIMIT_RPS", c.Server.RateLimitRPS); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if c.Server.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", c.Server.RateLimitBurst); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	if c.Database.MaxConns, err = getEnvInt("DB_MAX_CONNS", c.Database.MaxConns); err != nil {
		return fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	if c.Database.MinConns, err = getEnvInt("DB_MIN_CONNS", c.Database.MinConns); err != nil {
		return fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	c.Auth.SupabaseURL = getEnv("SUPABASE_URL", c.Auth.SupabaseURL)
	c.Auth.JWTSecret = getEnv("SUPABASE_JWT_SECRET", c.Auth.JWTSecret)
	if v := os.Getenv("AUTH_PUBLIC_PATHS"); v != "" {
		c.Auth.PublicPaths = splitList(v)
	}

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Bucket = getEnv("STORAGE_BUCKET", c.Storage.Bucket)
	c.Storage.SupabaseURL = getEnv("SUPABASE_URL", c.Storage.SupabaseURL)
	c.Storage.SupabaseServiceKey = getEnv("SUPABASE_SERVICE_KEY", c.Storage.SupabaseServiceKey)
	c.Storage.S3Endpoint = getEnv("STORAGE_S3_ENDPOINT", c.Storage.S3Endpoint)
	c.Storage.S3Region = getEnv("STORAGE_S3_REGION", c.Storage.S3Region)
	c.Storage.S3AccessKey = getEnv("STORAGE_S3_ACCESS_KEY", c.Storage.S3AccessKey)
	c.Storage.S3SecretKey = getEnv("STORAGE_S3_SECRET_KEY", c.Storage.S3SecretKey)
	c.Storage.LocalPath = getEnv("STORAGE_LOCAL_PATH", c.Storage.LocalPath)

	c.OCR.TesseractPath = getEnv("OCR_TESSERACT_PATH", c.OCR.TesseractPath)
	c.OCR.PrimaryLang = getEnv("OCR_PRIMARY_LANG", c.OCR.PrimaryLang)
	c.OCR.FallbackLang = getEnv("OCR_FALLBACK_LANG", c.OCR.FallbackLang)
	if c.OCR.MaxConcurrency, err = getEnvInt("OCR_MAX_CONCURRENCY", c.OCR.MaxConcurrency); err != nil {
		return fmt.Errorf("invalid OCR_MAX_CONCURRENCY: %w", err)
	}
	if c.OCR.DPI, err = getEnvInt("OCR_DPI", c.OCR.DPI); err != nil {
		return fmt.Errorf("invalid OCR_DPI: %w", err)
	}
	if c.OCR.MaxPages, err = getEnvInt("OCR_MAX_PAGES", c.OCR.MaxPages); err != nil {
		return fmt.Errorf("invalid OCR_MAX_PAGES: %w", err)
	}

	c.Ingest.MaxUploadSize = getEnv("MAX_UPLOAD_SIZE", c.Ingest.MaxUploadSize)
	c.Ingest.Timeout = getEnv("INGEST_TIMEOUT", c.Ingest.Timeout)
	c.Ingest.PreviewCacheTTL = getEnv("PREVIEW_CACHE_TTL", c.Ingest.PreviewCacheTTL)

	if c.Worker.Concurrency, err = getEnvInt("WORKER_CONCURRENCY", c.Worker.Concurrency); err != nil {
		return fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	return nil
}

func (c *Config) finalize() error {
	size, err := units.FromHumanSize(c.Ingest.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}
	if size <= 0 {
		return errors.New("invalid MAX_UPLOAD_SIZE: must be positive")
	}
	c.Ingest.maxUploadBytes = size

	if c.Ingest.timeout, err = time.ParseDuration(c.Ingest.Timeout); err != nil {
		return fmt.Errorf("invalid INGEST_TIMEOUT: %w", err)
	}
	if c.Ingest.previewTTL, err = time.ParseDuration(c.Ingest.PreviewCacheTTL); err != nil {
		return fmt.Errorf("invalid PREVIEW_CACHE_TTL: %w", err)
	}

	if c.OCR.MaxConcurrency < 1 {
		c.OCR.MaxConcurrency = 1
	}
	if c.OCR.MaxPages < 1 {
		c.OCR.MaxPages = 1
	}

	c.Auth.public = NewPathSet(c.Auth.PublicPaths...)
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if c.Storage.Bucket == "" {
		missing = append(missing, "STORAGE_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	switch c.Storage.Backend {
	case "s3", "local":
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseServiceKey == "" {
			return errors.New("STORAGE_BACKEND supabase needs SUPABASE_URL and SUPABASE_SERVICE_KEY")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: want s3, supabase or local", c.Storage.Backend)
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
