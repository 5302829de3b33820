// Package config provides configuration loading for the brochure engine.
// Supports YAML files, .env files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the brochure engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	LLM           LLMConfig           `yaml:"llm"`
	Structuring   StructuringConfig   `yaml:"structuring"`
	Grounding     GroundingConfig     `yaml:"grounding"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	OCR           OCRConfig           `yaml:"ocr"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	FrontendOrigin   string        `yaml:"frontend_origin"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	JournalMode  string `yaml:"journal_mode"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// LLMConfig selects and configures the generative model client.
type LLMConfig struct {
	Provider             string  `yaml:"provider"` // gemini or openrouter
	GeminiAPIKey         string  `yaml:"gemini_api_key"`
	OpenRouterAPIKey     string  `yaml:"openrouter_api_key"`
	Model                string  `yaml:"model"`
	StructureTemperature float32 `yaml:"structure_temperature"`
	AnswerTemperature    float32 `yaml:"answer_temperature"`
}

// StructuringConfig bounds structuring calls.
type StructuringConfig struct {
	MaxChars int             `yaml:"max_chars"`
	Timeout  time.Duration   `yaml:"timeout"`
	Backoffs []time.Duration `yaml:"backoffs"`
}

// GroundingConfig bounds question answering.
type GroundingConfig struct {
	MaxQuestion int           `yaml:"max_question"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// ExtractionConfig controls brochure text extraction.
type ExtractionConfig struct {
	TextEngine string        `yaml:"text_engine"` // mupdf or gopdf
	UploadDir  string        `yaml:"upload_dir"`
	TempDir    string        `yaml:"temp_dir"`
	Retention  time.Duration `yaml:"retention"`
}

// OCRConfig controls the OCR engines.
type OCRConfig struct {
	TesseractPath string   `yaml:"tesseract_path"`
	Languages     string   `yaml:"languages"`
	ImagesDir     string   `yaml:"images_dir"`
	Engines       []string `yaml:"engines"` // tesseract, vision
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFiles loads .env files into the process environment. Missing files
// are skipped; variables already set are not overwritten.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             5000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			FrontendOrigin:   "http://localhost:3000",
			MaxUploadBytes:   50 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "data/brochures.db",
				MaxOpenConns: 1,
				JournalMode:  "WAL",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        30 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
		},
		LLM: LLMConfig{
			Provider:             "gemini",
			Model:                "gemini-2.5-flash",
			StructureTemperature: 0.25,
			AnswerTemperature:    0.3,
		},
		Structuring: StructuringConfig{
			MaxChars: 1_000_000,
			Timeout:  12 * time.Second,
			Backoffs: []time.Duration{time.Second, 2 * time.Second},
		},
		Grounding: GroundingConfig{
			MaxQuestion: 500,
			Timeout:     12 * time.Second,
			CacheTTL:    30 * time.Minute,
		},
		Extraction: ExtractionConfig{
			TextEngine: "mupdf",
			UploadDir:  "uploads",
			TempDir:    "temp",
			Retention:  24 * time.Hour,
		},
		OCR: OCRConfig{
			TesseractPath: "tesseract",
			Languages:     "eng",
			ImagesDir:     "static/images",
			Engines:       []string{"tesseract", "vision"},
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "brochure-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.LLM.Provider != "gemini" && c.LLM.Provider != "openrouter" {
		return fmt.Errorf("invalid llm provider: %s", c.LLM.Provider)
	}

	if c.Structuring.MaxChars < 1 {
		return fmt.Errorf("structuring max_chars must be positive")
	}

	if c.Structuring.Timeout <= 0 {
		return fmt.Errorf("structuring timeout must be positive")
	}

	if len(c.Structuring.Backoffs) > 2 {
		return fmt.Errorf("at most two structuring backoffs are allowed, got %d", len(c.Structuring.Backoffs))
	}

	if c.Grounding.MaxQuestion < 1 {
		return fmt.Errorf("grounding max_question must be positive")
	}

	switch c.Extraction.TextEngine {
	case "mupdf", "gopdf":
	default:
		return fmt.Errorf("invalid text engine: %s", c.Extraction.TextEngine)
	}

	for _, e := range c.OCR.Engines {
		if e != "tesseract" && e != "vision" {
			return fmt.Errorf("invalid ocr engine: %s", e)
		}
	}

	return nil
}

// APIKey returns the credential for the configured provider, possibly empty.
func (c *Config) APIKey() string {
	if c.LLM.Provider == "openrouter" {
		return c.LLM.OpenRouterAPIKey
	}
	return c.LLM.GeminiAPIKey
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("FRONTEND_ORIGIN"); v != "" {
		cfg.Server.FrontendOrigin = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.OpenRouterAPIKey = v
	}

	if v := os.Getenv("STRUCTURE_MAX_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Structuring.MaxChars = n
		}
	}

	if v := os.Getenv("STRUCTURE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Structuring.Timeout = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("TEXT_ENGINE"); v != "" {
		cfg.Extraction.TextEngine = v
	}

	if v := os.Getenv("UPLOAD_FOLDER"); v != "" {
		cfg.Extraction.UploadDir = v
	}

	if v := os.Getenv("TEMP_FOLDER"); v != "" {
		cfg.Extraction.TempDir = v
	}

	if v := os.Getenv("OCR_LANGS"); v != "" {
		cfg.OCR.Languages = v
	}

	if v := os.Getenv("TESSERACT_PATH"); v != "" {
		cfg.OCR.TesseractPath = v
	}

	if v := os.Getenv("OCR_IMAGES_DIR"); v != "" {
		cfg.OCR.ImagesDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
