package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel  slog.Level
	LogFormat string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	EmbeddingBaseURL   string
	EmbeddingAPIKey    string
	EmbeddingModelName string
	EmbeddingSize      int
	EmbeddingTimeout   time.Duration
	EmbeddingRPS       float64

	// QdrantURL is empty when the vector mirror is disabled.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	APIPort string

	Tuning Tuning
}

// Tuning holds the ingestion and retrieval knobs. It can be overridden by a
// YAML file named in RAG_CONFIG_FILE.
type Tuning struct {
	ChunkSize            int           `yaml:"chunk_size"`
	ChunkOverlap         int           `yaml:"chunk_overlap"`
	IngestTimeout        time.Duration `yaml:"ingest_timeout"`
	MaxChunkFailures     int           `yaml:"max_chunk_failures"`
	ThrottlePauseEvery   int           `yaml:"throttle_pause_every"`
	ThrottlePause        time.Duration `yaml:"throttle_pause"`
	SimilarityFloor      float64       `yaml:"similarity_floor"`
	SearchK              int           `yaml:"search_k"`
	ContextK             int           `yaml:"context_k"`
	GlobalCandidateLimit int           `yaml:"global_candidate_limit"`
}

// MirrorEnabled reports whether chunks are mirrored into Qdrant.
func (c *Config) MirrorEnabled() bool {
	return c.QdrantURL != ""
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite3")),
		DBPath:             getEnv("DB_PATH", "./data/sermon-rag.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		QdrantURL:          getEnv("QDRANT_URL", ""),
		QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "sermon_chunks"),
		APIPort:            getEnv("API_PORT", "9000"),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	collect(err)
	cfg.LogLevel = level

	// The vector size must match the embeddings model output. If it changes,
	// stored chunks must be re-ingested.
	if getEnv("EMBEDDING_VECTOR_SIZE", "") == "" {
		collect(errors.New("EMBEDDING_VECTOR_SIZE is required"))
	} else {
		cfg.EmbeddingSize, err = getEnvInt("EMBEDDING_VECTOR_SIZE", 0)
		collect(err)
	}
	cfg.EmbeddingTimeout, err = getEnvDuration("EMBEDDING_TIMEOUT", 30*time.Second)
	collect(err)
	cfg.EmbeddingRPS, err = getEnvFloat("EMBEDDING_RPS", 0)
	collect(err)

	t := &cfg.Tuning
	t.ChunkSize, err = getEnvInt("CHUNK_SIZE", 500)
	collect(err)
	t.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 30)
	collect(err)
	t.IngestTimeout, err = getEnvDuration("INGEST_TIMEOUT", 60*time.Second)
	collect(err)
	t.MaxChunkFailures, err = getEnvInt("MAX_CHUNK_FAILURES", 5)
	collect(err)
	t.ThrottlePauseEvery, err = getEnvInt("THROTTLE_PAUSE_EVERY", 3)
	collect(err)
	t.ThrottlePause, err = getEnvDuration("THROTTLE_PAUSE", 100*time.Millisecond)
	collect(err)
	t.SimilarityFloor, err = getEnvFloat("SIMILARITY_FLOOR", 0.3)
	collect(err)
	t.SearchK, err = getEnvInt("SEARCH_K", 5)
	collect(err)
	t.ContextK, err = getEnvInt("CONTEXT_K", 8)
	collect(err)
	t.GlobalCandidateLimit, err = getEnvInt("GLOBAL_CANDIDATE_LIMIT", 500)
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if path := getEnv("RAG_CONFIG_FILE", ""); path != "" {
		if err := applyTuningFile(path, t); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create the SQLite data directory if it doesn't exist
	if cfg.DBDriver != "postgres" {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "sqlite":
		c.DBDriver = "sqlite3"
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.DBDriver)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.EmbeddingSize <= 0 {
		return errors.New("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	if c.EmbeddingRPS < 0 {
		return errors.New("EMBEDDING_RPS must not be negative")
	}

	t := c.Tuning
	if t.ChunkSize <= 0 {
		return errors.New("chunk size must be greater than 0")
	}
	if t.ChunkOverlap < 0 || t.ChunkOverlap >= t.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, %d)", t.ChunkSize)
	}
	if t.IngestTimeout <= 0 {
		return errors.New("ingest timeout must be positive")
	}
	if t.MaxChunkFailures <= 0 {
		return errors.New("max chunk failures must be greater than 0")
	}
	if t.ThrottlePauseEvery < 0 || t.ThrottlePause < 0 {
		return errors.New("throttle settings must not be negative")
	}
	if t.SimilarityFloor < -1 || t.SimilarityFloor > 1 {
		return fmt.Errorf("similarity floor must be in [-1, 1], got %v", t.SimilarityFloor)
	}
	if t.SearchK <= 0 || t.ContextK <= 0 {
		return errors.New("search and context k must be greater than 0")
	}
	if t.GlobalCandidateLimit <= 0 {
		return errors.New("global candidate limit must be greater than 0")
	}
	return nil
}

// loadDotEnv loads the first .env found walking up from the working
// directory. Missing files are ignored.
func loadDotEnv() {
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// applyTuningFile overlays the fields present in a YAML file onto t.
func applyTuningFile(path string, t *Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return v, nil
}
