// Package config holds the env-loaded runtime configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, loaded once at startup and
// passed explicitly to every component.
type Config struct {
	MySQL    MySQLConfig
	Pinecone PineconeConfig
	Ollama   OllamaConfig
	Embed    EmbedConfig
	Ingest   IngestConfig
	Search   SearchConfig
	Log      LogConfig
}

type MySQLConfig struct {
	Host     string
	User     string
	Password string
	Database string
	Port     int

	// Connection pool settings. MaxConns covers base + overflow.
	MaxConns        int
	MaxIdle         int
	CheckoutTimeout int // seconds
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type PineconeConfig struct {
	APIKey    string
	IndexName string
	Cloud     string
	Region    string
}

type OllamaConfig struct {
	Host   string
	APIKey string

	// Model used for field extraction, classification, and query parsing.
	Model string
	// Model used for embeddings.
	EmbedModel string
}

type EmbedConfig struct {
	Dimension int
	BatchSize int
}

type IngestConfig struct {
	ChunkSize           int
	ChunkOverlap        int
	MaxFileSizeMB       int
	MaxResumeTextLength int
	JobCacheMaxSize     int
	EnableMemoryCleanup bool
}

type SearchConfig struct {
	TopKResults         int
	SimilarityThreshold float64
}

type LogConfig struct {
	Level       string
	SQLEcho     bool
	SQLLogLevel string
	SentryDSN   string
}

// LoadEnvFiles loads .env.local and .env if present. Missing files are not
// an error.
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment with defaults applied.
func Load() *Config {
	return &Config{
		MySQL: MySQLConfig{
			Host:            getEnv("MYSQL_HOST", "localhost"),
			User:            getEnv("MYSQL_USER", "root"),
			Password:        getEnv("MYSQL_PASSWORD", ""),
			Database:        getEnv("MYSQL_DATABASE", "talentvec"),
			Port:            getEnvInt("MYSQL_PORT", 3306),
			MaxConns:        10,
			MaxIdle:         5,
			CheckoutTimeout: 30,
		},
		Pinecone: PineconeConfig{
			APIKey:    getEnv("PINECONE_API_KEY", ""),
			IndexName: getEnv("PINECONE_INDEX_NAME", "resumes"),
			Cloud:     getEnv("PINECONE_CLOUD", "aws"),
			Region:    getEnv("PINECONE_REGION", "us-east-1"),
		},
		Ollama: OllamaConfig{
			Host:       getEnv("OLLAMA_HOST", "http://localhost:11434"),
			APIKey:     getEnv("OLLAMA_API_KEY", ""),
			Model:      getEnv("OLLAMA_MODEL", "llama3.1:8b"),
			EmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		},
		Embed: EmbedConfig{
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 768),
			BatchSize: getEnvInt("EMBEDDING_BATCH_SIZE", 32),
		},
		Ingest: IngestConfig{
			ChunkSize:           getEnvInt("CHUNK_SIZE", 512),
			ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 64),
			MaxFileSizeMB:       getEnvInt("MAX_FILE_SIZE_MB", 10),
			MaxResumeTextLength: getEnvInt("MAX_RESUME_TEXT_LENGTH", 50000),
			JobCacheMaxSize:     getEnvInt("JOB_CACHE_MAX_SIZE", 1000),
			EnableMemoryCleanup: getEnvBool("ENABLE_MEMORY_CLEANUP", false),
		},
		Search: SearchConfig{
			TopKResults:         getEnvInt("TOP_K_RESULTS", 20),
			SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.0),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			SQLEcho:     getEnvBool("SQL_ECHO", false),
			SQLLogLevel: getEnv("SQL_LOG_LEVEL", "warn"),
			SentryDSN:   getEnv("SENTRY_DSN", ""),
		},
	}
}

// Validate checks the settings a running service cannot do without.
func (c *Config) Validate() error {
	if c.MySQL.Database == "" {
		return fmt.Errorf("MYSQL_DATABASE is required")
	}
	if c.Pinecone.APIKey == "" {
		return fmt.Errorf("PINECONE_API_KEY is required")
	}
	if c.Embed.Dimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.Embed.Dimension)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}
