package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Upload handling
	MaxFileSize int64
	UploadDir   string

	// Chunking
	ChunkSize         int
	ChunkOverlapWords int

	// Retrieval
	TopK int

	// Job/state store
	ResultTTL  time.Duration
	AskTimeout time.Duration

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Worker
	WorkerConcurrency int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Embeddings / generation
	GeminiAPIKey          string
	EmbeddingsProvider    string // "google" (default)
	GoogleEmbeddingsModel string // e.g., "text-embedding-004"
	GenerationModel       string // e.g., "gemini-2.0-flash"

	// Telemetry
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 16*1024*1024), // 16MB hard cap before any processing
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),

		ChunkSize:         getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlapWords: getEnvInt("CHUNK_OVERLAP_WORDS", 20),

		TopK: getEnvInt("RETRIEVAL_TOP_K", 3),

		ResultTTL:  time.Duration(getEnvInt("RESULT_TTL_SECONDS", 3600)) * time.Second,
		AskTimeout: time.Duration(getEnvInt("ASK_TIMEOUT_SECONDS", 30)) * time.Second,

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GenerationModel:       getEnv("GENERATION_MODEL", "gemini-2.0-flash"),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive")
	}

	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
