package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DataDir           string
	ChunkSize         int
	ChunkOverlap      int
	MaxChunksPerQuery int
	MMRLambda         float32
	OllamaBaseURL     string
	ChatModel         string
	EmbedModel        string
	EmbedVectorSize   int
	QdrantURL         string // empty disables the vector index
	QdrantCollection  string
	APIPort           string
	LogLevel          slog.Level
	LogFormat         string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DataDir:          getEnv("DATA_DIR", "./data"),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		ChatModel:        getEnv("CHAT_MODEL", "llama3.1:8b"),
		EmbedModel:       getEnv("EMBED_MODEL", "nomic-embed-text"),
		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "notes"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 800)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 100)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("CHUNK_OVERLAP must not be negative")
	}
	cfg.MaxChunksPerQuery, err = getEnvInt("MAX_CHUNKS_PER_QUERY", 64)
	if err != nil {
		return nil, err
	}

	lambdaStr := getEnv("MMR_LAMBDA", "0.7")
	lambda, err := strconv.ParseFloat(lambdaStr, 32)
	if err != nil {
		return nil, fmt.Errorf("MMR_LAMBDA must be a valid number: %w", err)
	}
	if lambda <= 0 || lambda > 1 {
		return nil, fmt.Errorf("MMR_LAMBDA must be in (0, 1]")
	}
	cfg.MMRLambda = float32(lambda)

	// Note: This must match the output vector size of the embeddings model.
	// If the vector size changes, the vector collection must be recreated
	// and the index rebuilt.
	vectorSizeStr := getEnv("EMBEDDING_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	cfg.EmbedVectorSize = vectorSize

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// parseLogLevel converts a level name to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
