// Package config holds the process configuration for coursechat.
// A Config is constructed once at startup via Load and passed by reference
// to every component that needs it; there is no ambient global.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every tunable the assistant needs at runtime.
type Config struct {
	// Anthropic model access.
	AnthropicAPIKey string
	AnthropicModel  string

	// Embedding backend for the vector store: "ollama" or "openai".
	EmbeddingProvider string
	EmbeddingModel    string
	OllamaBaseURL     string
	OpenAIAPIKey      string

	// Document ingestion.
	ChunkSize    int
	ChunkOverlap int
	DocsPath     string

	// Retrieval and conversation limits.
	MaxResults    int // chunks returned per search
	MaxToolRounds int // tool-execution rounds per query
	MaxHistory    int // retained exchanges per session

	// Storage and transport.
	DBPath   string
	Addr     string
	LogLevel string
}

// Load reads configuration from a .env file (if present) and the
// environment, applies defaults, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", "claude-3-7-sonnet-20250219"),
		EmbeddingProvider: envOr("EMBEDDING_PROVIDER", "ollama"),
		EmbeddingModel:    envOr("EMBEDDING_MODEL", "nomic-embed-text"),
		OllamaBaseURL:     envOr("OLLAMA_BASE_URL", ""),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		DocsPath:          envOr("DOCS_PATH", "./docs"),
		DBPath:            envOr("DB_PATH", "./chroma_db"),
		Addr:              envOr("ADDR", ":8000"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ChunkSize, err = envIntOr("CHUNK_SIZE", 800); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = envIntOr("CHUNK_OVERLAP", 100); err != nil {
		return nil, err
	}
	if cfg.MaxResults, err = envIntOr("MAX_RESULTS", 5); err != nil {
		return nil, err
	}
	if cfg.MaxToolRounds, err = envIntOr("MAX_TOOL_ROUNDS", 2); err != nil {
		return nil, err
	}
	if cfg.MaxHistory, err = envIntOr("MAX_HISTORY", 2); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would silently break the assistant.
// In particular MaxResults == 0 is refused outright: it would empty every
// search result while the rest of the system keeps running.
func (c *Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return errors.New("config: ANTHROPIC_API_KEY is required")
	}
	if c.AnthropicModel == "" {
		return errors.New("config: ANTHROPIC_MODEL must not be empty")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("config: MAX_RESULTS must be > 0, got %d (a value of 0 empties every search result)", c.MaxResults)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("config: MAX_TOOL_ROUNDS must be >= 1, got %d", c.MaxToolRounds)
	}
	if c.MaxHistory < 0 {
		return fmt.Errorf("config: MAX_HISTORY must be >= 0, got %d", c.MaxHistory)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: CHUNK_SIZE must be > 0, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d with CHUNK_SIZE %d", c.ChunkOverlap, c.ChunkSize)
	}
	switch c.EmbeddingProvider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("config: unknown EMBEDDING_PROVIDER %q (want ollama or openai)", c.EmbeddingProvider)
	}
	if c.EmbeddingProvider == "openai" && c.OpenAIAPIKey == "" {
		return errors.New("config: OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}
