package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for AskPDF
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Database    DatabaseConfig    `mapstructure:"database"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Chunker     ChunkerConfig     `mapstructure:"chunker"`
	LLM         LLMConfig         `mapstructure:"llm"`
	RAG         RAGConfig         `mapstructure:"rag"`
	Chat        ChatConfig        `mapstructure:"chat"`
	Browse      BrowseConfig      `mapstructure:"browse"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AdminConfig holds admin authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds the chat session database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// VectorStoreConfig selects and addresses the vector database
type VectorStoreConfig struct {
	// Type is one of qdrant, sqlite or memory
	Type       string `mapstructure:"type"`
	Collection string `mapstructure:"collection"`
	Dimension  int    `mapstructure:"dimension"`
	// Path of the sqlite vector database; empty shares database.path
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
	Qdrant  QdrantConfig  `mapstructure:"qdrant"`
}

// QdrantConfig holds the Qdrant gRPC endpoint
type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

// ChunkerConfig holds text splitting configuration
type ChunkerConfig struct {
	ChunkSize    int      `mapstructure:"chunk_size"`
	ChunkOverlap int      `mapstructure:"chunk_overlap"`
	Separators   []string `mapstructure:"separators"`
	// Tokenizer is a tiktoken encoding name, or "words" or "runes"
	Tokenizer string `mapstructure:"tokenizer"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BatchSize      int           `mapstructure:"batch_size"`
}

// RAGConfig holds question answering configuration
type RAGConfig struct {
	K           int     `mapstructure:"k"`
	Temperature float32 `mapstructure:"temperature"`
}

// ChatConfig holds conversation configuration
type ChatConfig struct {
	SystemPrompt string  `mapstructure:"system_prompt"`
	Temperature  float32 `mapstructure:"temperature"`
}

// BrowseConfig holds web page summarization configuration
type BrowseConfig struct {
	Selector     string        `mapstructure:"selector"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ContentChars int           `mapstructure:"content_chars"`
	SummaryChars int           `mapstructure:"summary_chars"`
	Temperature  float32       `mapstructure:"temperature"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from .env, file and environment
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: ASKPDF_LLM_MODEL overrides llm.model
	v.SetEnvPrefix("ASKPDF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", "ASKPDF_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.write_timeout", 2*time.Minute)

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/askpdf.db")

	v.SetDefault("vector_store.type", "qdrant")
	v.SetDefault("vector_store.collection", "my_collection")
	v.SetDefault("vector_store.dimension", 1536)
	v.SetDefault("vector_store.path", "")
	v.SetDefault("vector_store.timeout", 30*time.Second)
	v.SetDefault("vector_store.qdrant.host", "localhost")
	v.SetDefault("vector_store.qdrant.port", 6334)
	v.SetDefault("vector_store.qdrant.api_key", "")
	v.SetDefault("vector_store.qdrant.use_tls", false)

	v.SetDefault("chunker.chunk_size", 150)
	v.SetDefault("chunker.chunk_overlap", 0)
	v.SetDefault("chunker.separators", []string{"\n\n", "\n", "。", "、", " ", ""})
	v.SetDefault("chunker.tokenizer", "cl100k_base")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-3.5-turbo-0125")
	v.SetDefault("llm.embedding_model", "text-embedding-ada-002")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.batch_size", 100)

	v.SetDefault("rag.k", 3)
	v.SetDefault("rag.temperature", 0)

	v.SetDefault("chat.system_prompt", "You are a helpful assistant.")
	v.SetDefault("chat.temperature", 0)

	v.SetDefault("browse.selector", "main")
	v.SetDefault("browse.timeout", 15*time.Second)
	v.SetDefault("browse.content_chars", 1000)
	v.SetDefault("browse.summary_chars", 300)
	v.SetDefault("browse.temperature", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate rejects settings no component could work with
func (c *Config) Validate() error {
	switch c.VectorStore.Type {
	case "qdrant", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown vector_store.type %q", c.VectorStore.Type)
	}
	if c.VectorStore.Dimension <= 0 {
		return fmt.Errorf("vector_store.dimension must be positive")
	}
	if c.Chunker.ChunkSize <= 0 || c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunker: need 0 <= chunk_overlap < chunk_size, got %d and %d",
			c.Chunker.ChunkOverlap, c.Chunker.ChunkSize)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be within [0, 2]")
	}
	return nil
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
