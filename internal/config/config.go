package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
	MaxRetries  int    `yaml:"max_retries" validate:"gte=0,lte=10"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type" validate:"oneof=tfidf openai langchain"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how extracted pages are split into chunks.
type ChunkerConfig struct {
	Type         string `yaml:"type" validate:"oneof=character recursive"`
	ChunkSize    int    `yaml:"chunk_size" validate:"gt=0,lte=1000"`
	ChunkOverlap int    `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	MaxPages     int    `yaml:"max_pages" validate:"gt=0"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type" validate:"oneof=memory qdrant pinecone"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PineconeConfig contains connection details for a Pinecone index.
type PineconeConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Index     string `yaml:"index"`
}

// GeneratorConfig selects the text-generation provider.
type GeneratorConfig struct {
	Type        string  `yaml:"type" validate:"oneof=openai anthropic"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
	TimeoutSecs int     `yaml:"timeout_secs" validate:"gte=0"`
}

// RetrievalConfig tunes the answering service.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" validate:"gt=0"`
}

// LogConfig configures the file logger.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	return Parse(data)
}

const (
	defaultChunkOverlap = 100
	defaultTemperature  = 0.3
)

// Parse decodes YAML config, fills defaults and validates the result.
// Fields where zero is a meaningful setting are seeded before decoding, so an
// explicit zero in the file is kept.
func Parse(data []byte) (*AppConfig, error) {
	cfg := AppConfig{
		Chunker:   ChunkerConfig{ChunkOverlap: defaultChunkOverlap},
		Generator: GeneratorConfig{Temperature: defaultTemperature},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyConfigDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enum and range constraints.
func Validate(cfg *AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.VectorStore.Type == "qdrant" && (cfg.VectorStore.Qdrant == nil || cfg.VectorStore.Qdrant.URL == "") {
		return errors.New("invalid config: qdrant vector store requires vector_store.qdrant.url")
	}
	if cfg.VectorStore.Type == "pinecone" && (cfg.VectorStore.Pinecone == nil || cfg.VectorStore.Pinecone.Index == "") {
		return errors.New("invalid config: pinecone vector store requires vector_store.pinecone.index")
	}
	return nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/learnassist/config.yaml.
// If neither exists, it writes defaults to ~/.config/learnassist/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "learnassist", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "openai"},
		Chunker:     ChunkerConfig{Type: "character", ChunkOverlap: defaultChunkOverlap},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Generator:   GeneratorConfig{Type: "openai", Temperature: defaultTemperature},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" || cfg.Embedder.Type == "langchain" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-ada-002"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "character"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.MaxPages == 0 {
		cfg.Chunker.MaxPages = 5
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "learnassist"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if p := cfg.VectorStore.Pinecone; p != nil && p.APIKeyEnv == "" {
		p.APIKeyEnv = "PINECONE_API_KEY"
	}

	g := &cfg.Generator
	if g.Type == "" {
		g.Type = "openai"
	}
	switch g.Type {
	case "openai":
		if g.Model == "" {
			g.Model = "gpt-3.5-turbo"
		}
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "anthropic":
		if g.Model == "" {
			g.Model = "claude-3-5-haiku-latest"
		}
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
	}
	if g.MaxTokens == 0 {
		g.MaxTokens = 1024
	}
	if g.TimeoutSecs == 0 {
		g.TimeoutSecs = 60
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "learnassist.log"
	}
}
