package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// AppInfo is the service identity reported by the API root endpoint.
type AppInfo struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	TimeoutSecs    int      `yaml:"timeout_secs"`
	ShutdownSecs   int      `yaml:"shutdown_secs"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FetcherConfig selects how resource lists are downloaded.
// "raw" reads raw.githubusercontent.com, "github" uses the GitHub contents API.
type FetcherConfig struct {
	Type           string   `yaml:"type"`
	BaseURL        string   `yaml:"base_url,omitempty"`
	Branches       []string `yaml:"branches"`
	TokenEnv       string   `yaml:"token_env"`
	TimeoutSecs    int      `yaml:"timeout_secs"`
	RequestsPerSec float64  `yaml:"requests_per_sec"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Path   string        `yaml:"path"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// IngestConfig configures the ingestion pipeline outputs.
type IngestConfig struct {
	ExportCSV string `yaml:"export_csv"`
}

// Source is one repository and the markdown files to read from it.
type Source struct {
	Repo  string   `yaml:"repo"`
	Files []string `yaml:"files"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Sources     []Source          `yaml:"sources"`
}

// Timeout returns the per-request API timeout.
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ShutdownTimeout returns how long the server waits for in-flight requests.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSecs) * time.Second
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/learnrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/learnrag/config.yaml and returns them.
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

// Validate reports settings that cannot work together.
func (c *AppConfig) Validate() error {
	switch c.Fetcher.Type {
	case "raw", "github":
	default:
		return fmt.Errorf("unknown fetcher type %q", c.Fetcher.Type)
	}
	switch c.Embedder.Type {
	case "hashing", "openai":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "memory", "sqlite", "qdrant":
	default:
		return fmt.Errorf("unknown vector store type %q", c.VectorStore.Type)
	}
	if c.VectorStore.Type == "qdrant" && (c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "") {
		return errors.New("vector_store.qdrant.url is required for the qdrant store")
	}
	for i, s := range c.Sources {
		if s.Repo == "" {
			return fmt.Errorf("sources[%d]: repo is required", i)
		}
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "learnrag", "config.yaml"), nil
}

// DefaultSources are the community lists indexed when no sources are configured.
func DefaultSources() []Source {
	return []Source{
		{Repo: "EbookFoundation/free-programming-books", Files: []string{
			"books/free-programming-books-subjects.md",
			"books/free-programming-books-langs.md",
		}},
		{Repo: "sindresorhus/awesome", Files: []string{"readme.md"}},
		{Repo: "ossu/computer-science", Files: []string{"README.md"}},
		{Repo: "kamranahmedse/developer-roadmap", Files: []string{"README.md"}},
		{Repo: "jwasham/coding-interview-university", Files: []string{"README.md"}},
	}
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		App:         AppInfo{Name: "Learning Resource API", Version: "1.0.0"},
		Log:         LogConfig{Level: "info", Format: "console"},
		Fetcher:     FetcherConfig{Type: "raw"},
		Embedder:    EmbedderConfig{Type: "hashing"},
		VectorStore: VectorStoreConfig{Type: "sqlite"},
		Ingest:      IngestConfig{ExportCSV: "./data/raw/resources.csv"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.App.Name == "" {
		cfg.App.Name = "Learning Resource API"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = 30
	}
	if cfg.Server.ShutdownSecs == 0 {
		cfg.Server.ShutdownSecs = 10
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Fetcher.Type == "" {
		cfg.Fetcher.Type = "raw"
	}
	if len(cfg.Fetcher.Branches) == 0 {
		cfg.Fetcher.Branches = []string{"main", "master"}
	}
	if cfg.Fetcher.TokenEnv == "" {
		cfg.Fetcher.TokenEnv = "GITHUB_TOKEN"
	}
	if cfg.Fetcher.TimeoutSecs == 0 {
		cfg.Fetcher.TimeoutSecs = 30
	}
	if cfg.Fetcher.RequestsPerSec == 0 {
		cfg.Fetcher.RequestsPerSec = 5
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 512
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 5
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "./data/vectorstore"
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "learning_resources"
		}
		if q.APIKeyEnv == "" {
			q.APIKeyEnv = "QDRANT_API_KEY"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
}
