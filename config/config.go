package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Provider string `yaml:"provider"` // "openai" or "ollama"
	OpenAI   struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`
	Ollama struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"ollama"`
	Embeddings struct {
		OpenAIModel string `yaml:"openai_model"`
		OllamaModel string `yaml:"ollama_model"`
	} `yaml:"embeddings"`
	Processing struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
		TopK         int `yaml:"top_k"`
	} `yaml:"processing"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
	User struct {
		ID string `yaml:"id"`
	} `yaml:"user"`
}

// Path returns the location of the config file.
func Path() string {
	return filepath.Join(os.Getenv("HOME"), ".neuromap", "config.yaml")
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	configPath := Path()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment variables take precedence
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if user := os.Getenv("NEUROMAP_USER"); user != "" {
		cfg.User.ID = user
	}

	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configPath := Path()
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.Model = "gpt-3.5-turbo"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.Model = "llama3.2"
	cfg.Embeddings.OpenAIModel = "text-embedding-3-small"
	cfg.Embeddings.OllamaModel = "nomic-embed-text"
	cfg.Processing.ChunkSize = 256
	cfg.Processing.ChunkOverlap = 40
	cfg.Processing.TopK = 5
	cfg.History.Path = filepath.Join(os.Getenv("HOME"), ".neuromap", "history.db")
	cfg.User.ID = os.Getenv("NEUROMAP_USER")

	return cfg
}
