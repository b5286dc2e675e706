package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

type SearchConfig struct {
	DefaultLimit        int     `toml:"default_limit"`
	SourceBonus         float64 `toml:"source_bonus"`
	MaxVocabIngredients int     `toml:"max_vocab_ingredients"`
	VocabCachePath      string  `toml:"vocab_cache_path"`
	LLMTimeoutSecs      int     `toml:"llm_timeout_secs"`
	GraphTimeoutSecs    int     `toml:"graph_timeout_secs"`
	StoreTimeoutSecs    int     `toml:"store_timeout_secs"`
}

type Prompts struct {
	Intent string `toml:"intent"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Neo4j    Neo4jConfig    `toml:"neo4j"`
	Postgres PostgresConfig `toml:"postgres"`
	Search   SearchConfig   `toml:"search"`
	Prompts  Prompts        `toml:"prompts"`
}

// Default returns a config usable without a config file, matching the
// local docker-compose setup.
func Default() *Config {
	cfg := &Config{
		Neo4j: Neo4jConfig{
			URI:  "bolt://localhost:7687",
			User: "neo4j",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "recipe_user",
			Database: "recipes",
			SSLMode:  "disable",
		},
	}
	cfg.fillDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.fillDefaults()
	return &cfg, nil
}

func (c *Config) fillDefaults() {
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.SourceBonus <= 0 {
		c.Search.SourceBonus = 0.15
	}
	if c.Search.MaxVocabIngredients <= 0 {
		c.Search.MaxVocabIngredients = 150
	}
	if c.Search.VocabCachePath == "" {
		c.Search.VocabCachePath = "data/controlled_vocab.json"
	}
	if c.Search.LLMTimeoutSecs <= 0 {
		c.Search.LLMTimeoutSecs = 30
	}
	if c.Search.GraphTimeoutSecs <= 0 {
		c.Search.GraphTimeoutSecs = 10
	}
	if c.Search.StoreTimeoutSecs <= 0 {
		c.Search.StoreTimeoutSecs = 10
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
}
