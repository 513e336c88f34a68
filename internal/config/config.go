package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	LLM      LLMConfig      `yaml:"llm"`
	Vector   VectorConfig   `yaml:"vector"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type VectorConfig struct {
	Path          string `yaml:"path"`
	InMemory      bool   `yaml:"in_memory"`
	EncryptionKey string `yaml:"encryption_key"`
}

type ChunkerConfig struct {
	MaxChunkSize     int `yaml:"max_chunk_size"`
	MinChunkSize     int `yaml:"min_chunk_size"`
	OverlapSentences int `yaml:"overlap_sentences"`
}

type ScoringConfig struct {
	CapabilityWeight float64 `yaml:"capability_weight"`
	PastWinWeight    float64 `yaml:"past_win_weight"`
	PreferenceWeight float64 `yaml:"preference_weight"`
	TopCapabilities  int     `yaml:"top_capabilities"`
}

type FetcherConfig struct {
	BaseURL string `yaml:"base_url"`
	Limit   int    `yaml:"limit"`
}

const (
	defaultMaxChunkSize     = 800
	defaultMinChunkSize     = 100
	defaultOverlapSentences = 1
	defaultTopCapabilities  = 3
	defaultFetchLimit       = 100
	defaultFetcherBaseURL   = "https://www.contractsfinder.service.gov.uk/Published/Notices/OCDS/Search"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values so a partial config file still works
func (c *Config) ApplyDefaults() {
	if c.Chunker.MaxChunkSize == 0 {
		c.Chunker.MaxChunkSize = defaultMaxChunkSize
	}
	if c.Chunker.MinChunkSize == 0 {
		c.Chunker.MinChunkSize = defaultMinChunkSize
	}
	if c.Chunker.OverlapSentences == 0 {
		c.Chunker.OverlapSentences = defaultOverlapSentences
	}
	if c.Scoring.CapabilityWeight == 0 && c.Scoring.PastWinWeight == 0 && c.Scoring.PreferenceWeight == 0 {
		c.Scoring.CapabilityWeight = 0.4
		c.Scoring.PastWinWeight = 0.3
		c.Scoring.PreferenceWeight = 0.3
	}
	if c.Scoring.TopCapabilities == 0 {
		c.Scoring.TopCapabilities = defaultTopCapabilities
	}
	if c.Fetcher.BaseURL == "" {
		c.Fetcher.BaseURL = defaultFetcherBaseURL
	}
	if c.Fetcher.Limit == 0 {
		c.Fetcher.Limit = defaultFetchLimit
	}
}
