package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/airwatch/internal/score"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type S3Config struct {
	Region     string `toml:"region"`
	DataBucket string `toml:"data_bucket"`
	LogBucket  string `toml:"log_bucket"`
	Prefix     string `toml:"prefix"`
	LogPrefix  string `toml:"log_prefix"`
}

type RetrievalConfig struct {
	TopK               int   `toml:"top_k"`
	MaxFilesToScan     int   `toml:"max_files_to_scan"`
	MaxWorkers         int   `toml:"max_workers"`
	MaxFileSize        int64 `toml:"max_file_size"`
	LimitContextChars  int   `toml:"limit_context_chars"`
	RelevanceThreshold int   `toml:"relevance_threshold"`
}

type CacheConfig struct {
	IntentCapacity   int `toml:"intent_capacity"`
	IntentTTLMinutes int `toml:"intent_ttl_minutes"`
}

type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	S3        S3Config        `toml:"s3"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Scoring   score.Weights   `toml:"scoring"`
	Cache     CacheConfig     `toml:"cache"`
	ChatLog   bool            `toml:"chatlog_enabled"`
}

// Default returns the tuned baseline configuration.
func Default() *Config {
	return &Config{
		S3: S3Config{
			Region:     "ap-northeast-2",
			DataBucket: "aws2-airwatch-data",
			LogBucket:  "aws2-airwatch-chatlogs",
			LogPrefix:  "chatlogs/",
		},
		Retrieval: RetrievalConfig{
			TopK:               8,
			MaxFilesToScan:     100000,
			MaxWorkers:         10,
			MaxFileSize:        1 << 20,
			LimitContextChars:  100000,
			RelevanceThreshold: 1,
		},
		Scoring: score.DefaultWeights(),
		Cache: CacheConfig{
			IntentCapacity:   256,
			IntentTTLMinutes: 30,
		},
		ChatLog: true,
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, nil
}
