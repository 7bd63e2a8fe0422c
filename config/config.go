// Package config loads service configuration from YAML files with
// environment-variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sovdef/filesearch/core"
)

// Config holds all filesearch configuration.
type Config struct {
	DBPath    string          `yaml:"db_path"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Upload    UploadConfig    `yaml:"upload"`
	Search    SearchConfig    `yaml:"search"`
	AI        AIConfig        `yaml:"ai"`
}

// CacheConfig controls the search result cache.
type CacheConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// RateLimitConfig controls per-client request throttling.
// A zero limit leaves the category unlimited.
type RateLimitConfig struct {
	Window          time.Duration `yaml:"window"`
	Upload          int           `yaml:"upload"`
	BatchUpload     int           `yaml:"batch_upload"`
	Search          int           `yaml:"search"`
	StoreManagement int           `yaml:"store_management"`
}

// UploadConfig controls ingestion.
type UploadConfig struct {
	MaxFileSize int64         `yaml:"max_file_size"`
	Timeout     time.Duration `yaml:"timeout"`
	PoolSize    int           `yaml:"pool_size"`
}

// SearchConfig controls the search orchestrator.
type SearchConfig struct {
	MaxCitations int           `yaml:"max_citations"`
	Timeout      time.Duration `yaml:"timeout"`
}

// AIConfig defines the upstream generation service.
type AIConfig struct {
	Host            string  `yaml:"host"`
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DBPath: "filesearch.db",
		Cache: CacheConfig{
			Capacity: 1000,
			TTL:      15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Window:          time.Minute,
			Upload:          10,
			BatchUpload:     5,
			Search:          100,
			StoreManagement: 20,
		},
		Upload: UploadConfig{
			MaxFileSize: core.DefaultMaxFileSize,
			Timeout:     60 * time.Second,
			PoolSize:    0, // 0 means pipeline default
		},
		Search: SearchConfig{
			MaxCitations: 5,
			Timeout:      30 * time.Second,
		},
		AI: AIConfig{
			Host:            "http://localhost:11434/v1",
			Model:           "qwen2.5:3b",
			Temperature:     0.2,
			MaxOutputTokens: 1024,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.RateLimit.Window)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.Search.MaxCitations <= 0 {
		return fmt.Errorf("max citations must be positive, got %d", c.Search.MaxCitations)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.AI.Temperature)
	}
	if c.AI.Host == "" {
		return fmt.Errorf("ai host cannot be empty")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai model cannot be empty")
	}
	return nil
}
