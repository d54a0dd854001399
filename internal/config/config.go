// Package config loads and validates the drey.yml project configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where drey looks for configuration when --config is not given.
const DefaultPath = "drey.yml"

// Default batching parameters applied when drey.yml leaves them unset.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultMinBatchSize        = 1
	DefaultMaxBatchSize        = 5
	DefaultStoreDir            = ".drey/batches"
)

// Config represents the top-level drey.yml configuration.
type Config struct {
	Version  string         `yaml:"version"`
	Pool     string         `yaml:"pool"` // Owning repository or issue-pool identifier
	Store    StoreConfig    `yaml:"store,omitempty"`
	Batching BatchingConfig `yaml:"batching,omitempty"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string       `yaml:"backend,omitempty"` // "file" (default) or "redis"
	Dir     string       `yaml:"dir,omitempty"`     // file backend: batch directory
	Redis   *RedisConfig `yaml:"redis,omitempty"`   // redis backend settings
}

// RedisConfig holds connection settings for the Redis store backend.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db,omitempty"`
}

// BatchingConfig holds the batch-formation parameters. Pointer fields
// distinguish "unset, apply default" from an explicit zero.
type BatchingConfig struct {
	SimilarityThreshold *float64 `yaml:"similarity_threshold,omitempty"` // Default 0.7
	MinBatchSize        *int     `yaml:"min_batch_size,omitempty"`       // Default 1
	MaxBatchSize        *int     `yaml:"max_batch_size,omitempty"`       // Default 5
	Validate            *bool    `yaml:"validate,omitempty"`             // Default true
}

// Validate performs strict validation on the configuration and applies
// defaults for unset fields.
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: pool
	if c.Pool == "" {
		return fmt.Errorf("pool is required")
	}

	// Store backend defaults and validation
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	switch c.Store.Backend {
	case "file":
		if c.Store.Dir == "" {
			c.Store.Dir = DefaultStoreDir
		}
	case "redis":
		if c.Store.Redis == nil || c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required when backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be 'file' or 'redis')", c.Store.Backend)
	}

	// Batching defaults
	if c.Batching.SimilarityThreshold == nil {
		threshold := DefaultSimilarityThreshold
		c.Batching.SimilarityThreshold = &threshold
	}
	if c.Batching.MinBatchSize == nil {
		minSize := DefaultMinBatchSize
		c.Batching.MinBatchSize = &minSize
	}
	if c.Batching.MaxBatchSize == nil {
		maxSize := DefaultMaxBatchSize
		c.Batching.MaxBatchSize = &maxSize
	}
	if c.Batching.Validate == nil {
		validate := true
		c.Batching.Validate = &validate
	}

	// Batching bounds
	if *c.Batching.SimilarityThreshold < 0 || *c.Batching.SimilarityThreshold > 1 {
		return fmt.Errorf("batching.similarity_threshold must be in [0, 1], got %v", *c.Batching.SimilarityThreshold)
	}
	if *c.Batching.MinBatchSize < 1 {
		return fmt.Errorf("batching.min_batch_size must be >= 1, got %d", *c.Batching.MinBatchSize)
	}
	if *c.Batching.MaxBatchSize < *c.Batching.MinBatchSize {
		return fmt.Errorf("batching.max_batch_size (%d) must be >= batching.min_batch_size (%d)",
			*c.Batching.MaxBatchSize, *c.Batching.MinBatchSize)
	}

	return nil
}

// Load reads and validates drey.yml from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
