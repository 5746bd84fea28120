// Package config loads and validates the service's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the root configuration for the triage service.
type Config struct {
	Models    ModelConfig     `yaml:"models"`
	Cache     CacheConfig     `yaml:"cache"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Detectors DetectorConfig  `yaml:"detectors"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ModelConfig configures the two model tiers and their cost units.
type ModelConfig struct {
	Endpoint       string  `yaml:"endpoint"`
	CheapModel     string  `yaml:"cheap_model"`
	ExpensiveModel string  `yaml:"expensive_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Timeout        string  `yaml:"timeout"` // Go duration string, e.g. "15s"
	CheapCost      float64 `yaml:"cheap_cost"`
	ExpensiveCost  float64 `yaml:"expensive_cost"`
}

// TimeoutDuration parses the model call timeout, defaulting to 15s.
func (m ModelConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(m.Timeout); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}

// CacheConfig configures the response cache backend.
type CacheConfig struct {
	// Backend selects "memory" or "redis". Empty disables caching.
	Backend        string `yaml:"backend"`
	RedisURL       string `yaml:"redis_url"`
	TTL            string `yaml:"ttl"` // Go duration string, e.g. "24h"
	MaxEntries     int    `yaml:"max_entries"`
	EvictionPolicy string `yaml:"eviction_policy"`
}

// TTLDuration parses the cache TTL, defaulting to 24h.
func (c CacheConfig) TTLDuration() time.Duration {
	if d, err := time.ParseDuration(c.TTL); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// KnowledgeConfig configures the retrieval store.
type KnowledgeConfig struct {
	// Backend selects "memory" or "milvus".
	Backend       string `yaml:"backend"`
	MilvusAddress string `yaml:"milvus_address"`
	Collection    string `yaml:"collection"`
	VectorDim     int    `yaml:"vector_dim"`
	ChunkTokens   int    `yaml:"chunk_tokens"`
}

// DetectorConfig configures the background sweep of detector window state.
type DetectorConfig struct {
	// SweepSchedule is a cron expression; empty uses the default.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// AnalyticsConfig configures the periodic analytics flush.
type AnalyticsConfig struct {
	// FlushSchedule is a cron expression; empty uses the default.
	FlushSchedule string `yaml:"flush_schedule"`
}

// MetricsConfig configures the Prometheus metrics listener.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

var (
	config     *Config
	configOnce sync.Once
	configErr  error
	configMu   sync.RWMutex
)

// Load parses the config file once and caches it globally.
func Load(configPath string) (*Config, error) {
	configOnce.Do(func() {
		cfg, err := Parse(configPath)
		if err != nil {
			configErr = err
			return
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	if configErr != nil {
		return nil, configErr
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return config, nil
}

// Get returns the cached configuration, or nil before Load succeeds.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

// Parse parses a YAML config file without touching the global cache.
func Parse(configPath string) (*Config, error) {
	// Resolve symlinks to handle Kubernetes ConfigMap mounts
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Models.CheapCost <= 0 {
		c.Models.CheapCost = 0.00001
	}
	if c.Models.ExpensiveCost <= 0 {
		c.Models.ExpensiveCost = 0.02
	}
	if c.Cache.EvictionPolicy == "" {
		c.Cache.EvictionPolicy = "fifo"
	}
	if c.Knowledge.Backend == "" {
		c.Knowledge.Backend = "memory"
	}
	if c.Knowledge.Collection == "" {
		c.Knowledge.Collection = "knowledge_chunks"
	}
	if c.Knowledge.VectorDim <= 0 {
		c.Knowledge.VectorDim = 1536
	}
	if c.Knowledge.ChunkTokens <= 0 {
		c.Knowledge.ChunkTokens = 500
	}
	if c.Detectors.SweepSchedule == "" {
		c.Detectors.SweepSchedule = "@every 5m"
	}
	if c.Analytics.FlushSchedule == "" {
		c.Analytics.FlushSchedule = "@hourly"
	}
	if c.Metrics.Port <= 0 {
		c.Metrics.Port = 9190
	}
}

func (c *Config) validate() error {
	if c.Models.CheapModel == "" {
		return fmt.Errorf("models.cheap_model is required")
	}
	if c.Models.ExpensiveModel == "" {
		return fmt.Errorf("models.expensive_model is required")
	}
	if c.Models.Timeout != "" {
		if _, err := time.ParseDuration(c.Models.Timeout); err != nil {
			return fmt.Errorf("invalid models.timeout %q: %w", c.Models.Timeout, err)
		}
	}
	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("invalid cache.ttl %q: %w", c.Cache.TTL, err)
		}
	}
	switch c.Cache.Backend {
	case "", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	switch c.Knowledge.Backend {
	case "memory":
	case "milvus":
		if c.Knowledge.MilvusAddress == "" {
			return fmt.Errorf("knowledge.milvus_address is required when knowledge.backend is milvus")
		}
	default:
		return fmt.Errorf("unknown knowledge.backend %q", c.Knowledge.Backend)
	}
	return nil
}
