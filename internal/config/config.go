package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Geocode   GeocodeConfig   `yaml:"geocode"`
	Notify    NotifyConfig    `yaml:"notify"`
	Cache     CacheConfig     `yaml:"cache"`
	RealPrice RealPriceConfig `yaml:"realprice"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Timezone  string          `yaml:"timezone"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// CrawlerConfig contains settings for the external collector process
type CrawlerConfig struct {
	// Command is the interpreter used to launch the collector.
	Command string `yaml:"command"`
	// Script is the collector entrypoint, relative to BaseDir.
	Script string `yaml:"script"`
	// BaseDir is the collector working directory; result artifacts are
	// written to BaseDir/crawled_data.
	BaseDir string `yaml:"base_dir"`

	BaseTimeoutMinutes       int `yaml:"base_timeout_minutes"`
	PerComplexTimeoutMinutes int `yaml:"per_complex_timeout_minutes"`
	MinTimeoutMinutes        int `yaml:"min_timeout_minutes"`
	MaxTimeoutMinutes        int `yaml:"max_timeout_minutes"`

	ListingChunkSize int `yaml:"listing_chunk_size"`
}

// GeocodeConfig contains reverse-geocoding API settings
type GeocodeConfig struct {
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// NotifyConfig contains notification dispatch settings
type NotifyConfig struct {
	BatchSize         int    `yaml:"batch_size"`
	BatchPauseSeconds int    `yaml:"batch_pause_seconds"`
	Username          string `yaml:"username"`
}

// CacheConfig contains TTL cache settings
type CacheConfig struct {
	TTLDays int `yaml:"ttl_days"`
}

// RealPriceConfig contains settings for the government transaction
// price API
type RealPriceConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SchedulerConfig contains schedule runner settings
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			Command:                  "python3",
			Script:                   "logic/collector.py",
			BaseDir:                  ".",
			BaseTimeoutMinutes:       5,
			PerComplexTimeoutMinutes: 3,
			MinTimeoutMinutes:        10,
			MaxTimeoutMinutes:        30,
			ListingChunkSize:         1000,
		},
		Geocode: GeocodeConfig{
			TimeoutSeconds: 10,
		},
		Notify: NotifyConfig{
			BatchSize:         10,
			BatchPauseSeconds: 1,
			Username:          "complex-tracker",
		},
		Cache: CacheConfig{
			TTLDays: 30,
		},
		RealPrice: RealPriceConfig{
			Endpoint:       "http://apis.data.go.kr/1613000",
			TimeoutSeconds: 15,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetBaseTimeout returns the base timeout as a duration
func (c *CrawlerConfig) GetBaseTimeout() time.Duration {
	return time.Duration(c.BaseTimeoutMinutes) * time.Minute
}

// GetPerComplexTimeout returns the per-complex timeout allowance
func (c *CrawlerConfig) GetPerComplexTimeout() time.Duration {
	return time.Duration(c.PerComplexTimeoutMinutes) * time.Minute
}

// GetMinTimeout returns the lower timeout clamp
func (c *CrawlerConfig) GetMinTimeout() time.Duration {
	return time.Duration(c.MinTimeoutMinutes) * time.Minute
}

// GetMaxTimeout returns the upper timeout clamp
func (c *CrawlerConfig) GetMaxTimeout() time.Duration {
	return time.Duration(c.MaxTimeoutMinutes) * time.Minute
}

// GetBatchPause returns the inter-batch pause as a duration
func (c *NotifyConfig) GetBatchPause() time.Duration {
	return time.Duration(c.BatchPauseSeconds) * time.Second
}

// GetTTL returns the cache TTL as a duration
func (c *CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// GetTimeout returns the geocode request timeout as a duration
func (c *GeocodeConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetTimeout returns the price API request timeout as a duration
func (c *RealPriceConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
