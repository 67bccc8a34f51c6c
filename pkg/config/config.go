package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "CINEMATCH_"

// Config holds the full service configuration.
type Config struct {
	Service    ServiceConfig    `koanf:"service"`
	Dataset    DatasetConfig    `koanf:"dataset"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Database   DatabaseConfig   `koanf:"database"`
	TMDB       TMDBConfig       `koanf:"tmdb"`
	Hybrid     HybridConfig     `koanf:"hybrid"`
}

// ServiceConfig contains service metadata and the listen address.
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Environment string `koanf:"environment"` // dev, staging, production
	Port        int    `koanf:"port"`
}

// DatasetConfig locates the raw movie and credit CSV files.
type DatasetConfig struct {
	MoviesPath  string `koanf:"movies_path"`
	CreditsPath string `koanf:"credits_path"`
}

// SimilarityConfig controls matrix construction and persistence.
type SimilarityConfig struct {
	CacheDir string `koanf:"cache_dir"`
	MaxVocab int    `koanf:"max_vocab"`
	TopCast  int    `koanf:"top_cast"`
}

// DatabaseConfig locates the user preference store.
type DatabaseConfig struct {
	Path string `koanf:"path"` // sqlite database file
}

// TMDBConfig configures the external image/detail service.
type TMDBConfig struct {
	BaseURL      string        `koanf:"base_url"`
	ImageBaseURL string        `koanf:"image_base_url"`
	APIKey       string        `koanf:"api_key"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryDelay   time.Duration `koanf:"retry_delay"`
	RatePerSec   float64       `koanf:"rate_per_sec"`
}

// HybridConfig holds the default hybrid blending weights.
type HybridConfig struct {
	Content    float64 `koanf:"content"`
	Genre      float64 `koanf:"genre"`
	Popularity float64 `koanf:"popularity"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "cinematch",
			Environment: "dev",
			Port:        8080,
		},
		Dataset: DatasetConfig{
			MoviesPath:  "files/tmdb_5000_movies.csv",
			CreditsPath: "files/tmdb_5000_credits.csv",
		},
		Similarity: SimilarityConfig{
			CacheDir: "files/similarity",
			MaxVocab: 5000,
			TopCast:  10,
		},
		Database: DatabaseConfig{
			Path: "files/preferences.db",
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Timeout:      15 * time.Second,
			MaxRetries:   2,
			RetryDelay:   time.Second,
			RatePerSec:   4,
		},
		Hybrid: HybridConfig{
			Content:    0.5,
			Genre:      0.3,
			Popularity: 0.2,
		},
	}
}

// Load loads configuration from defaults, an optional YAML file and
// CINEMATCH_ environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			switch ext := strings.ToLower(filepath.Ext(path)); ext {
			case ".yaml", ".yml":
				if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
			default:
				return nil, fmt.Errorf("unsupported config file format: %s", ext)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// Convert CINEMATCH_DATABASE_PATH to database.path
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "_", "."))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", c.Service.Port)
	}
	if c.Dataset.MoviesPath == "" || c.Dataset.CreditsPath == "" {
		return fmt.Errorf("dataset movie and credit paths are required")
	}
	if c.Similarity.MaxVocab <= 0 {
		return fmt.Errorf("similarity max_vocab must be positive")
	}
	if c.Similarity.TopCast <= 0 {
		return fmt.Errorf("similarity top_cast must be positive")
	}
	if c.TMDB.MaxRetries < 0 {
		return fmt.Errorf("tmdb max_retries must not be negative")
	}
	if c.Hybrid.Content+c.Hybrid.Genre+c.Hybrid.Popularity <= 0 {
		return fmt.Errorf("hybrid weights must sum to a positive total")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Service.Environment == "dev" || c.Service.Environment == "development"
}

// ListenAddress returns the HTTP listen address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf(":%d", c.Service.Port)
}
