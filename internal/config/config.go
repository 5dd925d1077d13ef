// Package config loads settings from the environment and the sources file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/score"
)

// Source kinds accepted in sources.yaml.
const (
	KindCareerPage = "careerpage"
	KindAggregator = "aggregator"
	KindRSS        = "rss"
)

// SourceConfig describes a single configured source.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Source  string `yaml:"source"`  // aggregator only: bloomberry, linkedin, indeed
	URL     string `yaml:"url"`     // board/search/feed base URL
	Token   string `yaml:"token"`   // careerpage board token
	AppID   string `yaml:"app_id"`  // aggregator credentials, expanded from env
	AppKey  string `yaml:"app_key"` //
	Query   string `yaml:"query"`   // aggregator search query
	Company string `yaml:"company"` // careerpage name / rss feed-level override
	Contact string `yaml:"contact"` // careerpage contact e-mail
	Enabled bool   `yaml:"enabled"`
}

// Enrichment holds the company verification provider settings.
type Enrichment struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// Config is the root configuration for the jobsift ingester.
type Config struct {
	DedupStoreAddr string // redis:// URL, sqlite file path, or empty for in-memory
	DatabaseURL    string // postgres sink; empty means log sink
	Enrichment     Enrichment
	FetchInterval  time.Duration
	Concurrency    int64
	StaleAge       time.Duration
	Weights        score.Weights
	Sources        []SourceConfig
}

// EnabledSources returns only the sources marked enabled.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Load reads the environment and the sources file named by JOBSIFT_SOURCES
// (or sourcesPath if non-empty) and returns a validated Config.
func Load(sourcesPath string) (*Config, error) {
	if sourcesPath == "" {
		sourcesPath = os.Getenv("JOBSIFT_SOURCES")
	}
	if sourcesPath == "" {
		sourcesPath = "sources.yaml"
	}

	sources, err := loadSources(sourcesPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DedupStoreAddr: os.Getenv("DEDUP_STORE_ADDR"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Sources:        sources,
	}

	cfg.Enrichment = Enrichment{
		BaseURL:     os.Getenv("ENRICHMENT_URL"),
		APIKey:      os.Getenv("ENRICHMENT_API_KEY"),
		Timeout:     envMillis("ENRICHMENT_TIMEOUT_MS", 3000),
		MaxAttempts: envInt("ENRICHMENT_MAX_ATTEMPTS", 3),
		BackoffBase: envMillis("ENRICHMENT_BACKOFF_BASE_MS", 200),
		BackoffCap:  envMillis("ENRICHMENT_BACKOFF_CAP_MS", 2000),
	}

	cfg.FetchInterval = time.Duration(envInt("FETCH_INTERVAL_MINUTES", 60)) * time.Minute
	cfg.StaleAge = time.Duration(envInt("STALE_AGE_DAYS", 30)) * 24 * time.Hour

	enabled := len(cfg.EnabledSources())
	cfg.Concurrency = int64(envInt("FETCH_CONCURRENCY", enabled))

	weights, err := loadWeights()
	if err != nil {
		return nil, err
	}
	cfg.Weights = weights

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSources reads and parses the sources file, expanding ${VAR}
// references so credentials stay out of the file itself.
func loadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw struct {
		Sources []SourceConfig `yaml:"sources"`
	}
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	return raw.Sources, nil
}

// loadWeights applies TRUST_WEIGHT_* overrides on top of the defaults and
// re-normalizes so overriding one weight rescales the rest.
func loadWeights() (score.Weights, error) {
	w := score.DefaultWeights()
	var err error

	if w.Source, err = envFloat("TRUST_WEIGHT_SOURCE", w.Source); err != nil {
		return score.Weights{}, err
	}
	if w.Enrichment, err = envFloat("TRUST_WEIGHT_ENRICHMENT", w.Enrichment); err != nil {
		return score.Weights{}, err
	}
	if w.Freshness, err = envFloat("TRUST_WEIGHT_FRESHNESS", w.Freshness); err != nil {
		return score.Weights{}, err
	}
	if w.Quality, err = envFloat("TRUST_WEIGHT_QUALITY", w.Quality); err != nil {
		return score.Weights{}, err
	}
	if w.Contact, err = envFloat("TRUST_WEIGHT_CONTACT", w.Contact); err != nil {
		return score.Weights{}, err
	}

	return w.Normalize()
}

func validate(cfg *Config) error {
	enabled := cfg.EnabledSources()
	if len(enabled) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	for _, s := range enabled {
		switch s.Kind {
		case KindCareerPage:
			if s.URL == "" || s.Token == "" {
				return fmt.Errorf("source %s: careerpage needs url and token", s.Name)
			}
		case KindAggregator:
			if _, ok := model.ParseSource(s.Source); !ok {
				return fmt.Errorf("source %s: unknown aggregator source %q", s.Name, s.Source)
			}
			if s.URL == "" || s.AppID == "" || s.AppKey == "" {
				return fmt.Errorf("source %s: aggregator needs url, app_id and app_key", s.Name)
			}
		case KindRSS:
			if s.URL == "" {
				return fmt.Errorf("source %s: rss needs url", s.Name)
			}
		default:
			return fmt.Errorf("source %s: unknown kind %q", s.Name, s.Kind)
		}
	}

	if cfg.Concurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", cfg.Concurrency)
	}
	if cfg.FetchInterval <= 0 {
		return fmt.Errorf("FETCH_INTERVAL_MINUTES must be positive, got %v", cfg.FetchInterval)
	}
	if cfg.Enrichment.MaxAttempts < 1 {
		return fmt.Errorf("ENRICHMENT_MAX_ATTEMPTS must be at least 1, got %d", cfg.Enrichment.MaxAttempts)
	}
	return nil
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envMillis(name string, fallback int) time.Duration {
	return time.Duration(envInt(name, fallback)) * time.Millisecond
}

func envFloat(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, v, err)
	}
	return f, nil
}
