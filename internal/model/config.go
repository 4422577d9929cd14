package model

import "time"

// Config is the full configuration surface of the oracle. Every component
// receives the slice of it that it needs; there is no global state.
type Config struct {
	Feed        FeedConfig        `yaml:"feed" mapstructure:"feed"`
	Resolution  ResolutionConfig  `yaml:"resolution" mapstructure:"resolution"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Scheduler   SchedulerConfig   `yaml:"scheduler" mapstructure:"scheduler"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
}

// FeedConfig controls signal collection from the news-search feed.
type FeedConfig struct {
	// BaseURLs are tried in order per query; the query string is appended
	// URL-encoded. The default pair routes through a text-extraction proxy
	// first over HTTPS, then over plain HTTP.
	BaseURLs           []string      `yaml:"base_urls" mapstructure:"base_urls"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent          string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxSignalsPerQuery int           `yaml:"max_signals_per_query" mapstructure:"max_signals_per_query"`
	MaxSignalsTotal    int           `yaml:"max_signals_total" mapstructure:"max_signals_total"`
	CacheTTL           time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RequestsPerSecond  float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst              int           `yaml:"burst" mapstructure:"burst"`
	RespectRobots      bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ResolutionConfig controls the heuristic aggregation.
type ResolutionConfig struct {
	// Threshold is the minimum confidence required to settle instead of
	// staying PENDING.
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	// DomainTolerance is the fraction of the domain span by which an
	// extracted value may fall outside the domain before it is discarded.
	DomainTolerance float64 `yaml:"domain_tolerance" mapstructure:"domain_tolerance"`
}

// LLMConfig controls the optional corroboration call. An empty APIKey
// disables corroboration entirely.
type LLMConfig struct {
	APIKey          string        `yaml:"api_key" mapstructure:"api_key"`
	Model           string        `yaml:"model" mapstructure:"model"`
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	MaxRetries      int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
}

// Enabled reports whether a credential is configured.
func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

// SchedulerConfig controls the periodic re-check pass.
type SchedulerConfig struct {
	// RecheckInterval is the minimum spacing between two checks of the
	// same unresolved market.
	RecheckInterval time.Duration `yaml:"recheck_interval" mapstructure:"recheck_interval"`
	// TickInterval is how often the run daemon wakes up for a pass.
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
}

// ConcurrencyConfig bounds parallelism across markets. The default of one
// worker processes markets sequentially, which is the safest posture
// against feed and LLM rate limits.
type ConcurrencyConfig struct {
	CheckWorkers int `yaml:"check_workers" mapstructure:"check_workers"`
}

// StoreConfig selects the market store backend.
type StoreConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the built-in defaults, overridable via config
// file, environment, and flags.
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURLs: []string{
				"https://r.jina.ai/https://news.google.com/rss/search?q=",
				"http://r.jina.ai/https://news.google.com/rss/search?q=",
			},
			Timeout:            10 * time.Second,
			UserAgent:          "settler/0.1 (+https://github.com/settlerhq/settler)",
			MaxBodyBytes:       2_000_000,
			MaxSignalsPerQuery: 6,
			MaxSignalsTotal:    24,
			CacheTTL:           5 * time.Minute,
			RequestsPerSecond:  1,
			Burst:              3,
			RespectRobots:      true,
		},
		Resolution: ResolutionConfig{
			Threshold:       0.6,
			DomainTolerance: 0.10,
		},
		LLM: LLMConfig{
			Model:           "gpt-4o-mini",
			MaxRetries:      2,
			RetryDelay:      500 * time.Millisecond,
			Timeout:         30 * time.Second,
			MaxOutputTokens: 512,
		},
		Scheduler: SchedulerConfig{
			RecheckInterval: 5 * time.Minute,
			TickInterval:    time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			CheckWorkers: 1,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "markets.json",
		},
	}
}
