// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citecheck/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the target fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRedirects caps redirect hops (default 3). Every hop is re-checked
	// against the private-target policy.
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects"`

	// MaxBodyBytes caps how much of a page body is read (default 1 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	// AllowPrivate disables the private/loopback target block. Off in
	// production; tests enable it to reach httptest servers.
	AllowPrivate bool `json:"allow_private" yaml:"allow_private"`
}

// ScoreConfig holds the scorer's weights and thresholds. The defaults were
// tuned against the reference scenarios; all values are adjustable.
type ScoreConfig struct {
	// MatchThreshold is the confidence at or above which the URL is
	// considered to point at the cited work (default 0.70).
	MatchThreshold float64 `json:"match_threshold" yaml:"match_threshold"`

	// FieldThreshold is the per-field score below which a mismatch reason
	// is recorded (default 0.50).
	FieldThreshold float64 `json:"field_threshold" yaml:"field_threshold"`

	// AmbiguousFloor is the confidence at or above which a non-match is
	// flagged for human review instead of auto-correction (default 0.40).
	AmbiguousFloor float64 `json:"ambiguous_floor" yaml:"ambiguous_floor"`

	TitleWeight  float64 `json:"title_weight" yaml:"title_weight"`
	AuthorWeight float64 `json:"author_weight" yaml:"author_weight"`
	YearWeight   float64 `json:"year_weight" yaml:"year_weight"`
}

// ResolverConfig holds settings for the URL resolver chain.
type ResolverConfig struct {
	HTTPConfig `yaml:",inline"`

	// ChainDeadline bounds the whole chain regardless of per-call
	// timeouts (default 20s).
	ChainDeadline time.Duration `json:"chain_deadline" yaml:"chain_deadline"`

	// AcceptThreshold is the title similarity a search hit must reach
	// before its URL is accepted (default 0.80).
	AcceptThreshold float64 `json:"accept_threshold" yaml:"accept_threshold"`

	// MaxResults is how many candidates each search source requests.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// CrossrefMailto and OpenAlexEmail identify the caller for polite-pool
	// access. NCBIAPIKey raises the PubMed limit from 3 to 10 req/s.
	CrossrefMailto        string `json:"crossref_mailto,omitempty" yaml:"crossref_mailto,omitempty"`
	OpenAlexEmail         string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
	NCBIAPIKey            string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`
}

// CacheConfig holds settings for the validation result cache.
type CacheConfig struct {
	// Path is the SQLite database file (default ".citecheck/cache.db").
	Path string `json:"path" yaml:"path"`

	// TTL is how long entries stay fresh (default 30 days).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// ServiceLimit configures the token bucket for one external service.
type ServiceLimit struct {
	// PerSecond is the sustained request rate.
	PerSecond float64 `json:"per_second" yaml:"per_second"`

	// Burst is the bucket depth.
	Burst int `json:"burst" yaml:"burst"`
}

// RateLimitConfig holds the per-service budgets and the acquire timeout that
// converts prolonged blocking into a recoverable error.
type RateLimitConfig struct {
	AcquireTimeout time.Duration           `json:"acquire_timeout" yaml:"acquire_timeout"`
	Services       map[string]ServiceLimit `json:"services" yaml:"services"`
}

// EngineConfig groups all component configurations for the validation engine.
type EngineConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Score     ScoreConfig     `json:"score" yaml:"score"`
	Resolver  ResolverConfig  `json:"resolver" yaml:"resolver"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`

	// Concurrency bounds the batch worker pool (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Per-citation deadlines by tier.
	QuickDeadline    time.Duration `json:"quick_deadline" yaml:"quick_deadline"`
	StandardDeadline time.Duration `json:"standard_deadline" yaml:"standard_deadline"`
	ThoroughDeadline time.Duration `json:"thorough_deadline" yaml:"thorough_deadline"`

	// MismatchLog is the append-only mismatch log file; empty disables it.
	MismatchLog string `json:"mismatch_log" yaml:"mismatch_log"`
}

// DeadlineFor returns the per-citation deadline for a tier.
func (c EngineConfig) DeadlineFor(tier Tier) time.Duration {
	switch tier {
	case TierQuick:
		return c.QuickDeadline
	case TierStandard:
		return c.StandardDeadline
	default:
		return c.ThoroughDeadline
	}
}

// DefaultEngineConfig returns the engine defaults. Callers overwrite fields
// from flags, config files, and secrets before constructing the engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Fetch: FetchConfig{
			HTTPConfig:   HTTPConfig{Timeout: 15 * time.Second, UserAgent: "citecheck/0.1"},
			MaxRedirects: 3,
			MaxBodyBytes: 1 << 20,
		},
		Score: ScoreConfig{
			MatchThreshold: 0.70,
			FieldThreshold: 0.50,
			AmbiguousFloor: 0.40,
			TitleWeight:    0.5,
			AuthorWeight:   0.3,
			YearWeight:     0.2,
		},
		Resolver: ResolverConfig{
			HTTPConfig:      HTTPConfig{Timeout: 10 * time.Second, UserAgent: "citecheck/0.1"},
			ChainDeadline:   20 * time.Second,
			AcceptThreshold: 0.80,
			MaxResults:      5,
		},
		Cache: CacheConfig{
			Path: ".citecheck/cache.db",
			TTL:  30 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			AcquireTimeout: 10 * time.Second,
			Services: map[string]ServiceLimit{
				"fetch":            {PerSecond: 10, Burst: 10},
				"pubmed":           {PerSecond: 3, Burst: 3},
				"crossref":         {PerSecond: 2, Burst: 2},
				"semantic_scholar": {PerSecond: 1, Burst: 1},
				"openalex":         {PerSecond: 5, Burst: 5},
			},
		},
		Concurrency:      4,
		QuickDeadline:    2 * time.Second,
		StandardDeadline: 10 * time.Second,
		ThoroughDeadline: 30 * time.Second,
		MismatchLog:      ".citecheck/mismatches.log",
	}
}
