package model

import (
	"fmt"
	"math"
	"runtime"
	"time"
)

// Sensitivity presets trade recall for precision. Paranoia is meant
// for kiosk deployments where a false allow is worse than a false
// block; low suits analyst triage queues.
const (
	SensitivityLow      = "low"
	SensitivityBalanced = "balanced"
	SensitivityParanoia = "paranoia"
)

// weightTolerance is the allowed drift when checking that component
// weights sum to 1.0.
const weightTolerance = 1e-6

// ScoringConfig holds the aggregation weights and verdict thresholds.
// Weights must sum to 1.0 within weightTolerance.
type ScoringConfig struct {
	HeuristicWeight    float64 `json:"heuristic_weight" yaml:"heuristic_weight" mapstructure:"heuristic_weight"`
	MLWeight           float64 `json:"ml_weight" yaml:"ml_weight" mapstructure:"ml_weight"`
	BrandWeight        float64 `json:"brand_weight" yaml:"brand_weight" mapstructure:"brand_weight"`
	TLDWeight          float64 `json:"tld_weight" yaml:"tld_weight" mapstructure:"tld_weight"`
	SafeThreshold      int     `json:"safe_threshold" yaml:"safe_threshold" mapstructure:"safe_threshold"`
	MaliciousThreshold int     `json:"malicious_threshold" yaml:"malicious_threshold" mapstructure:"malicious_threshold"`
}

// ScoringPreset returns the tuned configuration for a sensitivity
// name. An empty name maps to balanced.
func ScoringPreset(sensitivity string) (ScoringConfig, error) {
	base := ScoringConfig{
		HeuristicWeight: 0.45,
		MLWeight:        0.25,
		BrandWeight:     0.15,
		TLDWeight:       0.15,
	}
	switch sensitivity {
	case SensitivityBalanced, "":
		base.SafeThreshold = 25
		base.MaliciousThreshold = 60
	case SensitivityParanoia:
		base.SafeThreshold = 15
		base.MaliciousThreshold = 45
	case SensitivityLow:
		base.SafeThreshold = 35
		base.MaliciousThreshold = 75
	default:
		return ScoringConfig{}, fmt.Errorf("unknown sensitivity %q (want low, balanced, or paranoia)", sensitivity)
	}
	return base, nil
}

// Validate rejects weight sets that do not sum to 1.0 and threshold
// pairs that are inverted or out of the 0-100 range.
func (c ScoringConfig) Validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"heuristic", c.HeuristicWeight},
		{"ml", c.MLWeight},
		{"brand", c.BrandWeight},
		{"tld", c.TLDWeight},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return fmt.Errorf("%s weight %.4f out of range [0,1]", w.name, w.value)
		}
	}
	sum := c.HeuristicWeight + c.MLWeight + c.BrandWeight + c.TLDWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("component weights sum to %.6f, want 1.0", sum)
	}
	if c.SafeThreshold < 0 || c.MaliciousThreshold > 100 {
		return fmt.Errorf("thresholds %d/%d out of range [0,100]", c.SafeThreshold, c.MaliciousThreshold)
	}
	if c.SafeThreshold >= c.MaliciousThreshold {
		return fmt.Errorf("safe threshold %d must be below malicious threshold %d", c.SafeThreshold, c.MaliciousThreshold)
	}
	return nil
}

// VerdictFor buckets a score using the configured thresholds. Boundary
// scores land in the higher-risk bucket.
func (c ScoringConfig) VerdictFor(score int) Verdict {
	switch {
	case score >= c.MaliciousThreshold:
		return VerdictMalicious
	case score >= c.SafeThreshold:
		return VerdictSuspicious
	default:
		return VerdictSafe
	}
}

// Config is the complete runtime configuration assembled from
// defaults, the config file, environment variables, and flags.
type Config struct {
	Sensitivity  string            `json:"sensitivity" yaml:"sensitivity" mapstructure:"sensitivity"`
	Scoring      *ScoringConfig    `json:"scoring,omitempty" yaml:"scoring,omitempty" mapstructure:"scoring"`
	Data         DataConfig        `json:"data" yaml:"data" mapstructure:"data"`
	Policy       PolicyConfig      `json:"policy" yaml:"policy" mapstructure:"policy"`
	Cache        CacheConfig       `json:"cache" yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `json:"rate_limiting" yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig      `json:"output" yaml:"output" mapstructure:"output"`
	Log          LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
	Server       ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
}

// DataConfig points at optional YAML overrides for the bundled
// reference tables.
type DataConfig struct {
	BrandFile string `json:"brand_file" yaml:"brand_file" mapstructure:"brand_file"`
	TLDFile   string `json:"tld_file" yaml:"tld_file" mapstructure:"tld_file"`
}

// PolicyConfig points at an optional organization policy document.
type PolicyConfig struct {
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// CacheConfig controls assessment memoization.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig controls batch worker parallelism.
type ConcurrencyConfig struct {
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig throttles batch throughput. Zero disables the
// limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `json:"burst_size" yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `json:"include_footer" yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the configuration used when nothing else is
// specified.
func DefaultConfig() *Config {
	return &Config{
		Sensitivity: SensitivityBalanced,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// EffectiveScoring resolves the scoring configuration: an explicit
// scoring block wins over the sensitivity preset. The result is always
// validated.
func (c *Config) EffectiveScoring() (ScoringConfig, error) {
	if c.Scoring != nil {
		sc := *c.Scoring
		if err := sc.Validate(); err != nil {
			return ScoringConfig{}, fmt.Errorf("scoring override: %w", err)
		}
		return sc, nil
	}
	sc, err := ScoringPreset(c.Sensitivity)
	if err != nil {
		return ScoringConfig{}, err
	}
	if err := sc.Validate(); err != nil {
		return ScoringConfig{}, err
	}
	return sc, nil
}
