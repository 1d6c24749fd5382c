// Package config loads marketrag settings.
// Values come from an optional YAML file, overridden by MARKETRAG_* environment
// variables, over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/poiesic/marketrag/ai"
	"github.com/poiesic/marketrag/provider"
	"github.com/poiesic/marketrag/search"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MARKETRAG_"

// Default values.
const (
	DefaultNewsDataPath   = "data/ingested_etf_news.json"
	DefaultRawDir         = "data/raw_news"
	DefaultBriefDir       = "data/briefs"
	DefaultFeedTimeout    = 10 * time.Second
	DefaultSignalMargin   = 2
	DefaultPoolSize       = 8
	DefaultCacheTTL       = search.DefaultCacheTTL
	DefaultFeedRetries    = 3
	DefaultFeedRatePerSec = 2.0
)

// Configuration validation errors.
var (
	ErrMissingNewsSource   = errors.New("news data path or at least one feed is required")
	ErrMissingDecisionDirs = errors.New("raw dir or brief dir is required")
	ErrInvalidCacheTTL     = errors.New("cache ttl must not be negative")
	ErrInvalidRecentHours  = errors.New("recent hours must be positive")
	ErrInvalidWeights      = errors.New("weights must be non-negative with a positive sum")
	ErrInvalidThreshold    = errors.New("threshold must be between 0 and 1")
	ErrInvalidFeedTimeout  = errors.New("feed timeout must be positive")
	ErrInvalidPoolSize     = errors.New("pool size must be positive")
	ErrInvalidSignalMargin = errors.New("signal margin must be positive")
	ErrInvalidFactorFit    = errors.New("factor fit scale must be positive")
	ErrInvalidFeedRetries  = errors.New("feed retries must be positive")
	ErrInvalidFeedRate     = errors.New("feed rate must be positive")
	ErrInvalidEnvironment  = errors.New("invalid environment value")
	ErrMissingFeedURL      = errors.New("feed url is required")
	ErrInvalidDecayDays    = errors.New("decay days must be positive")
)

// NewsWeights are the news score coefficients.
type NewsWeights struct {
	Semantic float64 `koanf:"semantic"`
	Topical  float64 `koanf:"topical"`
	Recency  float64 `koanf:"recency"`
}

// DecisionWeights are the decision score coefficients.
type DecisionWeights struct {
	Semantic  float64 `koanf:"semantic"`
	FactorFit float64 `koanf:"factor_fit"`
	Causal    float64 `koanf:"causal"`
	Recency   float64 `koanf:"recency"`
}

// NewsConfig configures the news service.
type NewsConfig struct {
	DataPath    string                `koanf:"data_path"`
	Feeds       []provider.FeedSource `koanf:"feeds"`
	FeedTimeout time.Duration         `koanf:"feed_timeout"`
	FeedRetries int                   `koanf:"feed_retries"`
	FeedRate    float64               `koanf:"feed_rate"` // requests per second across all feeds
	EmbedDim    int                   `koanf:"embed_dim"`
	RecentHours int                   `koanf:"recent_hours"`
	DecayDays   float64               `koanf:"decay_days"`
	MinScore    float64               `koanf:"min_score"`
	Weights     NewsWeights           `koanf:"weights"`
}

// DecisionConfig configures the decision service.
type DecisionConfig struct {
	RawDir             string          `koanf:"raw_dir"`
	BriefDir           string          `koanf:"brief_dir"`
	EmbedDim           int             `koanf:"embed_dim"`
	RecentHours        int             `koanf:"recent_hours"`
	DecayDays          float64         `koanf:"decay_days"`
	MinScore           float64         `koanf:"min_score"`
	FactorFitScale     float64         `koanf:"factor_fit_scale"`
	AggregateThreshold float64         `koanf:"aggregate_threshold"`
	Weights            DecisionWeights `koanf:"weights"`
}

// Config holds all marketrag settings.
type Config struct {
	News     NewsConfig     `koanf:"news"`
	Decision DecisionConfig `koanf:"decision"`

	CacheTTL         time.Duration `koanf:"cache_ttl"`
	PoolSize         int           `koanf:"pool_size"`
	SignalMargin     int           `koanf:"signal_margin"`
	StrictTimestamps bool          `koanf:"strict_timestamps"`
}

// Default returns the stock configuration.
func Default() *Config {
	news := search.DefaultNewsParams()
	decision := search.DefaultDecisionParams()
	return &Config{
		News: NewsConfig{
			DataPath:    DefaultNewsDataPath,
			FeedTimeout: DefaultFeedTimeout,
			FeedRetries: DefaultFeedRetries,
			FeedRate:    DefaultFeedRatePerSec,
			EmbedDim:    ai.DefaultNewsDimension,
			RecentHours: news.RecentHours,
			DecayDays:   news.DecayDays,
			MinScore:    news.MinScore,
			Weights: NewsWeights{
				Semantic: news.Weights.Semantic,
				Topical:  news.Weights.Topical,
				Recency:  news.Weights.Recency,
			},
		},
		Decision: DecisionConfig{
			RawDir:             DefaultRawDir,
			BriefDir:           DefaultBriefDir,
			EmbedDim:           ai.DefaultDecisionDimension,
			RecentHours:        decision.RecentHours,
			DecayDays:          decision.DecayDays,
			MinScore:           decision.MinScore,
			FactorFitScale:     decision.FactorFitScale,
			AggregateThreshold: decision.AggregateThreshold,
			Weights: DecisionWeights{
				Semantic:  decision.Weights.Semantic,
				FactorFit: decision.Weights.FactorFit,
				Causal:    decision.Weights.Causal,
				Recency:   decision.Weights.Recency,
			},
		},
		CacheTTL:     DefaultCacheTTL,
		PoolSize:     DefaultPoolSize,
		SignalMargin: DefaultSignalMargin,
	}
}

// Load reads configuration from an optional YAML file and the environment.
// Environment variables take precedence over file values, which take precedence over
// defaults. Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, only that error is returned.
func Load(configFilePath string) (*Config, []error) {
	cfg := Default()

	if configFilePath != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, []error{fmt.Errorf("failed to decode config file %s: %w", configFilePath, err)}
		}
	}

	env := envReader{}
	env.str("NEWS_DATA_PATH", &cfg.News.DataPath)
	env.duration("FEED_TIMEOUT", &cfg.News.FeedTimeout)
	env.integer("FEED_RETRIES", &cfg.News.FeedRetries)
	env.float("FEED_RATE", &cfg.News.FeedRate)
	env.integer("NEWS_EMBED_DIM", &cfg.News.EmbedDim)
	env.integer("NEWS_RECENT_HOURS", &cfg.News.RecentHours)
	env.float("NEWS_DECAY_DAYS", &cfg.News.DecayDays)
	env.float("NEWS_MIN_SCORE", &cfg.News.MinScore)
	env.float("NEWS_WEIGHT_SEMANTIC", &cfg.News.Weights.Semantic)
	env.float("NEWS_WEIGHT_TOPICAL", &cfg.News.Weights.Topical)
	env.float("NEWS_WEIGHT_RECENCY", &cfg.News.Weights.Recency)

	env.str("RAW_DIR", &cfg.Decision.RawDir)
	env.str("BRIEF_DIR", &cfg.Decision.BriefDir)
	env.integer("DECISION_EMBED_DIM", &cfg.Decision.EmbedDim)
	env.integer("DECISION_RECENT_HOURS", &cfg.Decision.RecentHours)
	env.float("DECISION_DECAY_DAYS", &cfg.Decision.DecayDays)
	env.float("DECISION_MIN_SCORE", &cfg.Decision.MinScore)
	env.float("FACTOR_FIT_SCALE", &cfg.Decision.FactorFitScale)
	env.float("AGGREGATE_THRESHOLD", &cfg.Decision.AggregateThreshold)
	env.float("DECISION_WEIGHT_SEMANTIC", &cfg.Decision.Weights.Semantic)
	env.float("DECISION_WEIGHT_FACTOR_FIT", &cfg.Decision.Weights.FactorFit)
	env.float("DECISION_WEIGHT_CAUSAL", &cfg.Decision.Weights.Causal)
	env.float("DECISION_WEIGHT_RECENCY", &cfg.Decision.Weights.Recency)

	env.duration("CACHE_TTL", &cfg.CacheTTL)
	env.integer("POOL_SIZE", &cfg.PoolSize)
	env.integer("SIGNAL_MARGIN", &cfg.SignalMargin)
	env.boolean("STRICT_TIMESTAMPS", &cfg.StrictTimestamps)

	// MARKETRAG_FEED_URLS replaces any feeds from the file; MARKETRAG_FEED_TICKERS and
	// MARKETRAG_FEED_SECTORS tag every one of them.
	if urls := splitList(os.Getenv(EnvPrefix + "FEED_URLS")); len(urls) > 0 {
		tickers := splitList(os.Getenv(EnvPrefix + "FEED_TICKERS"))
		sectors := splitList(os.Getenv(EnvPrefix + "FEED_SECTORS"))
		cfg.News.Feeds = make([]provider.FeedSource, 0, len(urls))
		for _, u := range urls {
			cfg.News.Feeds = append(cfg.News.Feeds, provider.FeedSource{URL: u, Tickers: tickers, Sectors: sectors})
		}
	}

	errs := append(env.errs, cfg.Validate()...)
	return cfg, errs
}

// envReader applies MARKETRAG_* overrides, collecting parse failures.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	return val, val != ""
}

func (r *envReader) fail(key, kind string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s%s must be a valid %s: %w", ErrInvalidEnvironment, EnvPrefix, key, kind, err))
}

func (r *envReader) str(key string, dst *string) {
	if val, ok := r.lookup(key); ok {
		*dst = val
	}
}

func (r *envReader) integer(key string, dst *int) {
	val, ok := r.lookup(key)
	if !ok {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		r.fail(key, "integer", err)
		return
	}
	*dst = i
}

func (r *envReader) float(key string, dst *float64) {
	val, ok := r.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		r.fail(key, "float", err)
		return
	}
	*dst = f
}

// duration accepts Go duration syntax or a bare number of seconds.
func (r *envReader) duration(key string, dst *time.Duration) {
	val, ok := r.lookup(key)
	if !ok {
		return
	}
	if secs, err := strconv.Atoi(val); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		r.fail(key, "duration", err)
		return
	}
	*dst = d
}

func (r *envReader) boolean(key string, dst *bool) {
	val, ok := r.lookup(key)
	if !ok {
		return
	}
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		r.fail(key, "boolean", fmt.Errorf("unrecognized value %q", val))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that every value is usable.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.News.DataPath == "" && len(c.News.Feeds) == 0 {
		errs = append(errs, ErrMissingNewsSource)
	}
	for i, f := range c.News.Feeds {
		if strings.TrimSpace(f.URL) == "" {
			errs = append(errs, fmt.Errorf("news.feeds[%d]: %w", i, ErrMissingFeedURL))
		}
	}
	if c.News.FeedTimeout <= 0 {
		errs = append(errs, ErrInvalidFeedTimeout)
	}
	if c.News.FeedRetries <= 0 {
		errs = append(errs, ErrInvalidFeedRetries)
	}
	if c.News.FeedRate <= 0 {
		errs = append(errs, ErrInvalidFeedRate)
	}
	if c.Decision.RawDir == "" && c.Decision.BriefDir == "" {
		errs = append(errs, ErrMissingDecisionDirs)
	}

	dims := ai.NewConfig(ai.WithNewsDimension(c.News.EmbedDim), ai.WithDecisionDimension(c.Decision.EmbedDim))
	if err := dims.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.News.RecentHours <= 0 {
		errs = append(errs, fmt.Errorf("news: %w", ErrInvalidRecentHours))
	}
	if c.Decision.RecentHours <= 0 {
		errs = append(errs, fmt.Errorf("decision: %w", ErrInvalidRecentHours))
	}
	if c.News.DecayDays <= 0 {
		errs = append(errs, fmt.Errorf("news: %w", ErrInvalidDecayDays))
	}
	if c.Decision.DecayDays <= 0 {
		errs = append(errs, fmt.Errorf("decision: %w", ErrInvalidDecayDays))
	}

	w := c.News.Weights
	if !validWeights(w.Semantic, w.Topical, w.Recency) {
		errs = append(errs, fmt.Errorf("news: %w", ErrInvalidWeights))
	}
	dw := c.Decision.Weights
	if !validWeights(dw.Semantic, dw.FactorFit, dw.Causal, dw.Recency) {
		errs = append(errs, fmt.Errorf("decision: %w", ErrInvalidWeights))
	}

	for _, th := range []struct {
		name  string
		value float64
	}{
		{"news.min_score", c.News.MinScore},
		{"decision.min_score", c.Decision.MinScore},
		{"decision.aggregate_threshold", c.Decision.AggregateThreshold},
	} {
		if th.value < 0 || th.value > 1 {
			errs = append(errs, fmt.Errorf("%s: %w", th.name, ErrInvalidThreshold))
		}
	}
	if c.Decision.FactorFitScale <= 0 {
		errs = append(errs, ErrInvalidFactorFit)
	}

	if c.CacheTTL < 0 {
		errs = append(errs, ErrInvalidCacheTTL)
	}
	if c.PoolSize <= 0 {
		errs = append(errs, ErrInvalidPoolSize)
	}
	if c.SignalMargin <= 0 {
		errs = append(errs, ErrInvalidSignalMargin)
	}

	return errs
}

func validWeights(ws ...float64) bool {
	sum := 0.0
	for _, w := range ws {
		if w < 0 {
			return false
		}
		sum += w
	}
	return sum > 0
}

// NewsParams maps the news settings onto ranking parameters.
func (c *Config) NewsParams() search.NewsParams {
	return search.NewsParams{
		Weights: search.NewsWeights{
			Semantic: c.News.Weights.Semantic,
			Topical:  c.News.Weights.Topical,
			Recency:  c.News.Weights.Recency,
		},
		RecentHours: c.News.RecentHours,
		DecayDays:   c.News.DecayDays,
		MinScore:    c.News.MinScore,
	}
}

// DecisionParams maps the decision settings onto ranking parameters.
func (c *Config) DecisionParams() search.DecisionParams {
	return search.DecisionParams{
		Weights: search.DecisionWeights{
			Semantic:  c.Decision.Weights.Semantic,
			FactorFit: c.Decision.Weights.FactorFit,
			Causal:    c.Decision.Weights.Causal,
			Recency:   c.Decision.Weights.Recency,
		},
		RecentHours:        c.Decision.RecentHours,
		DecayDays:          c.Decision.DecayDays,
		MinScore:           c.Decision.MinScore,
		FactorFitScale:     c.Decision.FactorFitScale,
		AggregateThreshold: c.Decision.AggregateThreshold,
	}
}

// LogSummary returns the settings worth logging at startup.
func (c *Config) LogSummary() map[string]string {
	urls := make([]string, 0, len(c.News.Feeds))
	for _, f := range c.News.Feeds {
		urls = append(urls, f.URL)
	}
	return map[string]string{
		"news_data_path":     c.News.DataPath,
		"feeds":              strings.Join(urls, ","),
		"raw_dir":            c.Decision.RawDir,
		"brief_dir":          c.Decision.BriefDir,
		"news_embed_dim":     strconv.Itoa(c.News.EmbedDim),
		"decision_embed_dim": strconv.Itoa(c.Decision.EmbedDim),
		"cache_ttl":          c.CacheTTL.String(),
		"pool_size":          strconv.Itoa(c.PoolSize),
	}
}
