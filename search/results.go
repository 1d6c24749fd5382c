package search

import "github.com/poiesic/marketrag/core"

// BuildResult reports the outcome of an index build.
type BuildResult struct {
	IndexedDocs    int             `json:"indexed_docs"`
	BuiltAt        string          `json:"built_at"`
	BuildID        string          `json:"build_id"`
	Provider       string          `json:"provider,omitempty"`
	Degraded       bool            `json:"degraded"`
	FallbackUsed   bool            `json:"fallback_used"`
	Error          string          `json:"error,omitempty"`
	SkippedRows    int             `json:"skipped_rows"`
	ArchivesByDate map[string]int  `json:"archives_by_date"`
	LatestLoaded   map[string]bool `json:"latest_loaded"`
	EmbedDim       int             `json:"embed_dim"`
}

// ScoreExplain breaks a news score into its weighted inputs.
type ScoreExplain struct {
	Semantic float64 `json:"semantic"`
	Topical  float64 `json:"topical"`
	Recency  float64 `json:"recency"`
}

// NewsItem is one ranked news article.
type NewsItem struct {
	DocID        string       `json:"doc_id"`
	Title        string       `json:"title"`
	SourceLink   string       `json:"source_link"`
	PublishedAt  string       `json:"published_at"`
	Summary      string       `json:"summary"`
	Signal       core.Signal  `json:"signal"`
	Evidence     []string     `json:"evidence"`
	TickerHits   []string     `json:"ticker_hits"`
	SectorTags   []string     `json:"sector_tags"`
	Score        float64      `json:"score"`
	ScoreExplain ScoreExplain `json:"score_explain"`
}

// NewsResult is the ranked answer to a news query.
// Results served from the cache share slices with the cached copy; treat them as read-only.
type NewsResult struct {
	QueryTickers        []string    `json:"query_tickers"`
	QueryExpansionTerms []string    `json:"query_expansion_terms"`
	Count               int         `json:"count"`
	Cached              bool        `json:"cached"`
	Signal              core.Signal `json:"signal"`
	Items               []NewsItem  `json:"items"`
}

// KeyEvent is a ranked event backing a ticker decision.
type KeyEvent struct {
	DocID          string  `json:"doc_id"`
	Event          string  `json:"event"`
	MarketReaction string  `json:"market_reaction"`
	PublishedAt    string  `json:"published_at"`
	Source         string  `json:"source"`
	SourceLink     string  `json:"source_link"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Evidence is the causal chain of a ranked event.
type Evidence struct {
	DocID          string            `json:"doc_id"`
	Event          string            `json:"event"`
	Cause          string            `json:"cause"`
	Development    string            `json:"development"`
	MarketReaction string            `json:"market_reaction"`
	FactorScores   core.FactorScores `json:"factor_scores"`
	Source         string            `json:"source"`
	SourceLink     string            `json:"source_link"`
}

// TickerDecision is the directional call for one ticker.
type TickerDecision struct {
	Ticker                     string            `json:"ticker"`
	Signal                     core.Signal       `json:"signal"`
	Confidence                 float64           `json:"confidence"`
	Aggregate                  float64           `json:"aggregate"`
	Conclusion                 string            `json:"conclusion"`
	CausalSummary              string            `json:"causal_summary"`
	KeyEvents                  []KeyEvent        `json:"key_events"`
	Evidence                   []Evidence        `json:"evidence"`
	RiskInvalidationConditions []string          `json:"risk_invalidation_conditions"`
	FactorExposureUsed         core.FactorScores `json:"factor_exposure_used"`
	// DefaultExposure is set when the ticker has no curated exposure vector.
	DefaultExposure            bool              `json:"default_exposure"`
}

// DecisionResult is the answer to a decision brief query.
// Cached is true only when every ticker was served from the cache.
type DecisionResult struct {
	QueryTickers []string         `json:"query_tickers"`
	GeneratedAt  string           `json:"generated_at"`
	IndexBuiltAt string           `json:"index_built_at"`
	Cached       bool             `json:"cached"`
	Results      []TickerDecision `json:"results"`
}
