package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// TimestampLayout is the canonical UTC timestamp format used on every document.
const TimestampLayout = "2006-01-02T15:04:05Z"

// IDFromContent generates a deterministic hex identifier from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Signal is a coarse directional classification of a document or aggregate.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// SourceType tags the provenance of a document and drives merge priority.
type SourceType string

const (
	// SourceBriefJSON is a curated research brief delivered as JSON.
	SourceBriefJSON SourceType = "brief_json"
	// SourceBriefMarkdown is a curated research brief delivered as Markdown.
	SourceBriefMarkdown SourceType = "brief_md"
	// SourceRaw is a raw daily news digest item.
	SourceRaw SourceType = "raw"
	// SourceNewsFile is a pre-normalized news article loaded from a local file.
	SourceNewsFile SourceType = "news_file"
	// SourceRSS is a news article fetched from an RSS or Atom feed.
	SourceRSS SourceType = "rss"
)

// Priority returns the merge rank of the source type. Higher wins.
func (s SourceType) Priority() int {
	switch s {
	case SourceBriefJSON:
		return 3
	case SourceBriefMarkdown:
		return 2
	default:
		return 1
	}
}

// Factor names used by factor scoring and exposure tables.
const (
	FactorRates       = "rates"
	FactorGrowth      = "growth"
	FactorCommodities = "commodities"
	FactorPolicy      = "policy"
	FactorSector      = "sector"
)

// FactorKeys lists the macro factors in canonical order.
var FactorKeys = []string{FactorRates, FactorGrowth, FactorCommodities, FactorPolicy, FactorSector}

// FactorScores maps a factor name to a signed magnitude in [-1, 1].
type FactorScores map[string]float64

// MaxAbs returns the largest absolute factor value.
func (f FactorScores) MaxAbs() float64 {
	m := 0.0
	for _, v := range f {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

// NewsDoc is an indexed news article.
type NewsDoc struct {
	DocID       string
	Title       string
	Content     string
	Summary     string
	SourceLink  string
	PublishedAt time.Time // UTC, second precision
	Date        string
	SourceType  SourceType
	Tickers     []string
	Sectors     []string
	Signal      Signal
	Evidence    []string
	Embedding   []float32 // Populated by the feature extractor
}

// EventDoc is an indexed market event used by the decision service.
type EventDoc struct {
	DocID          string
	Date           string
	PublishedAt    time.Time // UTC, second precision
	SourceType     SourceType
	Title          string
	Event          string
	Cause          string
	Development    string
	MarketReaction string
	Scenarios      []string
	Invalidation   string
	Category       string
	Source         string
	URL            string
	KeyPoints      []string
	FactorScores   FactorScores // Populated by the feature extractor
	Direction      float64      // Populated by the feature extractor
	Embedding      []float32    // Populated by the feature extractor
}

// Headline returns the event text, falling back to the title.
func (d *EventDoc) Headline() string {
	if d.Event != "" {
		return d.Event
	}
	return d.Title
}

// FormatTimestamp renders t in the canonical UTC layout.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}
