package features

import (
	"strings"

	"github.com/poiesic/marketrag/core"
)

// DefaultSignalMargin is the keyword-count lead required to call a news article directional.
const DefaultSignalMargin = 2

// InferSignal classifies text as bullish, bearish or neutral by counting lexicon hits.
// A class wins only when its count leads the other by at least margin.
func InferSignal(text string, margin int) core.Signal {
	if margin < 1 {
		margin = DefaultSignalMargin
	}
	lowered := strings.ToLower(text)
	bull := countTerms(lowered, NewsLexicon.Positive)
	bear := countTerms(lowered, NewsLexicon.Negative)

	switch {
	case bull-bear >= margin:
		return core.SignalBullish
	case bear-bull >= margin:
		return core.SignalBearish
	default:
		return core.SignalNeutral
	}
}

// InferDirection returns a continuous direction score in [-1, 1]:
// (positive - negative) / max(2, positive + negative), or 0 when nothing matches.
func InferDirection(text string) float64 {
	lowered := strings.ToLower(text)
	p, n := 0, 0
	for _, lex := range DirectionLexicons {
		p += countTerms(lowered, lex.Positive)
		n += countTerms(lowered, lex.Negative)
	}
	if p+n == 0 {
		return 0
	}
	return clamp(float64(p-n)/max(2.0, float64(p+n)), -1, 1)
}

// DirectionText is the text direction inference reads for an event.
func DirectionText(d *core.EventDoc) string {
	return strings.Join([]string{
		d.Event,
		d.Cause,
		d.Development,
		d.MarketReaction,
		strings.Join(d.Scenarios, " "),
	}, " ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
