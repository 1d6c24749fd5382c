package features

import (
	"math"
	"strings"

	"github.com/poiesic/marketrag/core"
)

// Category names recognised by factor scoring.
const (
	CategoryMonetaryPolicy    = "monetary_policy"
	CategoryInflationWages    = "inflation_wages"
	CategoryLiquidityPlumbing = "liquidity_plumbing"
	CategoryMacroData         = "macro_data"
	CategoryActivityData      = "activity_data"
	CategoryEnergyOil         = "energy_oil"
	CategoryEquityThemeAI     = "equity_theme_ai"
)

// categoryFactors seeds factor scores from a document's coarse topical category.
var categoryFactors = map[string]core.FactorScores{
	CategoryMonetaryPolicy:    {core.FactorRates: 1.0, core.FactorPolicy: 0.7},
	CategoryInflationWages:    {core.FactorRates: 0.8, core.FactorGrowth: -0.2},
	CategoryLiquidityPlumbing: {core.FactorPolicy: 0.8, core.FactorRates: 0.3},
	CategoryMacroData:         {core.FactorGrowth: 0.9, core.FactorRates: 0.3},
	CategoryActivityData:      {core.FactorGrowth: 1.0, core.FactorCommodities: 0.2},
	CategoryEnergyOil:         {core.FactorCommodities: 1.0, core.FactorGrowth: -0.2},
	CategoryEquityThemeAI:     {core.FactorSector: 1.0, core.FactorGrowth: 0.7, core.FactorRates: -0.2},
}

// factorLexicon lists, per factor, keywords that each add a capped increment.
var factorLexicon = map[string][]string{
	core.FactorRates:       {"금리", "fomc", "fed", "yield", "채권", "인하", "동결", "긴축", "treasury", "bond"},
	core.FactorGrowth:      {"성장", "pmi", "고용", "경기", "수요", "침체", "회복", "gdp", "payroll", "recession"},
	core.FactorCommodities: {"원유", "유가", "원자재", "brent", "공급", "재고", "crude", "opec", "oil"},
	core.FactorPolicy:      {"정책", "부양", "유동성", "repo", "백스톱", "규제", "stimulus", "liquidity", "regulat"},
	core.FactorSector:      {"ai", "반도체", "기술", "에너지", "섹터", "밸류체인", "semiconductor", "chip"},
}

// categoryRules are checked in order; the first bucket with a hit wins.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{CategoryMonetaryPolicy, []string{"fomc", "연준", "금리", "ecb", "fed", "boj"}},
	{CategoryMacroData, []string{"pmi", "cpi", "고용", "성장", "payroll", "gdp"}},
	{CategoryEnergyOil, []string{"유가", "원유", "iea", "brent", "opec", "crude"}},
	{CategoryEquityThemeAI, []string{"ai", "반도체", "기술", "semiconductor", "nvidia"}},
}

const (
	lexiconHitIncrement = 0.2
	lexiconHitCap       = 1.0
)

// InferCategory assigns a coarse topical category from keywords, defaulting to macro data.
func InferCategory(text string) string {
	terms := newTermSet(text)
	for _, rule := range categoryRules {
		if terms.any(rule.keywords) {
			return rule.category
		}
	}
	return CategoryMacroData
}

// InferFactorScores combines category weights with lexicon hits and normalizes the result
// so that the largest magnitude is at most 1.
func InferFactorScores(category, text string) core.FactorScores {
	scores := make(core.FactorScores, len(core.FactorKeys))
	for _, k := range core.FactorKeys {
		scores[k] = 0
	}
	for k, v := range categoryFactors[strings.ToLower(strings.TrimSpace(category))] {
		scores[k] += v
	}

	terms := newTermSet(text)
	for factor, keywords := range factorLexicon {
		scores[factor] += min(lexiconHitCap, float64(terms.hits(keywords))*lexiconHitIncrement)
	}

	maxAbs := max(1.0, scores.MaxAbs())
	for k, v := range scores {
		scores[k] = round3(v / maxAbs)
	}
	return scores
}

// FactorText is the text factor scoring reads for an event.
func FactorText(d *core.EventDoc) string {
	return strings.Join([]string{
		d.Event,
		d.Cause,
		d.Development,
		d.MarketReaction,
		strings.Join(d.Scenarios, " "),
		d.Invalidation,
		strings.Join(d.KeyPoints, " "),
	}, " ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
