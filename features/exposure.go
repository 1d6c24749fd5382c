package features

import (
	"strings"

	"github.com/poiesic/marketrag/core"
)

// DefaultExposure is the uniform per-factor exposure assumed for unknown tickers.
const DefaultExposure = 0.2

// etfExposures holds per-ETF factor sensitivities in [-1, 1]. Positive values mean the
// ETF benefits when the factor strengthens.
var etfExposures = map[string]core.FactorScores{
	"QQQ": {core.FactorRates: -0.9, core.FactorGrowth: 0.9, core.FactorCommodities: -0.2, core.FactorPolicy: 0.4, core.FactorSector: 0.8},
	"SPY": {core.FactorRates: -0.3, core.FactorGrowth: 0.7, core.FactorCommodities: 0.1, core.FactorPolicy: 0.2, core.FactorSector: 0.4},
	"SMH": {core.FactorRates: -0.8, core.FactorGrowth: 0.9, core.FactorCommodities: -0.2, core.FactorPolicy: 0.3, core.FactorSector: 1.0},
	"XLE": {core.FactorRates: -0.1, core.FactorGrowth: 0.3, core.FactorCommodities: 1.0, core.FactorPolicy: 0.4, core.FactorSector: 0.7},
	"TLT": {core.FactorRates: 1.0, core.FactorGrowth: -0.4, core.FactorCommodities: -0.3, core.FactorPolicy: 0.2, core.FactorSector: 0.0},
	"IWM": {core.FactorRates: -0.5, core.FactorGrowth: 0.8, core.FactorCommodities: 0.1, core.FactorPolicy: 0.3, core.FactorSector: 0.5},
	"EEM": {core.FactorRates: -0.3, core.FactorGrowth: 0.6, core.FactorCommodities: 0.4, core.FactorPolicy: 0.2, core.FactorSector: 0.4},
}

// Exposure returns a copy of the factor exposure vector for ticker.
// Unknown tickers receive DefaultExposure on every factor.
func Exposure(ticker string) core.FactorScores {
	out := make(core.FactorScores, len(core.FactorKeys))
	known, ok := etfExposures[strings.ToUpper(strings.TrimSpace(ticker))]
	for _, k := range core.FactorKeys {
		if ok {
			out[k] = known[k]
		} else {
			out[k] = DefaultExposure
		}
	}
	return out
}

// KnownExposure reports whether ticker has a curated exposure vector.
func KnownExposure(ticker string) bool {
	_, ok := etfExposures[strings.ToUpper(strings.TrimSpace(ticker))]
	return ok
}
