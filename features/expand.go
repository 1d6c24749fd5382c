package features

import "strings"

// expansionTerms substitutes for semantic retrieval: each ticker pulls in the vocabulary
// its news coverage usually carries.
var expansionTerms = map[string][]string{
	"QQQ": {"nasdaq", "technology", "megacap", "growth"},
	"SPY": {"s&p", "500", "largecap", "broad", "market"},
	"SMH": {"semiconductor", "chip", "ai", "반도체"},
	"XLE": {"energy", "oil", "crude", "유가"},
	"TLT": {"treasury", "bond", "yield", "duration", "금리"},
	"IWM": {"russell", "smallcap", "domestic"},
	"EEM": {"emerging", "china", "dollar"},
}

// ExpandQuery returns the static expansion terms for tickers followed by extra terms,
// lower-cased and de-duplicated in first-seen order.
func ExpandQuery(tickers []string, extra []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	for _, t := range tickers {
		for _, term := range expansionTerms[strings.ToUpper(t)] {
			add(term)
		}
	}
	for _, term := range extra {
		add(term)
	}
	return out
}
