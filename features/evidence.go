package features

import (
	"regexp"
	"sort"
	"strings"

	"github.com/poiesic/marketrag/core"
)

const (
	// DefaultSummaryRunes bounds the length of a news summary.
	DefaultSummaryRunes = 180
	maxEvidence         = 2
	tickerMentionScore  = 2
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	sentenceBreakRe = regexp.MustCompile(`[.!?]\s+`)
)

// SplitSentences splits text after '.', '!' or '?' followed by whitespace.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceBreakRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// ExtractEvidence picks up to two sentences supporting the inferred signal. Sentences score
// +2 for mentioning a ticker and +1 per signal keyword; when none scores positively the
// first two sentences are returned verbatim.
func ExtractEvidence(content string, tickers []string, signal core.Signal) []string {
	sentences := SplitSentences(content)
	if len(sentences) == 0 {
		return nil
	}
	keywords := evidenceKeywords[string(signal)]

	type scored struct {
		score int
		text  string
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		lowered := strings.ToLower(sent)
		score := 0
		for _, t := range tickers {
			if strings.Contains(lowered, strings.ToLower(t)) {
				score += tickerMentionScore
				break
			}
		}
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				score++
			}
		}
		ranked[i] = scored{score: score, text: sent}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	picked := make([]string, 0, maxEvidence)
	for _, r := range ranked {
		if r.score <= 0 || len(picked) == maxEvidence {
			break
		}
		picked = append(picked, r.text)
	}
	if len(picked) > 0 {
		return picked
	}
	if len(sentences) > maxEvidence {
		sentences = sentences[:maxEvidence]
	}
	return sentences
}

// Summarize compacts whitespace and truncates to maxRunes, ending with an ellipsis.
func Summarize(text string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultSummaryRunes
	}
	compact := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	runes := []rune(compact)
	if len(runes) <= maxRunes {
		return compact
	}
	return string(runes[:maxRunes-1]) + "…"
}
