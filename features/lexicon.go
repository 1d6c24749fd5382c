package features

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Lexicon is a language-specific pair of positive and negative term lists.
type Lexicon struct {
	Lang     string
	Positive []string
	Negative []string
}

// NewsLexicon drives bullish/bearish classification of news articles.
var NewsLexicon = Lexicon{
	Lang:     "en",
	Positive: []string{"surge", "beat", "upgrade", "rally", "strong", "expand", "record", "growth"},
	Negative: []string{"drop", "fall", "downgrade", "risk", "miss", "weak", "slump", "cut"},
}

// DirectionLexicons drive the continuous direction score of market events.
var DirectionLexicons = []Lexicon{
	{
		Lang:     "ko",
		Positive: []string{"완화", "개선", "상승", "회복", "우호", "반등", "정상화", "확대"},
		Negative: []string{"둔화", "하락", "경색", "리스크", "충격", "급등", "변동성", "우려", "수축"},
	},
	{
		Lang:     "en",
		Positive: []string{"easing", "improv", "rally", "recover", "rebound", "normaliz", "expansion", "upbeat"},
		Negative: []string{"slowdown", "decline", "tightening", "risk", "shock", "volatil", "concern", "contraction", "selloff"},
	},
}

// evidenceKeywords are the sentence-level cues associated with each signal class.
var evidenceKeywords = map[string][]string{
	"bullish": {"surge", "beat", "growth", "upgrade", "rally", "strong"},
	"bearish": {"drop", "fall", "cut", "risk", "miss", "weak"},
	"neutral": {"mixed", "stable", "flat", "unchanged"},
}

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}']+`)

// Tokenize splits text into case-folded alphanumeric runs. Non-Latin scripts are kept.
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// countTerms counts substring occurrences of every term in lowered text.
func countTerms(lowered string, terms []string) int {
	n := 0
	for _, term := range terms {
		n += strings.Count(lowered, term)
	}
	return n
}

// termSet answers "does this text mention the keyword" for keyword lists that mix
// short ASCII acronyms with agglutinative Korean terms.
type termSet struct {
	lowered string
	tokens  map[string]struct{}
	list    []string
}

func newTermSet(text string) *termSet {
	lowered := strings.ToLower(text)
	tokens := tokenRe.FindAllString(lowered, -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
		// "fed's" also counts as "fed"
		if stem, _, found := strings.Cut(t, "'"); found && stem != "" {
			set[stem] = struct{}{}
		}
	}
	return &termSet{lowered: lowered, tokens: set, list: tokens}
}

// has matches ASCII keywords of up to four letters as whole tokens (a possessive or
// contraction suffix is ignored), longer ASCII keywords as token prefixes, and everything
// else as a substring.
func (s *termSet) has(keyword string) bool {
	if !isASCII(keyword) {
		return strings.Contains(s.lowered, keyword)
	}
	if strings.ContainsAny(keyword, " &") {
		return strings.Contains(s.lowered, keyword)
	}
	if utf8.RuneCountInString(keyword) <= 4 {
		_, ok := s.tokens[keyword]
		return ok
	}
	for _, t := range s.list {
		if strings.HasPrefix(t, keyword) {
			return true
		}
	}
	return false
}

func (s *termSet) hits(keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if s.has(kw) {
			n++
		}
	}
	return n
}

func (s *termSet) any(keywords []string) bool {
	for _, kw := range keywords {
		if s.has(kw) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
