// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"math"
	"time"

	"github.com/poiesic/marketrag/ai"
	"github.com/poiesic/marketrag/core"
)

// Recency bounds.
const (
	recencyFresh   = 1.0
	recencyRecent  = 0.7
	recencyFloor   = 0.1
	recencyUnknown = 0.2
)

// NewsWeights are the coefficients of the news score.
type NewsWeights struct {
	Semantic float64
	Topical  float64
	Recency  float64
}

// NewsParams control news ranking.
type NewsParams struct {
	Weights NewsWeights
	// RecentHours is the default preferred recency window.
	RecentHours int
	// DecayDays is the exponential decay constant applied past twice the window.
	DecayDays float64
	// MinScore drops documents without ticker overlap that score below it.
	MinScore float64
}

// DefaultNewsParams returns the stock news ranking parameters.
func DefaultNewsParams() NewsParams {
	return NewsParams{
		Weights:     NewsWeights{Semantic: 0.55, Topical: 0.30, Recency: 0.15},
		RecentHours: 96,
		DecayDays:   14,
		MinScore:    0.35,
	}
}

// DecisionWeights are the coefficients of the decision score.
type DecisionWeights struct {
	Semantic  float64
	FactorFit float64
	Causal    float64
	Recency   float64
}

// DecisionParams control event ranking and aggregation.
type DecisionParams struct {
	Weights     DecisionWeights
	RecentHours int
	DecayDays   float64
	// MinScore drops events scoring below it.
	MinScore float64
	// FactorFitScale divides the raw factor overlap before capping at 1.
	FactorFitScale float64
	// AggregateThreshold is the absolute aggregate needed for a bullish or bearish call.
	AggregateThreshold float64
}

// DefaultDecisionParams returns the stock decision parameters.
func DefaultDecisionParams() DecisionParams {
	return DecisionParams{
		Weights:            DecisionWeights{Semantic: 0.35, FactorFit: 0.30, Causal: 0.20, Recency: 0.15},
		RecentHours:        168,
		DecayDays:          21,
		MinScore:           0.18,
		FactorFitScale:     2.5,
		AggregateThreshold: 0.35,
	}
}

// Recency scores how fresh a document is relative to a preferred window.
// Documents inside the window score 1, inside twice the window 0.7, and older
// documents decay exponentially in days, bounded to [0.1, 0.7]. The result never
// increases with age. A zero timestamp scores 0.2.
func Recency(published, now time.Time, window time.Duration, decayDays float64) float64 {
	if published.IsZero() {
		return recencyUnknown
	}
	age := now.Sub(published)
	if age <= window {
		return recencyFresh
	}
	if age <= 2*window {
		return recencyRecent
	}
	if decayDays <= 0 {
		return recencyFloor
	}
	days := age.Hours() / 24
	return min(recencyRecent, max(recencyFloor, math.Exp(-days/decayDays)))
}

type newsScore struct {
	semantic float64
	topical  float64
	recency  float64
	total    float64
	hits     []string
}

// scoreNews scores doc against a query. tickers must be normalized and sorted.
func (p NewsParams) scoreNews(doc *core.NewsDoc, query []float32, tickers map[string]struct{}, now time.Time, window time.Duration) newsScore {
	hits := make([]string, 0, len(tickers))
	for _, t := range doc.Tickers {
		if _, ok := tickers[t]; ok {
			hits = append(hits, t)
		}
	}

	s := newsScore{
		semantic: ai.Cosine(query, doc.Embedding),
		topical:  min(1, float64(len(hits))/float64(max(1, len(tickers)))),
		recency:  Recency(doc.PublishedAt, now, window, p.DecayDays),
		hits:     hits,
	}
	s.total = p.Weights.Semantic*s.semantic + p.Weights.Topical*s.topical + p.Weights.Recency*s.recency
	return s
}

// keep applies the weak-relevance filter.
func (p NewsParams) keep(s newsScore) bool {
	return len(s.hits) > 0 || s.total >= p.MinScore
}

type eventScore struct {
	semantic  float64
	factorFit float64
	causal    float64
	recency   float64
	total     float64
}

func (p DecisionParams) scoreEvent(doc *core.EventDoc, query []float32, exposure core.FactorScores, now time.Time, window time.Duration) eventScore {
	s := eventScore{
		semantic:  ai.Cosine(query, doc.Embedding),
		factorFit: factorFit(doc.FactorScores, exposure, p.FactorFitScale),
		causal:    causalCompleteness(doc),
		recency:   Recency(doc.PublishedAt, now, window, p.DecayDays),
	}
	s.total = p.Weights.Semantic*s.semantic +
		p.Weights.FactorFit*s.factorFit +
		p.Weights.Causal*s.causal +
		p.Weights.Recency*s.recency
	return s
}

// factorFit measures how strongly an event moves the factors a ticker is exposed to.
func factorFit(scores, exposure core.FactorScores, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	fit := 0.0
	for _, k := range core.FactorKeys {
		fit += math.Abs(scores[k]) * math.Abs(exposure[k])
	}
	return min(1, fit/scale)
}

// causalCompleteness adds 0.25 for each of event, cause, market reaction and invalidation
// text present on doc.
func causalCompleteness(doc *core.EventDoc) float64 {
	score := 0.0
	for _, field := range []string{doc.Event, doc.Cause, doc.MarketReaction, doc.Invalidation} {
		if field != "" {
			score += 0.25
		}
	}
	return score
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func hours(h int) time.Duration {
	return time.Duration(h) * time.Hour
}
