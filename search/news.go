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
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/marketrag/ai"
	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/features"
	"github.com/poiesic/marketrag/index"
	"github.com/poiesic/marketrag/ingestion"
	"github.com/poiesic/marketrag/normalize"
	"github.com/poiesic/marketrag/provider"
)

// DefaultNewsLimit is the number of articles returned when a query does not say.
const DefaultNewsLimit = 8

// NewsQuery selects news for a set of tickers.
type NewsQuery struct {
	Tickers []string
	// Limit caps the number of items. Values below 1 are raised to 1.
	Limit int
	// PreferRecentHours overrides the recency window. Zero uses the configured default.
	PreferRecentHours int
	// Terms are extra query expansion terms.
	Terms []string
}

type newsState struct {
	snap   *index.Snapshot[*core.NewsDoc]
	cache  *Cache[NewsResult]
	result BuildResult
}

// NewsService ranks ETF news articles for ticker queries.
type NewsService struct {
	primary  provider.Provider
	fallback provider.Provider
	embedder ai.Embedder
	pipeline *ingestion.Pipeline
	params   NewsParams
	cacheTTL time.Duration
	now      func() time.Time
	monitor  Monitor
	logger   *slog.Logger

	buildMu sync.Mutex
	state   atomic.Pointer[newsState]
}

// NewNewsService creates a news service loading articles from primary.
// Use WithFallback to name a provider tried when primary fails.
func NewNewsService(embedder ai.Embedder, primary provider.Provider, opts ...Option) (*NewsService, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if primary == nil {
		return nil, ErrProviderRequired
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	pipeline, err := ingestion.NewPipeline(embedder, o.pipelineOptions()...)
	if err != nil {
		return nil, err
	}
	return &NewsService{
		primary:  primary,
		fallback: o.fallback,
		embedder: embedder,
		pipeline: pipeline,
		params:   o.newsParams,
		cacheTTL: o.cacheTTL,
		now:      o.now,
		monitor:  o.monitor,
		logger:   o.logger.With("component", "news"),
	}, nil
}

// Build loads articles and replaces the index and query cache.
//
// Provider failures do not fail the build: the fallback provider is tried, and if
// that fails too the service serves an empty index. Both cases are reported through
// BuildResult.Degraded. Build returns an error only when ctx ends or feature
// extraction fails, in which case the previous index stays in place.
func (s *NewsService) Build(ctx context.Context) (*BuildResult, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.build(ctx)
}

func (s *NewsService) build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	s.monitor.BuildStarted(VariantNews)

	rows, res := s.load(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	built, err := s.pipeline.BuildNews(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("building news index: %w", err)
	}

	snap := index.New(built.Docs, func(d *core.NewsDoc) string { return d.Date }, index.Params{
		LatestLoaded: map[string]bool{provider.KindNews: len(rows) > 0},
		BuiltAt:      s.now(),
		EmbedDim:     s.embedder.Dimension(),
	})

	res.IndexedDocs = snap.Len()
	res.BuiltAt = core.FormatTimestamp(snap.BuiltAt())
	res.BuildID = snap.BuildID()
	res.SkippedRows = built.SkippedRows
	res.ArchivesByDate = snap.ArchivesByDate()
	res.LatestLoaded = snap.LatestLoaded()
	res.EmbedDim = snap.EmbedDim()

	s.state.Store(&newsState{snap: snap, cache: NewCache[NewsResult](s.cacheTTL, s.now), result: res})

	s.logger.Info("news index built", "docs", res.IndexedDocs, "provider", res.Provider,
		"degraded", res.Degraded, "fallback_used", res.FallbackUsed, "skipped", res.SkippedRows)
	s.monitor.BuildFinished(VariantNews, &res, time.Since(start))
	return &res, nil
}

// load reads rows from the primary provider, falling back when it fails.
func (s *NewsService) load(ctx context.Context) ([]core.RawRow, BuildResult) {
	res := BuildResult{Provider: s.primary.Name()}

	batch, err := s.primary.Load(ctx)
	if err == nil {
		return batch.Rows, res
	}
	s.logger.Warn("news provider failed", "provider", s.primary.Name(), "err", err)
	res.Degraded = true
	res.Error = err.Error()

	if s.fallback == nil || ctx.Err() != nil {
		return nil, res
	}

	batch, fbErr := s.fallback.Load(ctx)
	if fbErr != nil {
		s.logger.Warn("news fallback provider failed", "provider", s.fallback.Name(), "err", fbErr)
		res.Error = fmt.Sprintf("%s; fallback %s: %s", res.Error, s.fallback.Name(), fbErr)
		return nil, res
	}
	res.Provider = s.fallback.Name()
	res.FallbackUsed = true
	return batch.Rows, res
}

// current returns the live state, building the index first if none exists.
func (s *NewsService) current(ctx context.Context) (*newsState, error) {
	if st := s.state.Load(); st != nil {
		return st, nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if st := s.state.Load(); st != nil {
		return st, nil
	}
	if _, err := s.build(ctx); err != nil {
		return nil, err
	}
	return s.state.Load(), nil
}

// Status returns the result of the most recent build, or nil before the first one.
func (s *NewsService) Status() *BuildResult {
	st := s.state.Load()
	if st == nil {
		return nil
	}
	res := st.result
	return &res
}

// Search ranks indexed articles for q. An index is built on first use.
func (s *NewsService) Search(ctx context.Context, q NewsQuery) (*NewsResult, error) {
	tickers := normalize.Symbols(q.Tickers)
	if len(tickers) == 0 {
		return nil, core.ErrEmptyQuery
	}

	st, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	limit := max(1, q.Limit)
	windowHours := q.PreferRecentHours
	if windowHours <= 0 {
		windowHours = s.params.RecentHours
	}
	terms := features.ExpandQuery(tickers, q.Terms)

	key := queryKey{variant: VariantNews, tickers: tickers, limit: limit, windowHours: windowHours, terms: terms}.encode()
	if cached, ok := st.cache.Get(key); ok {
		s.logger.Debug("news cache hit", "tickers", tickers, "limit", limit)
		s.monitor.QueryServed(VariantNews, tickers, true)
		cached.Cached = true
		return &cached, nil
	}

	queryText := "ETF news " + strings.Join(tickers, " ")
	if len(terms) > 0 {
		queryText += " " + strings.Join(terms, " ")
	}
	queryVec, err := s.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding news query: %w", err)
	}

	res := s.rank(st.snap.Docs(), queryVec, tickers, limit, hours(windowHours))
	res.QueryExpansionTerms = terms
	st.cache.Put(key, res)

	s.monitor.QueryServed(VariantNews, tickers, false)
	return &res, nil
}

type scoredNews struct {
	doc   *core.NewsDoc
	score newsScore
}

func (s *NewsService) rank(docs []*core.NewsDoc, queryVec []float32, tickers []string, limit int, window time.Duration) NewsResult {
	now := s.now()
	set := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		set[t] = struct{}{}
	}

	scored := make([]scoredNews, 0, len(docs))
	for _, doc := range docs {
		sc := s.params.scoreNews(doc, queryVec, set, now, window)
		if !s.params.keep(sc) {
			continue
		}
		scored = append(scored, scoredNews{doc: doc, score: sc})
	}
	slices.SortStableFunc(scored, func(a, b scoredNews) int {
		return cmp.Compare(b.score.total, a.score.total)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	items := make([]NewsItem, 0, len(scored))
	for _, sn := range scored {
		d := sn.doc
		items = append(items, NewsItem{
			DocID:       d.DocID,
			Title:       d.Title,
			SourceLink:  d.SourceLink,
			PublishedAt: core.FormatTimestamp(d.PublishedAt),
			Summary:     d.Summary,
			Signal:      d.Signal,
			Evidence:    d.Evidence,
			TickerHits:  sn.score.hits,
			SectorTags:  d.Sectors,
			Score:       round(sn.score.total, 4),
			ScoreExplain: ScoreExplain{
				Semantic: round(sn.score.semantic, 4),
				Topical:  round(sn.score.topical, 4),
				Recency:  round(sn.score.recency, 4),
			},
		})
	}

	return NewsResult{
		QueryTickers: tickers,
		Count:        len(items),
		Signal:       dominantSignal(scored),
		Items:        items,
	}
}

// dominantSignal is a vote over the returned articles, each weighted by score times recency.
func dominantSignal(scored []scoredNews) core.Signal {
	var bull, bear float64
	for _, sn := range scored {
		weight := sn.score.total * sn.score.recency
		switch sn.doc.Signal {
		case core.SignalBullish:
			bull += weight
		case core.SignalBearish:
			bear += weight
		}
	}
	switch {
	case bull > bear:
		return core.SignalBullish
	case bear > bull:
		return core.SignalBearish
	default:
		return core.SignalNeutral
	}
}

// Close releases the ingestion worker pool.
func (s *NewsService) Close() {
	s.pipeline.Release()
}
