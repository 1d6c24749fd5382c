package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
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
	"github.com/poiesic/marketrag/provider"
)

// DefaultLimitPerTicker is the number of events considered per ticker when a query does not say.
const DefaultLimitPerTicker = 5

const (
	decisionQuerySuffix = " ETF 투자 판단 사건 인과 금리 성장 원자재 정책 섹터"
	missingReaction     = "시장 반응 정보 제한"
	summaryEvents       = 3
	maxRiskConditions   = 4
)

// DecisionQuery asks for a directional call on each ticker.
type DecisionQuery struct {
	Tickers []string
	// LimitPerTicker caps the events aggregated per ticker. Values below 1 are raised to 1.
	LimitPerTicker int
	// Terms are extra query expansion terms.
	Terms []string
}

type decisionState struct {
	snap   *index.Snapshot[*core.EventDoc]
	cache  *Cache[TickerDecision]
	result BuildResult
}

// DecisionService ranks market events per ticker and aggregates them into a call.
type DecisionService struct {
	sources  []provider.Provider
	embedder ai.Embedder
	pipeline *ingestion.Pipeline
	params   DecisionParams
	cacheTTL time.Duration
	now      func() time.Time
	monitor  Monitor
	logger   *slog.Logger

	buildMu sync.Mutex
	state   atomic.Pointer[decisionState]
}

// NewDecisionService creates a decision service over the given event sources,
// typically a raw digest directory and a research brief directory.
func NewDecisionService(embedder ai.Embedder, sources []provider.Provider, opts ...Option) (*DecisionService, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(sources) == 0 || slices.Contains(sources, nil) {
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
	return &DecisionService{
		sources:  slices.Clone(sources),
		embedder: embedder,
		pipeline: pipeline,
		params:   o.decisionParams,
		cacheTTL: o.cacheTTL,
		now:      o.now,
		monitor:  o.monitor,
		logger:   o.logger.With("component", "decision"),
	}, nil
}

// Build loads events from every source and replaces the index and query cache.
// A failing source is logged and reported through BuildResult.Degraded; the
// remaining sources are still indexed.
func (s *DecisionService) Build(ctx context.Context) (*BuildResult, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.build(ctx)
}

func (s *DecisionService) build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	s.monitor.BuildStarted(VariantDecision)

	var (
		rows     []core.RawRow
		errs     []error
		names    []string
		loadedBy = make(map[string]bool, len(s.sources))
	)
	for _, src := range s.sources {
		names = append(names, src.Name())
		batch, err := src.Load(ctx)
		if err != nil {
			s.logger.Warn("event provider failed", "provider", src.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			if _, ok := loadedBy[src.Kind()]; !ok {
				loadedBy[src.Kind()] = false
			}
			continue
		}
		loadedBy[src.Kind()] = loadedBy[src.Kind()] || batch.LatestLoaded
		rows = append(rows, batch.Rows...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	built, err := s.pipeline.BuildEvents(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("building decision index: %w", err)
	}

	snap := index.New(built.Docs, func(d *core.EventDoc) string { return d.Date }, index.Params{
		LatestLoaded: loadedBy,
		BuiltAt:      s.now(),
		EmbedDim:     s.embedder.Dimension(),
	})

	res := BuildResult{
		IndexedDocs:    snap.Len(),
		BuiltAt:        core.FormatTimestamp(snap.BuiltAt()),
		BuildID:        snap.BuildID(),
		Provider:       strings.Join(names, ","),
		Degraded:       len(errs) > 0,
		SkippedRows:    built.SkippedRows,
		ArchivesByDate: snap.ArchivesByDate(),
		LatestLoaded:   snap.LatestLoaded(),
		EmbedDim:       snap.EmbedDim(),
	}
	if len(errs) > 0 {
		res.Error = errors.Join(errs...).Error()
	}

	s.state.Store(&decisionState{snap: snap, cache: NewCache[TickerDecision](s.cacheTTL, s.now), result: res})

	s.logger.Info("decision index built", "docs", res.IndexedDocs, "dates", len(res.ArchivesByDate),
		"degraded", res.Degraded, "skipped", res.SkippedRows)
	s.monitor.BuildFinished(VariantDecision, &res, time.Since(start))
	return &res, nil
}

func (s *DecisionService) current(ctx context.Context) (*decisionState, error) {
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
func (s *DecisionService) Status() *BuildResult {
	st := s.state.Load()
	if st == nil {
		return nil
	}
	res := st.result
	return &res
}

// Brief produces a directional call for each ticker in q, in query order.
// An index is built on first use.
func (s *DecisionService) Brief(ctx context.Context, q DecisionQuery) (*DecisionResult, error) {
	tickers := orderedSymbols(q.Tickers)
	if len(tickers) == 0 {
		return nil, core.ErrEmptyQuery
	}

	st, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	limit := max(1, q.LimitPerTicker)
	out := &DecisionResult{
		QueryTickers: tickers,
		GeneratedAt:  core.FormatTimestamp(s.now()),
		IndexBuiltAt: core.FormatTimestamp(st.snap.BuiltAt()),
		Cached:       true,
		Results:      make([]TickerDecision, 0, len(tickers)),
	}

	for _, ticker := range tickers {
		terms := features.ExpandQuery([]string{ticker}, q.Terms)
		key := queryKey{
			variant:     VariantDecision,
			tickers:     []string{ticker},
			limit:       limit,
			windowHours: s.params.RecentHours,
			terms:       terms,
		}.encode()

		decision, ok := st.cache.Get(key)
		if ok {
			s.logger.Debug("decision cache hit", "ticker", ticker, "limit", limit)
		} else {
			decision, err = s.decide(ctx, st.snap.Docs(), ticker, terms, limit)
			if err != nil {
				return nil, err
			}
			st.cache.Put(key, decision)
			out.Cached = false
		}
		out.Results = append(out.Results, decision)
	}

	s.monitor.QueryServed(VariantDecision, tickers, out.Cached)
	return out, nil
}

type scoredEvent struct {
	doc   *core.EventDoc
	score eventScore
}

func (s *DecisionService) decide(ctx context.Context, docs []*core.EventDoc, ticker string, terms []string, limit int) (TickerDecision, error) {
	exposure := features.Exposure(ticker)
	defaulted := !features.KnownExposure(ticker)
	if defaulted {
		s.logger.Debug("no curated exposure for ticker, using default", "ticker", ticker)
	}

	queryText := ticker + decisionQuerySuffix
	if len(terms) > 0 {
		queryText += " " + strings.Join(terms, " ")
	}
	queryVec, err := s.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return TickerDecision{}, fmt.Errorf("embedding decision query for %s: %w", ticker, err)
	}

	now := s.now()
	window := hours(s.params.RecentHours)
	scored := make([]scoredEvent, 0, len(docs))
	for _, doc := range docs {
		sc := s.params.scoreEvent(doc, queryVec, exposure, now, window)
		if sc.total < s.params.MinScore {
			continue
		}
		scored = append(scored, scoredEvent{doc: doc, score: sc})
	}
	slices.SortStableFunc(scored, func(a, b scoredEvent) int {
		return cmp.Compare(b.score.total, a.score.total)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	aggregate := 0.0
	keyEvents := make([]KeyEvent, 0, len(scored))
	evidence := make([]Evidence, 0, len(scored))
	risks := []string{}
	for _, se := range scored {
		d := se.doc
		aggregate += d.Direction * se.score.factorFit * (0.55 + 0.45*se.score.recency)

		keyEvents = append(keyEvents, KeyEvent{
			DocID:          d.DocID,
			Event:          d.Headline(),
			MarketReaction: d.MarketReaction,
			PublishedAt:    core.FormatTimestamp(d.PublishedAt),
			Source:         d.Source,
			SourceLink:     d.URL,
			RelevanceScore: round(se.score.total, 4),
		})
		evidence = append(evidence, Evidence{
			DocID:          d.DocID,
			Event:          d.Headline(),
			Cause:          d.Cause,
			Development:    d.Development,
			MarketReaction: d.MarketReaction,
			FactorScores:   d.FactorScores,
			Source:         d.Source,
			SourceLink:     d.URL,
		})
		if d.Invalidation != "" && !slices.Contains(risks, d.Invalidation) {
			risks = append(risks, d.Invalidation)
		}
	}
	if len(risks) > maxRiskConditions {
		risks = risks[:maxRiskConditions]
	}

	signal := s.classify(aggregate)
	return TickerDecision{
		Ticker:                     ticker,
		Signal:                     signal,
		Confidence:                 confidence(len(scored), aggregate),
		Aggregate:                  round(aggregate, 4),
		Conclusion:                 conclusion(ticker, signal, aggregate),
		CausalSummary:              causalSummary(ticker, scored),
		KeyEvents:                  keyEvents,
		Evidence:                   evidence,
		RiskInvalidationConditions: risks,
		FactorExposureUsed:         exposure,
		DefaultExposure:            defaulted,
	}, nil
}

func (s *DecisionService) classify(aggregate float64) core.Signal {
	switch {
	case aggregate >= s.params.AggregateThreshold:
		return core.SignalBullish
	case aggregate <= -s.params.AggregateThreshold:
		return core.SignalBearish
	default:
		return core.SignalNeutral
	}
}

// confidence grows with the number of supporting events and the aggregate magnitude.
func confidence(n int, aggregate float64) float64 {
	c := 0.45 + 0.12*float64(n) + 0.2*min(1, math.Abs(aggregate))
	return round(min(0.95, max(0.25, c)), 3)
}

func conclusion(ticker string, signal core.Signal, aggregate float64) string {
	switch signal {
	case core.SignalBullish:
		return fmt.Sprintf("%s: 사건/인과 기반 점수는 긍정 우위(aggregate=%.2f)로, 단기~중기 비중 확대 검토가 가능합니다.", ticker, aggregate)
	case core.SignalBearish:
		return fmt.Sprintf("%s: 부정 인과가 우세(aggregate=%.2f)하여 방어적 접근 또는 비중 축소가 타당합니다.", ticker, aggregate)
	default:
		return fmt.Sprintf("%s: 상·하방 인과가 혼재(aggregate=%.2f)하여 중립 유지와 추가 확인 이벤트 대기가 적절합니다.", ticker, aggregate)
	}
}

func causalSummary(ticker string, scored []scoredEvent) string {
	if len(scored) == 0 {
		return ticker + " 관련 사건 데이터가 부족하여 인과 요약 신뢰도가 낮습니다."
	}
	parts := make([]string, 0, summaryEvents)
	for _, se := range scored[:min(summaryEvents, len(scored))] {
		reaction := se.doc.MarketReaction
		if reaction == "" {
			reaction = missingReaction
		}
		parts = append(parts, se.doc.Headline()+" → "+reaction)
	}
	return strings.Join(parts, " | ")
}

// orderedSymbols trims, upper-cases and de-duplicates tickers, keeping query order.
func orderedSymbols(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			t := strings.ToUpper(strings.TrimSpace(part))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// Close releases the ingestion worker pool.
func (s *DecisionService) Close() {
	s.pipeline.Release()
}
