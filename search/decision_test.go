package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDecisionService(t *testing.T, clock *manualClock, sources ...provider.Provider) *DecisionService {
	t.Helper()
	svc, err := NewDecisionService(testEmbedder(t, 256), sources, WithClock(clock.Now), WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func aiReboundEvent() core.RawRow {
	return briefEvent("ai-rebound", testNow.Add(-2*time.Hour), map[string]any{
		"category":        "equity_theme_ai",
		"event":           "AI chip demand rebound",
		"cause":           "Semiconductor orders recover",
		"market_reaction": "Chip stocks rally",
		"invalidation":    "AI capex cut",
		"source":          "RESEARCHER",
		"url":             "https://research.example.com/ai",
	})
}

func fedShockEvent() core.RawRow {
	return briefEvent("fed-shock", testNow.Add(-3*time.Hour), map[string]any{
		"category":        "monetary_policy",
		"event":           "Fed tightening shock",
		"cause":           "Inflation concern",
		"market_reaction": "Bond selloff",
		"invalidation":    "CPI decline",
	})
}

func TestDecisionService_Signals(t *testing.T) {
	tests := []struct {
		name       string
		events     []core.RawRow
		ticker     string
		wantSignal core.Signal
		wantPhrase string
	}{
		{"growth rebound lifts QQQ", []core.RawRow{aiReboundEvent()}, "QQQ", core.SignalBullish, "긍정 우위"},
		{"tightening shock hits TLT", []core.RawRow{fedShockEvent()}, "TLT", core.SignalBearish, "부정 인과가 우세"},
		{"opposing events cancel out", []core.RawRow{aiReboundEvent(), fedShockEvent()}, "QQQ", core.SignalNeutral, "상·하방 인과가 혼재"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newDecisionService(t, newManualClock(testNow), briefProvider(tt.events...))

			res, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{tt.ticker}, LimitPerTicker: 5})
			require.NoError(t, err)
			require.Len(t, res.Results, 1)

			d := res.Results[0]
			assert.Equal(t, tt.ticker, d.Ticker)
			assert.Equal(t, tt.wantSignal, d.Signal)
			assert.Contains(t, d.Conclusion, tt.wantPhrase)
			assert.True(t, strings.HasPrefix(d.Conclusion, tt.ticker+": "))
			assert.Len(t, d.KeyEvents, len(tt.events))
			assert.Len(t, d.Evidence, len(tt.events))
			assert.GreaterOrEqual(t, d.Confidence, 0.25)
			assert.LessOrEqual(t, d.Confidence, 0.95)
		})
	}
}

func TestDecisionService_BullishDetails(t *testing.T) {
	svc := newDecisionService(t, newManualClock(testNow), briefProvider(aiReboundEvent()))

	res, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{"qqq"}, LimitPerTicker: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"QQQ"}, res.QueryTickers)
	assert.Equal(t, "2025-06-01T12:00:00Z", res.GeneratedAt)
	assert.Equal(t, "2025-06-01T12:00:00Z", res.IndexBuiltAt)
	assert.False(t, res.Cached)

	d := res.Results[0]
	// factor fit is (0.125*0.9 + 0.437*0.9 + 1.0*0.8) / 2.5 and direction is +1
	assert.InDelta(t, 0.5223, d.Aggregate, 1e-3)
	assert.InDelta(t, 0.675, d.Confidence, 2e-3)
	assert.Equal(t, "AI chip demand rebound → Chip stocks rally", d.CausalSummary)
	assert.Equal(t, []string{"AI capex cut"}, d.RiskInvalidationConditions)
	assert.Equal(t, 0.8, d.FactorExposureUsed[core.FactorSector])
	assert.False(t, d.DefaultExposure)

	ke := d.KeyEvents[0]
	assert.Equal(t, "ai-rebound", ke.DocID)
	assert.Equal(t, "AI chip demand rebound", ke.Event)
	assert.Equal(t, "Chip stocks rally", ke.MarketReaction)
	assert.Equal(t, "2025-06-01T10:00:00Z", ke.PublishedAt)
	assert.Equal(t, "RESEARCHER", ke.Source)
	assert.Equal(t, "https://research.example.com/ai", ke.SourceLink)
	assert.Greater(t, ke.RelevanceScore, 0.18)

	ev := d.Evidence[0]
	assert.Equal(t, "Semiconductor orders recover", ev.Cause)
	assert.Equal(t, 1.0, ev.FactorScores[core.FactorSector])
}

func TestDecisionService_EmptyIndex(t *testing.T) {
	svc := newDecisionService(t, newManualClock(testNow), briefProvider())

	res, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{"XYZ"}, LimitPerTicker: 5})
	require.NoError(t, err)

	d := res.Results[0]
	assert.Equal(t, core.SignalNeutral, d.Signal)
	assert.Equal(t, 0.45, d.Confidence)
	assert.Equal(t, "XYZ 관련 사건 데이터가 부족하여 인과 요약 신뢰도가 낮습니다.", d.CausalSummary)
	assert.Equal(t, "XYZ: 상·하방 인과가 혼재(aggregate=0.00)하여 중립 유지와 추가 확인 이벤트 대기가 적절합니다.", d.Conclusion)
	assert.Empty(t, d.KeyEvents)
	assert.Empty(t, d.RiskInvalidationConditions)
	for _, k := range core.FactorKeys {
		assert.Equal(t, 0.2, d.FactorExposureUsed[k], "unknown tickers get the default exposure")
	}
	assert.True(t, d.DefaultExposure)
}

func TestDecisionService_EmptyListsSerialize(t *testing.T) {
	svc := newDecisionService(t, newManualClock(testNow), briefProvider(briefEvent("no-inv", testNow.Add(-time.Hour), map[string]any{
		"category":        "monetary_policy",
		"event":           "Fed tightening shock",
		"cause":           "Inflation concern",
		"market_reaction": "Bond selloff",
	})))

	res, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{"TLT"}, LimitPerTicker: 3})
	require.NoError(t, err)
	d := res.Results[0]
	require.Len(t, d.KeyEvents, 1)
	assert.NotNil(t, d.RiskInvalidationConditions)
	assert.Empty(t, d.RiskInvalidationConditions)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"risk_invalidation_conditions":[]`)
	assert.Contains(t, string(raw), `"default_exposure":false`)
}

func TestDecisionService_SummaryAndRisks(t *testing.T) {
	var events []core.RawRow
	for i, inv := range []string{"A cond", "A cond", "B cond", "C cond", "D cond", "E cond"} {
		events = append(events, briefEvent(string(rune('a'+i)), testNow.Add(-time.Duration(i+1)*time.Hour), map[string]any{
			"category":        "macro_data",
			"event":           "Payroll surprise " + string(rune('A'+i)),
			"cause":           "Hiring strength",
			"market_reaction": "Yields rise",
			"invalidation":    inv,
		}))
	}
	svc := newDecisionService(t, newManualClock(testNow), briefProvider(events...))

	res, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{"SPY"}, LimitPerTicker: 10})
	require.NoError(t, err)
	d := res.Results[0]

	assert.Len(t, d.KeyEvents, 6)
	assert.Equal(t, 2, strings.Count(d.CausalSummary, " | "), "summary covers the top three events")
	require.Len(t, d.RiskInvalidationConditions, 4)
	seen := map[string]bool{}
	for _, c := range d.RiskInvalidationConditions {
		assert.False(t, seen[c], "duplicate condition %q", c)
		seen[c] = true
	}
	for i := 1; i < len(d.KeyEvents); i++ {
		assert.GreaterOrEqual(t, d.KeyEvents[i-1].RelevanceScore, d.KeyEvents[i].RelevanceScore)
	}

	res, err = svc.Brief(context.Background(), DecisionQuery{Tickers: []string{"SPY"}, LimitPerTicker: 0})
	require.NoError(t, err)
	assert.Len(t, res.Results[0].KeyEvents, 1, "limit is raised to one")
}

func TestDecisionService_MissingReaction(t *testing.T) {
	svc := newDecisionService(t, newManualClock(testNow), briefProvider(briefEvent("x", testNow, map[string]any{
		"category": "energy_oil", "event": "OPEC cut", "cause": "Supply discipline", "invalidation": "Demand slump",
	})))

	res, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{"XLE"}, LimitPerTicker: 3})
	require.NoError(t, err)
	assert.Equal(t, "OPEC cut → 시장 반응 정보 제한", res.Results[0].CausalSummary)
}

func TestDecisionService_TickerOrderAndCache(t *testing.T) {
	clock := newManualClock(testNow)
	src := briefProvider(aiReboundEvent(), fedShockEvent())
	svc := newDecisionService(t, clock, src)
	ctx := context.Background()

	first, err := svc.Brief(ctx, DecisionQuery{Tickers: []string{"tlt", " QQQ ", "TLT,SPY"}, LimitPerTicker: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"TLT", "QQQ", "SPY"}, first.QueryTickers)
	require.Len(t, first.Results, 3)
	assert.Equal(t, "TLT", first.Results[0].Ticker)
	assert.False(t, first.Cached)

	clock.Advance(time.Minute)
	second, err := svc.Brief(ctx, DecisionQuery{Tickers: []string{"TLT", "QQQ", "SPY"}, LimitPerTicker: 5})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, "2025-06-01T12:01:00Z", second.GeneratedAt)

	partial, err := svc.Brief(ctx, DecisionQuery{Tickers: []string{"QQQ", "IWM"}, LimitPerTicker: 5})
	require.NoError(t, err)
	assert.False(t, partial.Cached, "one fresh ticker makes the result fresh")

	_, err = svc.Build(ctx)
	require.NoError(t, err)
	rebuilt, err := svc.Brief(ctx, DecisionQuery{Tickers: []string{"QQQ"}, LimitPerTicker: 5})
	require.NoError(t, err)
	assert.False(t, rebuilt.Cached)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestDecisionService_EmptyQuery(t *testing.T) {
	src := briefProvider(aiReboundEvent())
	svc := newDecisionService(t, newManualClock(testNow), src)

	_, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{" ", ","}})
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
	assert.Equal(t, int32(0), src.calls.Load())
}

func writeJSON(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDecisionService_BuildFromDirectories(t *testing.T) {
	root := t.TempDir()
	rawDir := filepath.Join(root, "raw")
	briefDir := filepath.Join(root, "brief")

	writeJSON(t, rawDir, "2025-05-30_latest.json", `{"items": [
		{"id": "evt-1", "title": "Fed holds", "key_points": ["inflation sticky", "dots shift", "yields rise"],
		 "published_at": "2025-05-30T09:00:00Z", "category": "monetary_policy"},
		{"id": "evt-2", "title": "Oil rebounds", "key_points": ["OPEC cut"], "published_at": "2025-05-30T10:00:00Z"}
	]}`)
	writeJSON(t, briefDir, "2025-05-31.json", `{"date": "2025-05-31", "generated_at_utc": "2025-05-31T06:00:00Z", "events": [
		{"event": "FOMC holds rates", "cause": "물가 둔화 지연", "market_reaction": "금리 상승", "invalidation": "CPI 하락"}
	]}`)
	writeJSON(t, briefDir, "2025-05-31.md", "# Brief\n\n## Oil supply shock\n- **원인**: OPEC 감산\n- **시장반응**: 유가 급등\n")

	raw, err := provider.NewRawDigestDir(rawDir)
	require.NoError(t, err)
	brief, err := provider.NewBriefDir(briefDir)
	require.NoError(t, err)
	svc := newDecisionService(t, newManualClock(testNow), raw, brief)

	res, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.IndexedDocs)
	assert.False(t, res.Degraded)
	assert.Equal(t, 256, res.EmbedDim)
	assert.Equal(t, map[string]int{"2025-05-30": 2, "2025-05-31": 2}, res.ArchivesByDate)
	assert.Equal(t, map[string]bool{provider.KindRaw: true, provider.KindBrief: false}, res.LatestLoaded)

	out, err := svc.Brief(context.Background(), DecisionQuery{Tickers: []string{"TLT", "XLE"}, LimitPerTicker: 3})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.NotEmpty(t, out.Results[0].KeyEvents)
	assert.NotEmpty(t, out.Results[1].KeyEvents)
}

func TestDecisionService_MissingDirectories(t *testing.T) {
	root := t.TempDir()
	raw, err := provider.NewRawDigestDir(filepath.Join(root, "absent-raw"))
	require.NoError(t, err)
	brief, err := provider.NewBriefDir(filepath.Join(root, "absent-brief"))
	require.NoError(t, err)
	svc := newDecisionService(t, newManualClock(testNow), raw, brief)

	res, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.IndexedDocs)
	assert.False(t, res.Degraded)
}

func TestDecisionService_DegradedSource(t *testing.T) {
	broken := &staticProvider{name: "raw", kind: provider.KindRaw, err: errors.New("disk gone")}
	svc := newDecisionService(t, newManualClock(testNow), broken, briefProvider(aiReboundEvent()))

	res, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.Error, "raw: disk gone")
	assert.Equal(t, 1, res.IndexedDocs)
	assert.Equal(t, "raw,static_brief", res.Provider)
	assert.False(t, res.LatestLoaded[provider.KindRaw])
}

func TestNewDecisionService_Validation(t *testing.T) {
	e := testEmbedder(t, 16)

	_, err := NewDecisionService(nil, []provider.Provider{briefProvider()})
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewDecisionService(e, nil)
	assert.ErrorIs(t, err, ErrProviderRequired)

	_, err = NewDecisionService(e, []provider.Provider{briefProvider(), nil})
	assert.ErrorIs(t, err, ErrProviderRequired)
}
