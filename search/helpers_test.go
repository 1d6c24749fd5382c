package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/marketrag/ai/hashing"
	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/provider"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// manualClock is a settable time source.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock(t time.Time) *manualClock {
	return &manualClock{t: t}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// staticProvider serves fixed rows or a fixed error.
type staticProvider struct {
	name   string
	kind   string
	rows   []core.RawRow
	latest bool
	err    error
	calls  atomic.Int32
}

var _ provider.Provider = (*staticProvider)(nil)

func (p *staticProvider) Name() string { return p.name }
func (p *staticProvider) Kind() string { return p.kind }

func (p *staticProvider) Load(ctx context.Context) (*provider.Batch, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return &provider.Batch{Rows: p.rows, LatestLoaded: p.latest}, nil
}

func newsProvider(rows ...core.RawRow) *staticProvider {
	return &staticProvider{name: "static_news", kind: provider.KindNews, rows: rows}
}

func briefProvider(rows ...core.RawRow) *staticProvider {
	return &staticProvider{name: "static_brief", kind: provider.KindBrief, rows: rows}
}

func newsArticle(id, title, content string, published time.Time, tickers ...string) core.RawRow {
	anyTickers := make([]any, len(tickers))
	for i, t := range tickers {
		anyTickers[i] = t
	}
	return core.NewRawRow(core.SourceNewsFile, map[string]any{
		"id":           id,
		"title":        title,
		"content":      content,
		"url":          "https://news.example.com/" + id,
		"published_at": core.FormatTimestamp(published),
		"tickers":      anyTickers,
	})
}

func briefEvent(id string, published time.Time, fields map[string]any) core.RawRow {
	row := map[string]any{"id": id, "published_at": core.FormatTimestamp(published)}
	for k, v := range fields {
		row[k] = v
	}
	return core.NewRawRow(core.SourceBriefJSON, row)
}

func testEmbedder(t *testing.T, dim int) *hashing.Embedder {
	t.Helper()
	e, err := hashing.New(dim)
	require.NoError(t, err)
	return e
}
