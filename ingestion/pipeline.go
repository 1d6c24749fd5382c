package ingestion

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/marketrag/ai"
	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/features"
	"github.com/poiesic/marketrag/normalize"
)

// Pipeline normalizes, merges and enriches raw rows for one index build.
// A Pipeline may be reused across builds; callers serialize builds themselves.
type Pipeline struct {
	embedder         ai.Embedder
	pool             *ants.Pool
	signalMargin     int
	strictTimestamps bool
	now              func() time.Time
	logger           *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for feature extraction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithSignalMargin sets the keyword lead required to call a news article bullish or bearish.
// Default is features.DefaultSignalMargin.
func WithSignalMargin(margin int) Option {
	return func(p *Pipeline) error {
		p.signalMargin = margin
		return nil
	}
}

// WithStrictTimestamps rejects news rows whose published_at is malformed
// instead of stamping them with the build time.
func WithStrictTimestamps(strict bool) Option {
	return func(p *Pipeline) error {
		p.strictTimestamps = strict
		return nil
	}
}

// WithClock sets the time source used for missing or malformed timestamps.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			now = time.Now
		}
		p.now = now
		return nil
	}
}

// NewPipeline creates a pipeline embedding documents with embedder.
func NewPipeline(embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder:     embedder,
		pool:         pool,
		signalMargin: features.DefaultSignalMargin,
		now:          time.Now,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// Result is the outcome of one build.
type Result[D any] struct {
	// Docs are the enriched, de-duplicated documents.
	Docs []D

	// SkippedRows counts input rows dropped because they failed validation.
	SkippedRows int
}

// BuildNews normalizes news rows, enriches them and merges duplicates.
// Documents keep input order.
func (p *Pipeline) BuildNews(ctx context.Context, rows []core.RawRow) (*Result[*core.NewsDoc], error) {
	now := p.now().UTC()
	var opts []normalize.NewsOption
	if p.strictTimestamps {
		opts = append(opts, normalize.WithStrictTimestamps())
	}

	skipped := 0
	docs := make([]*core.NewsDoc, 0, len(rows))
	for _, row := range rows {
		doc, err := normalize.NormalizeNews(row, now, opts...)
		if err != nil {
			p.skip(row, err)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}

	proc := &newsProcessor{embedder: p.embedder, margin: p.signalMargin}
	if err := runPool(ctx, p.pool, proc, docs); err != nil {
		return nil, err
	}

	valid := docs[:0]
	for _, doc := range docs {
		if err := core.ValidateNewsDoc(doc, p.embedder.Dimension()); err != nil {
			p.logger.Warn("dropping invalid news document", "doc_id", doc.DocID, "err", err)
			skipped++
			continue
		}
		valid = append(valid, doc)
	}

	merged := MergeNews(valid)
	p.logger.Info("news documents prepared", "rows", len(rows), "docs", len(merged), "skipped", skipped)
	return &Result[*core.NewsDoc]{Docs: merged, SkippedRows: skipped}, nil
}

// BuildEvents normalizes event rows, merges duplicates by source priority and enriches
// the survivors. Documents are ordered by PublishedAt, newest first.
func (p *Pipeline) BuildEvents(ctx context.Context, rows []core.RawRow) (*Result[*core.EventDoc], error) {
	now := p.now().UTC()

	skipped := 0
	docs := make([]*core.EventDoc, 0, len(rows))
	for _, row := range rows {
		doc, err := normalize.NormalizeEvent(row, now)
		if err != nil {
			p.skip(row, err)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}
	docs = MergeEvents(docs)

	proc := &eventProcessor{embedder: p.embedder}
	if err := runPool(ctx, p.pool, proc, docs); err != nil {
		return nil, err
	}

	valid := docs[:0]
	for _, doc := range docs {
		if err := core.ValidateEventDoc(doc, p.embedder.Dimension()); err != nil {
			p.logger.Warn("dropping invalid event document", "doc_id", doc.DocID, "err", err)
			skipped++
			continue
		}
		valid = append(valid, doc)
	}

	slices.SortStableFunc(valid, func(a, b *core.EventDoc) int {
		return cmp.Compare(b.PublishedAt.UnixNano(), a.PublishedAt.UnixNano())
	})

	p.logger.Info("event documents prepared", "rows", len(rows), "docs", len(valid), "skipped", skipped)
	return &Result[*core.EventDoc]{Docs: valid, SkippedRows: skipped}, nil
}

func (p *Pipeline) skip(row core.RawRow, err error) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		p.logger.Warn("skipping invalid row", "source", row.SourceType, "origin", row.Origin, "field", ve.Field, "reason", ve.Reason)
		return
	}
	p.logger.Warn("skipping row", "source", row.SourceType, "origin", row.Origin, "err", err)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
