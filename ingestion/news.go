package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/marketrag/ai"
	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/features"
)

// newsProcessor derives signal, summary, evidence and embedding for a news article.
type newsProcessor struct {
	embedder ai.Embedder
	margin   int
}

var _ processor[*core.NewsDoc] = (*newsProcessor)(nil)

func (np *newsProcessor) process(ctx context.Context, doc *core.NewsDoc) error {
	full := doc.Title + "\n" + doc.Content

	doc.Signal = features.InferSignal(full, np.margin)
	doc.Summary = features.Summarize(doc.Content, features.DefaultSummaryRunes)
	doc.Evidence = features.ExtractEvidence(doc.Content, doc.Tickers, doc.Signal)

	vec, err := np.embedder.EmbedText(ctx, full)
	if err != nil {
		return fmt.Errorf("embedding %s: %w", doc.DocID, err)
	}
	if len(vec) != np.embedder.Dimension() {
		return fmt.Errorf("%w: %s has %d, want %d", ErrEmbeddingMismatch, doc.DocID, len(vec), np.embedder.Dimension())
	}
	doc.Embedding = vec
	return nil
}
