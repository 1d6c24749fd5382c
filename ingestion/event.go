package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/marketrag/ai"
	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/features"
)

// eventProcessor derives factor scores, direction and embedding for a market event.
type eventProcessor struct {
	embedder ai.Embedder
}

var _ processor[*core.EventDoc] = (*eventProcessor)(nil)

func (ep *eventProcessor) process(ctx context.Context, doc *core.EventDoc) error {
	doc.FactorScores = features.InferFactorScores(doc.Category, features.FactorText(doc))
	doc.Direction = features.InferDirection(features.DirectionText(doc))

	vec, err := ep.embedder.EmbedText(ctx, embedText(doc))
	if err != nil {
		return fmt.Errorf("embedding %s: %w", doc.DocID, err)
	}
	if len(vec) != ep.embedder.Dimension() {
		return fmt.Errorf("%w: %s has %d, want %d", ErrEmbeddingMismatch, doc.DocID, len(vec), ep.embedder.Dimension())
	}
	doc.Embedding = vec
	return nil
}

// embedText is the narrative an event is embedded from.
func embedText(doc *core.EventDoc) string {
	return strings.Join([]string{
		doc.Title,
		doc.Event,
		doc.Cause,
		doc.Development,
		doc.MarketReaction,
		strings.Join(doc.Scenarios, " "),
		doc.Invalidation,
	}, "\n")
}
