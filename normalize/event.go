package normalize

import (
	"strings"
	"time"

	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/features"
)

// NormalizeEvent validates a raw event row and converts it into an EventDoc.
// Derived features (factor scores, direction, embedding) are left empty.
//
// Raw digest items carry their narrative in key_points, which are mapped onto
// cause, development and market reaction in that order. Brief rows carry the
// narrative fields directly. A missing or malformed published_at falls back to now.
func NormalizeEvent(row core.RawRow, now time.Time) (*core.EventDoc, error) {
	doc := &core.EventDoc{
		SourceType: row.SourceType,
		Category:   row.String("category"),
		Source:     row.String("source"),
		URL:        row.String("url", "link"),
		KeyPoints:  row.Strings("key_points"),
	}
	if doc.SourceType == "" {
		doc.SourceType = core.SourceRaw
	}

	switch doc.SourceType {
	case core.SourceRaw:
		doc.Title = row.String("title")
		doc.Event = doc.Title
		kp := doc.KeyPoints
		if len(kp) > 0 {
			doc.Cause = kp[0]
		}
		if len(kp) > 1 {
			doc.Development = kp[1]
		} else {
			doc.Development = strings.Join(kp, " ")
		}
		if len(kp) > 2 {
			doc.MarketReaction = kp[2]
		}
	default:
		doc.Event = row.String("event", "title")
		doc.Title = row.String("title", "event")
		doc.Cause = row.String("cause")
		doc.Development = row.String("development")
		doc.MarketReaction = row.String("market_reaction")
		doc.Scenarios = row.Strings("scenarios")
		doc.Invalidation = row.String("invalidation")
	}

	if doc.Title == "" && doc.Event == "" {
		return nil, core.NewValidationError("title", "is required")
	}

	doc.PublishedAt = TimestampOr(row.String("published_at", "generated_at_utc"), now)

	doc.Date = row.Date
	if doc.Date == "" {
		doc.Date = row.String("date")
	}
	if doc.Date == "" {
		doc.Date = DateOf(doc.PublishedAt)
	}

	doc.DocID = row.String("doc_id", "id")
	if doc.DocID == "" {
		doc.DocID = "event_" + core.IDFromContent(doc.Headline()+"|"+doc.URL)
	}

	if doc.Category == "" {
		switch doc.SourceType {
		case core.SourceRaw:
		case core.SourceBriefJSON:
			// Curated events are categorized by event name only.
			doc.Category = features.InferCategory(doc.Headline())
		default:
			doc.Category = features.InferCategory(strings.Join([]string{
				doc.Headline(), doc.Cause, doc.Development, doc.MarketReaction, doc.Invalidation,
			}, " "))
		}
	}

	return doc, nil
}
