package normalize

import (
	"slices"
	"strings"
	"time"

	"github.com/poiesic/marketrag/core"
)

type newsOptions struct {
	strictTimestamps bool
}

// NewsOption configures NormalizeNews.
type NewsOption func(*newsOptions)

// WithStrictTimestamps rejects rows whose published_at is present but malformed
// instead of replacing it with the build time.
func WithStrictTimestamps() NewsOption {
	return func(o *newsOptions) {
		o.strictTimestamps = true
	}
}

// NormalizeNews validates a raw news row and converts it into a NewsDoc.
// Derived features (summary, signal, evidence, embedding) are left empty.
//
// Required fields: title, content (or summary), url (or link).
func NormalizeNews(row core.RawRow, now time.Time, opts ...NewsOption) (*core.NewsDoc, error) {
	o := &newsOptions{}
	for _, opt := range opts {
		opt(o)
	}

	title := row.String("title")
	content := row.String("content", "summary", "description")
	link := row.String("url", "link")

	if title == "" {
		return nil, core.NewValidationError("title", "is required")
	}
	if content == "" {
		return nil, core.NewValidationError("content", "is required")
	}
	if link == "" {
		return nil, core.NewValidationError("url", "is required")
	}

	rawPublished := row.String("published_at", "published")
	published, err := ParseTimestamp(rawPublished)
	if err != nil {
		if o.strictTimestamps && rawPublished != "" {
			return nil, core.NewValidationError("published_at", "is not an ISO-8601 timestamp")
		}
		published = now.UTC().Truncate(time.Second)
	}

	id := row.String("id", "doc_id")
	if id == "" {
		id = "news_" + core.IDFromContent(title+"|"+link)
	}

	sourceType := row.SourceType
	if sourceType == "" {
		sourceType = core.SourceNewsFile
	}

	return &core.NewsDoc{
		DocID:       id,
		Title:       title,
		Content:     content,
		SourceLink:  link,
		PublishedAt: published,
		Date:        DateOf(published),
		SourceType:  sourceType,
		Tickers:     Symbols(row.Strings("tickers")),
		Sectors:     Symbols(row.Strings("sectors")),
	}, nil
}

// Symbols trims, uppercases, deduplicates and sorts a symbol list.
func Symbols(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
