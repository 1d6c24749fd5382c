package provider

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/normalize"
)

var (
	htmlTagRe  = regexp.MustCompile(`<[^>]*>`)
	categoryRe = regexp.MustCompile(`^[A-Z]{2,5}$`)
)

// FeedSource is one RSS or Atom feed. Items carry no ticker metadata of their own,
// so every item from the feed is tagged with Tickers and Sectors.
type FeedSource struct {
	URL     string   `koanf:"url"`
	Tickers []string `koanf:"tickers"`
	Sectors []string `koanf:"sectors"`
}

// Feed loads news articles from RSS/Atom feeds.
//
// Requests are paced by a shared token bucket, each attempt is bounded by the
// configured timeout, and failed fetches are retried with exponential backoff.
// Items are de-duplicated by normalized link, keeping the most recently published.
type Feed struct {
	sources []FeedSource
	parser  *gofeed.Parser
	retry   *retrier
	logger  *slog.Logger
}

var _ Provider = (*Feed)(nil)

// NewFeed creates a feed provider over sources.
func NewFeed(sources []FeedSource, opts ...Option) (*Feed, error) {
	if len(sources) == 0 {
		return nil, ErrNoFeeds
	}
	for _, s := range sources {
		if strings.TrimSpace(s.URL) == "" {
			return nil, ErrNoFeeds
		}
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	parser.UserAgent = "marketrag/1.0"
	if o.client != nil {
		parser.Client = o.client
	}

	logger := o.logger.With("provider", "rss")
	return &Feed{
		sources: sources,
		parser:  parser,
		retry:   newRetrier(o, logger),
		logger:  logger,
	}, nil
}

// Name returns "rss".
func (p *Feed) Name() string { return string(core.SourceRSS) }

// Kind returns KindNews.
func (p *Feed) Kind() string { return KindNews }

// Load fetches every feed. Individual feed failures are logged; if every feed fails
// the result is core.ErrSourceUnavailable, and if the feeds are reachable but carry
// no items it is core.ErrEmptySource.
func (p *Feed) Load(ctx context.Context) (*Batch, error) {
	var (
		rows   []core.RawRow
		byLink = make(map[string]int)
		errs   []error
	)

	for _, src := range p.sources {
		feed, err := p.fetch(ctx, src.URL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			p.logger.Warn("feed unavailable", "url", src.URL, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.URL, err))
			continue
		}

		for _, item := range feed.Items {
			row, published := p.itemRow(src, item)
			key := normalize.NormalizeLink(row.String("url"))
			if key == "" {
				rows = append(rows, row)
				continue
			}
			if idx, seen := byLink[key]; seen {
				if published.After(publishedOf(rows[idx])) {
					rows[idx] = row
				}
				continue
			}
			byLink[key] = len(rows)
			rows = append(rows, row)
		}
	}

	if len(errs) == len(p.sources) {
		return nil, fmt.Errorf("%w: %w", core.ErrSourceUnavailable, errors.Join(errs...))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: feeds returned no items", core.ErrEmptySource)
	}

	p.logger.Debug("loaded feeds", "feeds", len(p.sources), "failed", len(errs), "rows", len(rows))
	return &Batch{Rows: rows}, nil
}

func (p *Feed) fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	var feed *gofeed.Feed
	err := p.retry.do(ctx, url, func(ctx context.Context) error {
		parsed, err := p.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	})
	return feed, err
}

func (p *Feed) itemRow(src FeedSource, item *gofeed.Item) (core.RawRow, time.Time) {
	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	}

	content := item.Content
	if strings.TrimSpace(content) == "" {
		content = item.Description
	}

	tickers := append([]string(nil), src.Tickers...)
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); categoryRe.MatchString(c) {
			tickers = append(tickers, c)
		}
	}

	fields := map[string]any{
		"title":   stripHTML(item.Title),
		"content": stripHTML(content),
		"url":     strings.TrimSpace(item.Link),
		"tickers": tickers,
		"sectors": append([]string(nil), src.Sectors...),
	}
	if !published.IsZero() {
		fields["published_at"] = core.FormatTimestamp(published)
	}
	if item.GUID != "" {
		fields["guid"] = item.GUID
	}

	row := core.NewRawRow(core.SourceRSS, fields)
	row.Origin = src.URL
	return row, published
}

func publishedOf(row core.RawRow) time.Time {
	t, err := normalize.ParseTimestamp(row.String("published_at"))
	if err != nil {
		return time.Time{}
	}
	return t
}

func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagRe.ReplaceAllString(s, " ")))
}
