package provider

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/normalize"
)

// BriefSource is the source label stamped on events from JSON research briefs.
const BriefSource = "RESEARCHER"

// BriefDir loads curated research briefs: *.json files shaped
// {"date", "generated_at_utc", "events": [...]} and *.md files with one "## " section per event.
type BriefDir struct {
	dir    string
	logger *slog.Logger
}

var _ Provider = (*BriefDir)(nil)

// NewBriefDir creates a provider over the brief files in dir.
func NewBriefDir(dir string, opts ...Option) (*BriefDir, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &BriefDir{
		dir:    dir,
		logger: o.logger.With("provider", "brief"),
	}, nil
}

// Name returns "brief".
func (p *BriefDir) Name() string { return KindBrief }

// Kind returns KindBrief.
func (p *BriefDir) Kind() string { return KindBrief }

// Load reads every brief in name order. Only JSON briefs mark the batch as latest.
func (p *BriefDir) Load(ctx context.Context) (*Batch, error) {
	files, err := collectFiles(p.dir)
	if err != nil {
		return nil, err
	}

	batch := &Batch{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(path)

		switch {
		case strings.HasSuffix(name, ".json"):
			if isLatest(name) {
				batch.LatestLoaded = true
			}
			rows, err := p.loadJSON(path)
			if err != nil {
				p.logger.Warn("skipping unreadable brief", "file", name, "err", err)
				continue
			}
			batch.Rows = append(batch.Rows, rows...)

		case strings.HasSuffix(name, ".md"):
			text, err := os.ReadFile(path)
			if err != nil {
				p.logger.Warn("skipping unreadable brief", "file", name, "err", err)
				continue
			}
			batch.Rows = append(batch.Rows, normalize.ParseBriefMarkdown(string(text), name)...)
		}
	}

	p.logger.Debug("loaded briefs", "dir", p.dir, "files", len(files), "rows", len(batch.Rows))
	return batch, nil
}

func (p *BriefDir) loadJSON(path string) ([]core.RawRow, error) {
	payload, err := readJSON(path)
	if err != nil {
		return nil, err
	}
	doc, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("brief must be a JSON object")
	}

	name := filepath.Base(path)
	header := core.NewRawRow(core.SourceBriefJSON, doc)
	date := header.String("date")
	if date == "" {
		date = normalize.DateFromFilename(name)
	}
	generated := header.String("generated_at_utc")

	events := objects(doc["events"])
	rows := make([]core.RawRow, 0, len(events))
	for i, ev := range events {
		fields := maps.Clone(ev)
		row := core.NewRawRow(core.SourceBriefJSON, fields)
		event := row.String("event")

		if !row.Has("id") {
			fields["id"] = fmt.Sprintf("brief_%s_%d_%s", date, i+1, core.IDFromContent(event)[:8])
		}
		if !row.Has("title") {
			fields["title"] = event
		}
		if !row.Has("published_at") {
			fields["published_at"] = generated
		}
		if !row.Has("source") {
			fields["source"] = BriefSource
		}

		row.Origin = name
		row.Date = date
		rows = append(rows, row)
	}
	return rows, nil
}
