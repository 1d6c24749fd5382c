package provider

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/normalize"
)

// RawDigestDir loads raw daily news digests: *.json files shaped {"items": [...]}.
type RawDigestDir struct {
	dir    string
	logger *slog.Logger
}

var _ Provider = (*RawDigestDir)(nil)

// NewRawDigestDir creates a provider over the digest files in dir.
func NewRawDigestDir(dir string, opts ...Option) (*RawDigestDir, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RawDigestDir{
		dir:    dir,
		logger: o.logger.With("provider", "raw_digest"),
	}, nil
}

// Name returns "raw".
func (p *RawDigestDir) Name() string { return string(core.SourceRaw) }

// Kind returns KindRaw.
func (p *RawDigestDir) Kind() string { return KindRaw }

// Load reads every digest file in name order. A missing directory yields an empty
// batch. Files that fail to parse are logged and skipped.
func (p *RawDigestDir) Load(ctx context.Context) (*Batch, error) {
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
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if isLatest(name) {
			batch.LatestLoaded = true
		}

		payload, err := readJSON(path)
		if err != nil {
			p.logger.Warn("skipping unreadable digest", "file", name, "err", err)
			continue
		}
		doc, _ := payload.(map[string]any)

		date := normalize.DateFromFilename(name)
		for _, item := range objects(doc["items"]) {
			row := core.NewRawRow(core.SourceRaw, item)
			row.Origin = name
			row.Date = date
			batch.Rows = append(batch.Rows, row)
		}
	}

	p.logger.Debug("loaded raw digests", "dir", p.dir, "files", len(files), "rows", len(batch.Rows))
	return batch, nil
}
