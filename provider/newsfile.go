package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/marketrag/core"
)

// NewsFile loads news articles from a local JSON array file.
type NewsFile struct {
	path   string
	logger *slog.Logger
}

var _ Provider = (*NewsFile)(nil)

// NewNewsFile creates a provider reading the JSON array at path.
func NewNewsFile(path string, opts ...Option) (*NewsFile, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &NewsFile{
		path:   path,
		logger: o.logger.With("provider", "news_file"),
	}, nil
}

// Name returns "news_file".
func (p *NewsFile) Name() string { return string(core.SourceNewsFile) }

// Kind returns KindNews.
func (p *NewsFile) Kind() string { return KindNews }

// Load reads the file. A missing or unreadable file is core.ErrSourceUnavailable;
// anything other than a non-empty JSON array is core.ErrEmptySource.
// Array elements that are not objects become empty rows and fail normalization.
func (p *NewsFile) Load(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := readJSON(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: news data not found: %s", core.ErrSourceUnavailable, p.path)
		}
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("%w: %w", core.ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %s is not valid JSON: %w", core.ErrEmptySource, p.path, err)
	}

	items, ok := payload.([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("%w: %s must be a non-empty JSON array", core.ErrEmptySource, p.path)
	}

	origin := filepath.Base(p.path)
	rows := make([]core.RawRow, 0, len(items))
	for _, item := range items {
		fields, _ := item.(map[string]any)
		row := core.NewRawRow(core.SourceNewsFile, fields)
		row.Origin = origin
		rows = append(rows, row)
	}

	p.logger.Debug("loaded news file", "path", p.path, "rows", len(rows))
	return &Batch{Rows: rows}, nil
}
