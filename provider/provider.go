package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/marketrag/core"
	"golang.org/x/time/rate"
)

// Source kinds, used as keys of a snapshot's latest-loaded flags.
const (
	KindNews  = "news"
	KindRaw   = "raw"
	KindBrief = "brief"
)

// Provider loads raw rows from one source.
// Implementations must be safe to call repeatedly; every Load re-reads the source.
type Provider interface {
	// Name identifies the provider in build results and logs.
	Name() string

	// Kind is the source kind (KindNews, KindRaw or KindBrief).
	Kind() string

	// Load reads every row currently available from the source.
	Load(ctx context.Context) (*Batch, error)
}

// Batch is the result of one Load.
type Batch struct {
	Rows []core.RawRow

	// LatestLoaded reports whether a file designated "latest" was among the inputs.
	LatestLoaded bool
}

type options struct {
	logger    *slog.Logger
	client    *http.Client
	timeout   time.Duration
	attempts  int
	baseDelay time.Duration
	limiter   *rate.Limiter
}

func defaultOptions() *options {
	return &options{
		logger:    slog.Default(),
		timeout:   10 * time.Second,
		attempts:  3,
		baseDelay: 500 * time.Millisecond,
		limiter:   rate.NewLimiter(rate.Limit(2), 1),
	}
}

// Option configures a provider.
type Option func(*options) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithHTTPClient sets the HTTP client used by network providers.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) error {
		o.client = client
		return nil
	}
}

// WithTimeout bounds each network request.
// Default is 10 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		o.timeout = timeout
		return nil
	}
}

// WithRetry sets the number of attempts per request and the base backoff delay.
// Default is 3 attempts starting at 500ms.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(o *options) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		o.attempts = attempts
		o.baseDelay = baseDelay
		return nil
	}
}

// WithRateLimit paces requests across all URLs of a provider.
// Default is 2 requests per second with a burst of 1.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(o *options) error {
		if requestsPerSecond <= 0 || burst < 1 {
			return fmt.Errorf("invalid rate limit %.2f/s burst %d", requestsPerSecond, burst)
		}
		o.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		return nil
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// collectFiles lists the regular, non-hidden files of dir in name order.
// A missing directory yields no files and no error.
func collectFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", core.ErrSourceUnavailable, dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	slices.Sort(files)
	return files, nil
}

func readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// objects returns the elements of an array payload that are JSON objects.
func objects(value any) []map[string]any {
	items, _ := value.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func isLatest(name string) bool {
	return strings.Contains(strings.ToLower(name), "latest")
}
