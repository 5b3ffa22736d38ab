package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nyaruka/gocommon/httpx"
	"go.uber.org/zap"
)

const (
	// DefaultMaxBundleBytes caps the size of a downloaded bundle.
	DefaultMaxBundleBytes = 64 << 20

	// DefaultBundleMaxAge is how long a cached bundle is reused before it is downloaded again.
	DefaultBundleMaxAge = time.Hour
)

// BundleSource supplies the zipped function code.
type BundleSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// StaticBundle is a BundleSource holding the code in memory.
type StaticBundle []byte

// Fetch returns the bundle.
func (b StaticBundle) Fetch(ctx context.Context) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("bundle is empty")
	}
	return b, nil
}

// HTTPBundle downloads the function code and keeps it in a cache file.
// Fetches read the cache until it is older than the max age. A max age of
// zero or less downloads on every fetch. If a refresh fails, a stale cache
// is used instead.
type HTTPBundle struct {
	url        string
	cachePath  string
	client     *http.Client
	logger     *zap.Logger
	maxRetries uint
	newBackOff func() backoff.BackOff
	maxBytes   int
	maxAge     time.Duration
	now        func() time.Time
}

// BundleOption configures an HTTPBundle.
type BundleOption func(*HTTPBundle)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) BundleOption {
	return func(b *HTTPBundle) {
		b.client = c
	}
}

// WithBundleLogger sets the logger.
func WithBundleLogger(logger *zap.Logger) BundleOption {
	return func(b *HTTPBundle) {
		b.logger = logger
	}
}

// WithDownloadRetries sets how often a failed download is retried and the
// policy between attempts.
func WithDownloadRetries(n uint, newBackOff func() backoff.BackOff) BundleOption {
	return func(b *HTTPBundle) {
		b.maxRetries = n
		b.newBackOff = newBackOff
	}
}

// WithMaxBundleBytes caps the size of the downloaded bundle.
func WithMaxBundleBytes(n int) BundleOption {
	return func(b *HTTPBundle) {
		b.maxBytes = n
	}
}

// WithCacheMaxAge sets how long the cache file is trusted.
func WithCacheMaxAge(d time.Duration) BundleOption {
	return func(b *HTTPBundle) {
		b.maxAge = d
	}
}

// NewHTTPBundle creates an HTTPBundle for url. An empty cachePath disables caching.
func NewHTTPBundle(url, cachePath string, opts ...BundleOption) *HTTPBundle {
	b := &HTTPBundle{
		url:        url,
		cachePath:  cachePath,
		client:     &http.Client{Timeout: time.Minute},
		logger:     zap.NewNop(),
		maxRetries: 3,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		maxBytes:   DefaultMaxBundleBytes,
		maxAge:     DefaultBundleMaxAge,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fetch returns the cached bundle while it is fresh and downloads it otherwise.
func (b *HTTPBundle) Fetch(ctx context.Context) ([]byte, error) {
	cached, fresh := b.readCache()
	if fresh {
		b.logger.Debug("using cached bundle", zap.String("path", b.cachePath))
		return cached, nil
	}

	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		return b.download(ctx)
	},
		backoff.WithBackOff(b.newBackOff()),
		backoff.WithMaxTries(b.maxRetries+1),
	)
	if err != nil {
		if len(cached) > 0 {
			b.logger.Warn("refresh failed, using stale bundle", zap.String("path", b.cachePath), zap.Error(err))
			return cached, nil
		}
		return nil, fmt.Errorf("download %s: %w", b.url, err)
	}
	b.logger.Info("downloaded bundle", zap.String("url", b.url), zap.Int("bytes", len(data)))

	if b.cachePath != "" {
		if err := writeFileAtomic(b.cachePath, data); err != nil {
			b.logger.Warn("failed to cache bundle", zap.String("path", b.cachePath), zap.Error(err))
		}
	}
	return data, nil
}

// readCache returns the cached bundle, if any, and whether it is within the max age.
func (b *HTTPBundle) readCache() ([]byte, bool) {
	if b.cachePath == "" {
		return nil, false
	}
	info, err := os.Stat(b.cachePath)
	if err != nil || info.Size() == 0 {
		return nil, false
	}
	data, err := os.ReadFile(b.cachePath)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	fresh := b.maxAge > 0 && b.now().Sub(info.ModTime()) <= b.maxAge
	return data, fresh
}

func (b *HTTPBundle) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	trace, err := httpx.DoTrace(b.client, req, nil, nil, b.maxBytes)
	if err != nil {
		// a response with an error means the body could not be read in full
		if trace != nil && trace.Response != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	status := trace.Response.StatusCode
	switch {
	case status >= 500 || status == http.StatusTooManyRequests:
		return nil, fmt.Errorf("unexpected status %d", status)
	case status/100 != 2:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %d", status))
	}

	if len(trace.ResponseBody) == 0 {
		return nil, backoff.Permanent(errors.New("empty bundle"))
	}
	return trace.ResponseBody, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
