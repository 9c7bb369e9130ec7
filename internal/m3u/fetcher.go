package m3u

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// maxPlaylistBytes caps how much playlist text we are willing to
	// stream from a provider.
	maxPlaylistBytes = 2 << 30 // 2 GiB

	defaultFetchTimeout = 5 * time.Minute
	defaultMaxRetries   = 3
)

// FetcherConfig tunes playlist retrieval.
type FetcherConfig struct {
	Timeout    time.Duration
	MaxRetries uint
	UserAgent  string
}

// Fetcher downloads playlist text over HTTP with retry on transient
// failures. The returned body is streamed, never buffered in full.
type Fetcher struct {
	client     *http.Client
	maxRetries uint
	userAgent  string
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. Zero-value config fields fall back to
// defaults.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "StreamVault/1.0"
	}
	return &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// Fetch retrieves the playlist at url and returns its body for
// streaming. Transient failures (network errors, 5xx, 429) are retried
// with exponential backoff; client errors fail immediately with a
// message meant for end users. The caller must close the body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var body io.ReadCloser

	err := retry.Do(
		func() error {
			resp, err := f.attempt(ctx, url)
			if err != nil {
				return err
			}
			body = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.maxRetries),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var perm *permanentError
			return !errors.As(err, &perm)
		}),
		retry.OnRetry(func(n uint, err error) {
			if f.logger != nil {
				f.logger.Warn("playlist fetch failed, retrying",
					"attempt", n+1,
					"max_attempts", f.maxRetries,
					"error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("invalid playlist url: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request playlist: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// ok
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, fmt.Errorf("provider is rate limiting requests (HTTP 429)")
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, &permanentError{fmt.Errorf("provider rejected credentials (HTTP %d); check the playlist url", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, &permanentError{fmt.Errorf("playlist not found (HTTP 404); check the url")}
	default:
		resp.Body.Close()
		return nil, &permanentError{fmt.Errorf("unexpected response from provider: HTTP %d", resp.StatusCode)}
	}

	if resp.ContentLength > maxPlaylistBytes {
		resp.Body.Close()
		return nil, &permanentError{fmt.Errorf("playlist too large: %d bytes (limit %d)", resp.ContentLength, int64(maxPlaylistBytes))}
	}

	return &limitedBody{
		Reader: io.LimitReader(resp.Body, maxPlaylistBytes),
		closer: resp.Body,
	}, nil
}

// permanentError marks failures that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// limitedBody pairs a size-limited reader with the underlying closer.
type limitedBody struct {
	io.Reader
	closer io.Closer
}

func (b *limitedBody) Close() error { return b.closer.Close() }
