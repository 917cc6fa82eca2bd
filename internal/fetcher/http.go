// Package fetcher downloads the listings CSV and shapefile archives.
package fetcher

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	RatePerSec     float64
}

// Client downloads files with a shared rate limit and retries transient
// failures with exponential backoff.
type Client struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New returns a Client, filling unset options with defaults.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 2
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "listing-atlas/1.0"
	}
	return &Client{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// DownloadToFile writes the body at rawURL to path, replacing it only once
// the whole body has arrived.
func (c *Client) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrapf(err, "fetcher: create dir for %s", path)
	}

	var lastErr error
	for attempt := range c.opts.MaxAttempts {
		n, err := c.downloadOnce(ctx, rawURL, path)
		if err == nil {
			return n, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) || attempt == c.opts.MaxAttempts-1 {
			break
		}

		zap.L().Warn("download failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		t := time.NewTimer(backoff(attempt, c.opts.InitialBackoff))
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, eris.Wrap(lastErr, "fetcher: download cancelled")
		case <-t.C:
		}
	}
	return 0, eris.Wrapf(lastErr, "fetcher: download %s", rawURL)
}

func (c *Client) downloadOnce(ctx context.Context, rawURL, path string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return n, os.Rename(tmp.Name(), path)
}

// backoff doubles from initial per attempt, capped at 30s, with up to 25%
// jitter either way.
func backoff(attempt int, initial time.Duration) time.Duration {
	d := float64(initial) * math.Pow(2, float64(attempt))
	d = math.Min(d, float64(30*time.Second))
	d += d * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(d)
}
