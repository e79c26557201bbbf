// Package imageprobe checks that listing images can be fetched.
package imageprobe

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rentfinder/internal/adapters/observability"
	"rentfinder/internal/domain"
)

const maxAttempts = 4

type Client struct {
	hc *http.Client
	rl *rate.Limiter
}

func New(rps int, timeout time.Duration) *Client {
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		hc: &http.Client{Timeout: timeout},
		rl: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Check issues a HEAD request for rawURL. It retries on 429 and transient
// 5xx, honoring Retry-After. Servers that reject HEAD get one ranged GET.
func (c *Client) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: bad url %q", domain.ErrBrokenImage, rawURL)
	}

	err = c.probe(ctx, http.MethodHead, rawURL, u.Host)
	if errors.Is(err, errMethodNotAllowed) {
		err = c.probe(ctx, http.MethodGet, rawURL, u.Host)
	}
	return err
}

var errMethodNotAllowed = errors.New("imageprobe: method not allowed")

func (c *Client) probe(ctx context.Context, method, rawURL, host string) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "rentfinder-imageprobe/1.0")
		if method == http.MethodGet {
			req.Header.Set("Range", "bytes=0-0")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("images", host, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", domain.ErrBrokenImage, lastErr)
		}
		observability.ObserveExternal("images", host, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			ct := resp.Header.Get("Content-Type")
			drain(resp)
			if ct != "" && !strings.HasPrefix(ct, "image/") {
				return fmt.Errorf("%w: content-type %q", domain.ErrBrokenImage, ct)
			}
			return nil

		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			drain(resp)
			return domain.ErrNotFound

		case resp.StatusCode == http.StatusMethodNotAllowed && method == http.MethodHead:
			drain(resp)
			return errMethodNotAllowed

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusInternalServerError,
			resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable,
			resp.StatusCode == http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			drain(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrBrokenImage, resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			drain(resp)
			return fmt.Errorf("%w: bad status %d", domain.ErrBrokenImage, resp.StatusCode)
		}
	}

	return lastErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
