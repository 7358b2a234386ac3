package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"
)

const (
	maxBodyBytes = 10 << 20
	maxBackoff   = 60 * time.Second
)

// HTTPFetcher fetches pages with net/http
type HTTPFetcher struct {
	client *http.Client
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewHTTPFetcher creates the default fetcher
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		opts:   opts,
		sleep:  sleepContext,
	}
}

// Fetch performs a GET with exponential backoff retry
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if f.opts.Breaker != nil && !f.opts.Breaker.CanProceed() {
			if lastErr != nil {
				log.Printf("[HTTPFetcher] giving up on %s: circuit breaker opened after %v", url, lastErr)
			}
			return nil, ErrCircuitOpen
		}
		if attempt > 0 {
			// delay * 2^(attempt-1), capped
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * f.opts.RetryDelay
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			log.Printf("[HTTPFetcher] retry %d/%d for %s after %v", attempt, f.opts.MaxRetries, url, backoff)
			if err := f.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if err := wait(ctx, f.opts.Limiter); err != nil {
			return nil, err
		}

		page, err := f.do(ctx, url)
		if err == nil {
			f.opts.recordSuccess()
			return page, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.opts.recordFailure(err)

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			break
		}
		log.Printf("[HTTPFetcher] request failed (attempt %d): %v", attempt+1, err)
	}

	return nil, lastErr
}

func (f *HTTPFetcher) do(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	ApplyBrowserHeaders(req.Header, f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, err
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Page{URL: url, StatusCode: resp.StatusCode, Body: body}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
