package fetcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollectorFetcher fetches pages through a colly collector. Each Fetch runs on
// a clone so handlers stay per-request while limits are shared.
type CollectorFetcher struct {
	collector *colly.Collector
	opts      Options
}

// NewCollectorFetcher creates a colly-backed fetcher
func NewCollectorFetcher(opts Options) *CollectorFetcher {
	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.SetRequestTimeout(timeout)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	}); err != nil {
		log.Printf("[Collector] failed to set limit rule: %v", err)
	}

	return &CollectorFetcher{collector: c, opts: opts}
}

// Fetch visits url once. Retries are left to the caller.
func (f *CollectorFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if f.opts.Breaker != nil && !f.opts.Breaker.CanProceed() {
		return nil, ErrCircuitOpen
	}
	if err := wait(ctx, f.opts.Limiter); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Clone drops callbacks, so every hook is registered per fetch.
	collector := f.collector.Clone()

	var page *Page
	var responseErr error

	collector.OnRequest(func(r *colly.Request) {
		ApplyBrowserHeaders(*r.Headers, f.opts.UserAgent)
		// let the transport negotiate compression
		r.Headers.Del("Accept-Encoding")
	})
	collector.OnResponse(func(r *colly.Response) {
		page = &Page{URL: url, StatusCode: r.StatusCode, Body: r.Body}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			responseErr = &StatusError{URL: url, StatusCode: r.StatusCode}
			return
		}
		responseErr = fmt.Errorf("GET %s: %w", url, err)
	})

	if err := collector.Visit(url); err != nil && responseErr == nil {
		responseErr = fmt.Errorf("GET %s: %w", url, err)
	}
	collector.Wait()

	if responseErr != nil {
		f.opts.recordFailure(responseErr)
		log.Printf("[Collector] %v", responseErr)
		return nil, responseErr
	}
	if page == nil {
		return nil, fmt.Errorf("GET %s: no response", url)
	}

	f.opts.recordSuccess()
	return page, nil
}
