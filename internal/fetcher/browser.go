package fetcher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome. Used when the portal
// starts rejecting plain HTTP clients.
type BrowserFetcher struct {
	opts Options
}

// NewBrowserFetcher creates a headless Chrome fetcher
func NewBrowserFetcher(opts Options) *BrowserFetcher {
	return &BrowserFetcher{opts: opts}
}

func (f *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true), // required under systemd/Docker
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(f.opts.UserAgent),
	)
	if f.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ChromePath))
	}
	return opts
}

// Fetch navigates to url and returns the rendered HTML. A non-2xx main
// document response is returned as a *StatusError.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if f.opts.Breaker != nil && !f.opts.Breaker.CanProceed() {
		return nil, ErrCircuitOpen
	}
	if err := wait(ctx, f.opts.Limiter); err != nil {
		return nil, err
	}

	log.Printf("[HeadlessBrowser] Fetching %s", url)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := f.opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	resp, err := chromedp.RunResponse(browserCtx, chromedp.Navigate(url))
	if err != nil {
		log.Printf("[HeadlessBrowser] ERROR navigating to %s: %v", url, err)
		f.opts.recordFailure(err)
		return nil, fmt.Errorf("chromedp error: %w", err)
	}
	statusCode := http.StatusOK
	if resp != nil {
		statusCode = int(resp.Status)
	}
	if err := checkStatus(url, statusCode); err != nil {
		log.Printf("[HeadlessBrowser] %v", err)
		f.opts.recordFailure(err)
		return nil, err
	}

	var html string
	err = chromedp.Run(browserCtx,
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		log.Printf("[HeadlessBrowser] ERROR reading %s: %v", url, err)
		f.opts.recordFailure(err)
		return nil, fmt.Errorf("chromedp error: %w", err)
	}

	f.opts.recordSuccess()
	log.Printf("[HeadlessBrowser] fetched %d bytes (status %d)", len(html), statusCode)
	return &Page{URL: url, StatusCode: statusCode, Body: []byte(html)}, nil
}
