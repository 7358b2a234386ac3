package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"suumo-checker/internal/ratelimit"
)

// ErrCircuitOpen is returned while the circuit breaker refuses requests.
var ErrCircuitOpen = errors.New("circuit breaker open: portal appears to be blocking requests")

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves one page. Implementations must send a browser-like User-Agent
// and report non-2xx responses as *StatusError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// StatusError is a response that arrived but was not 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status code %d", e.URL, e.StatusCode)
}

// Retryable reports whether another attempt could plausibly succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Blocked reports whether the status looks like the portal pushing back.
func (e *StatusError) Blocked() bool {
	return e.StatusCode == http.StatusForbidden || e.Retryable()
}

// Options configures every fetcher mode.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	ChromePath string

	// Limiter paces requests; nil means no pacing.
	Limiter *ratelimit.PortalLimiter
	// Breaker trips on repeated blocking responses; nil disables it.
	Breaker *CircuitBreaker
}

// New returns the fetcher for mode: "http" (default), "browser" or "collector".
func New(mode string, opts Options) (Fetcher, error) {
	switch mode {
	case "", "http":
		return NewHTTPFetcher(opts), nil
	case "browser":
		return NewBrowserFetcher(opts), nil
	case "collector":
		return NewCollectorFetcher(opts), nil
	default:
		return nil, fmt.Errorf("unknown fetcher mode %q", mode)
	}
}

// ApplyBrowserHeaders sets the headers a mobile browser would send.
func ApplyBrowserHeaders(h http.Header, userAgent string) {
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7")
	// only gzip is decoded by the HTTP fetcher
	h.Set("Accept-Encoding", "gzip")
	h.Set("Upgrade-Insecure-Requests", "1")
}

func wait(ctx context.Context, l *ratelimit.PortalLimiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// checkStatus maps a non-2xx status to a *StatusError
func checkStatus(url string, statusCode int) error {
	if statusCode < 200 || statusCode > 299 {
		return &StatusError{URL: url, StatusCode: statusCode}
	}
	return nil
}

func (o Options) recordSuccess() {
	if o.Breaker != nil {
		o.Breaker.RecordSuccess()
	}
	o.Limiter.Observe(true)
}

// recordFailure feeds blocking statuses to the breaker. Every failure counts
// toward the pacer's failure rate.
func (o Options) recordFailure(err error) {
	var se *StatusError
	if errors.As(err, &se) && se.Blocked() && o.Breaker != nil {
		o.Breaker.RecordFailure(se.StatusCode)
	}
	o.Limiter.Observe(false)
}
