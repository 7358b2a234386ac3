package fetcher

import (
	"log"
	"sync"
	"time"
)

// CircuitBreaker stops portal requests after repeated blocking responses
type CircuitBreaker struct {
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	failures            int
	totalRequests       int
	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	mutex sync.Mutex
}

// BreakerStatus is a snapshot for the stats endpoint
type BreakerStatus struct {
	Open     bool `json:"open"`
	Failures int  `json:"failures"`
	Total    int  `json:"total"`
}

// NewCircuitBreaker creates a breaker that opens after threshold consecutive
// blocking responses. A threshold below 1 is treated as 1.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// RecordSuccess records a 2xx response
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalRequests++
	cb.consecutiveFailures = 0
}

// RecordFailure records a 403, 429 or 5xx response
func (cb *CircuitBreaker) RecordFailure(statusCode int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.consecutiveFailures++
	cb.totalRequests++
	cb.lastFailureTime = cb.now()

	if !cb.isOpen && cb.consecutiveFailures >= cb.threshold {
		cb.isOpen = true
		log.Printf("[CircuitBreaker] OPEN: %d consecutive failures (last status %d). Pausing for %v",
			cb.consecutiveFailures, statusCode, cb.resetTimeout)
	}
}

// CanProceed checks if requests are allowed
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}

	if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
		log.Printf("[CircuitBreaker] half-open after %v", cb.resetTimeout)
		cb.isOpen = false
		cb.failures = 0
		cb.totalRequests = 0
		cb.consecutiveFailures = 0
		return true
	}

	return false
}

// GetStatus returns current circuit breaker status
func (cb *CircuitBreaker) GetStatus() BreakerStatus {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return BreakerStatus{Open: cb.isOpen, Failures: cb.failures, Total: cb.totalRequests}
}
