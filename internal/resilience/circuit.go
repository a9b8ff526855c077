package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a call is rejected because the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// Breaker is a minimal consecutive-failure circuit breaker. The merge engine
// wraps the detector with one so a page batch does not burn a timeout per
// page once the detection service is clearly down.
type Breaker struct {
	mu           sync.Mutex
	failures     int
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
}

// NewBreaker creates a Breaker that opens after threshold consecutive
// failures and allows a probe after resetTimeout.
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{threshold: threshold, resetTimeout: resetTimeout}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return true
	}
	// Open: allow a single probe once the reset window has elapsed.
	if time.Since(b.openedAt) >= b.resetTimeout {
		b.failures = b.threshold - 1
		return true
	}
	return false
}

// Record feeds a call outcome into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures == b.threshold {
		b.openedAt = time.Now()
	}
}
