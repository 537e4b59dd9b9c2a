package apidian

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of the gateway circuit breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // calls flow
	BreakerOpen                         // calls fail fast
	BreakerHalfOpen                     // trial calls
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrBreakerOpen is returned without calling the gateway while the breaker is open.
var ErrBreakerOpen = errors.New("gateway circuit breaker is open")

// minSamples is the number of calls needed before the failure rate counts.
const minSamples = 10

// CircuitBreaker stops calling the gateway after repeated failures and
// lets trial calls through again after a cooldown.
type CircuitBreaker struct {
	maxFailures      int
	failureRate      float64
	cooldown         time.Duration
	successThreshold int

	mu              sync.Mutex
	state           BreakerState
	failures        int
	successes       int
	total           int
	lastStateChange time.Time
	now             func() time.Time
}

// NewCircuitBreaker builds a closed breaker. Zero values fall back to
// 10 consecutive failures, a 50% failure rate and a 30s cooldown.
func NewCircuitBreaker(maxFailures int, failureRate float64, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 10
	}
	if failureRate <= 0 || failureRate > 1 {
		failureRate = 0.5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		maxFailures:      maxFailures,
		failureRate:      failureRate,
		cooldown:         cooldown,
		successThreshold: 3,
		state:            BreakerClosed,
		now:              time.Now,
	}
}

// Execute runs fn unless the breaker is open. A non-nil error from fn
// counts as a failure.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrBreakerOpen
	}
	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != BreakerOpen {
		return true
	}
	if cb.now().Sub(cb.lastStateChange) < cb.cooldown {
		return false
	}
	cb.transition(BreakerHalfOpen)
	return true
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.total++
	if !success {
		cb.failures++
		switch cb.state {
		case BreakerHalfOpen:
			cb.transition(BreakerOpen)
		case BreakerClosed:
			rate := float64(cb.failures) / float64(cb.total)
			if cb.failures >= cb.maxFailures || (cb.total >= minSamples && rate >= cb.failureRate) {
				cb.transition(BreakerOpen)
			}
		}
		return
	}

	cb.successes++
	switch cb.state {
	case BreakerHalfOpen:
		if cb.successes >= cb.successThreshold {
			cb.transition(BreakerClosed)
		}
	case BreakerClosed:
		if cb.successes > cb.failures {
			cb.failures = 0
		}
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to BreakerState) {
	cb.state = to
	cb.lastStateChange = cb.now()
	cb.successes = 0
	if to == BreakerClosed {
		cb.failures = 0
		cb.total = 0
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// BreakerStats is a snapshot for health reporting.
type BreakerStats struct {
	State    string  `json:"state"`
	Failures int     `json:"failures"`
	Total    int     `json:"total"`
	Rate     float64 `json:"failure_rate"`
}

func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	rate := 0.0
	if cb.total > 0 {
		rate = float64(cb.failures) / float64(cb.total)
	}
	return BreakerStats{State: cb.state.String(), Failures: cb.failures, Total: cb.total, Rate: rate}
}

// Reset closes the breaker.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(BreakerClosed)
}
