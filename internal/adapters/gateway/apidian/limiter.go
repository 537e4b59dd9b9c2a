package apidian

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// maxConcurrentCalls is the gateway's per-token ceiling.
const maxConcurrentCalls = 1000

// Limiter bounds in-flight gateway calls and their start rate.
type Limiter struct {
	slots         chan struct{}
	rate          *rate.Limiter
	maxConcurrent int

	mu       sync.Mutex
	active   int
	waiting  int
	acquired int64
}

// NewLimiter builds a limiter. A non-positive rps disables rate limiting.
func NewLimiter(maxConcurrent int, rps float64, burst int) *Limiter {
	if maxConcurrent <= 0 || maxConcurrent > maxConcurrentCalls {
		maxConcurrent = maxConcurrentCalls
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		slots:         make(chan struct{}, maxConcurrent),
		rate:          rate.NewLimiter(limit, burst),
		maxConcurrent: maxConcurrent,
	}
}

// Acquire blocks until a slot and a rate token are available. Release must
// be called after a nil return.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.waiting--
		l.mu.Unlock()
	}()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := l.rate.Wait(ctx); err != nil {
		<-l.slots
		return err
	}

	l.mu.Lock()
	l.active++
	l.acquired++
	l.mu.Unlock()
	return nil
}

// Release frees a slot.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// LimiterStats is a snapshot for health reporting.
type LimiterStats struct {
	MaxConcurrent int   `json:"max_concurrent"`
	Active        int   `json:"active"`
	Waiting       int   `json:"waiting"`
	Acquired      int64 `json:"acquired"`
}

func (l *Limiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LimiterStats{
		MaxConcurrent: l.maxConcurrent,
		Active:        l.active,
		Waiting:       l.waiting,
		Acquired:      l.acquired,
	}
}
