package submission

import (
	"sync"
	"time"

	coresubmission "github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
)

// ResultAggregator collects batch results in input order.
type ResultAggregator struct {
	mu        sync.Mutex
	results   []JobResult
	received  []bool
	startTime time.Time
	stats     BatchStats
}

// BatchStats summarizes a batch.
type BatchStats struct {
	Total            int           `json:"total"`
	Accepted         int           `json:"accepted"`
	AlreadyKnown     int           `json:"already_known"`
	Rejected         int           `json:"rejected"`
	TransportFailure int           `json:"transport_failure"`
	Errors           int           `json:"errors"`
	Pending          int           `json:"pending"`
	Duration         time.Duration `json:"-"`
	DurationMs       int64         `json:"duration_ms"`
}

// NewResultAggregator creates an aggregator for total jobs.
func NewResultAggregator(total int) *ResultAggregator {
	return &ResultAggregator{
		results:   make([]JobResult, total),
		received:  make([]bool, total),
		startTime: time.Now(),
		stats:     BatchStats{Total: total},
	}
}

// Add records one result. Results with an out-of-range index are ignored.
func (a *ResultAggregator) Add(r JobResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Index < 0 || r.Index >= len(a.results) || a.received[r.Index] {
		return
	}
	a.results[r.Index] = r
	a.received[r.Index] = true

	if r.Err != nil {
		a.stats.Errors++
		return
	}
	switch r.Result.Status {
	case coresubmission.StatusAccepted:
		a.stats.Accepted++
	case coresubmission.StatusAlreadyKnown:
		a.stats.AlreadyKnown++
	case coresubmission.StatusRejected:
		a.stats.Rejected++
	case coresubmission.StatusTransportFailure:
		a.stats.TransportFailure++
	}
}

// Results returns every slot in input order and whether it was filled.
func (a *ResultAggregator) Results() ([]JobResult, []bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]JobResult(nil), a.results...), append([]bool(nil), a.received...)
}

// Stats returns the batch statistics so far.
func (a *ResultAggregator) Stats() BatchStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.stats
	for _, ok := range a.received {
		if !ok {
			stats.Pending++
		}
	}
	stats.Duration = time.Since(a.startTime)
	stats.DurationMs = stats.Duration.Milliseconds()
	return stats
}
