package submission

import (
	"context"
	"errors"

	coresubmission "github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
	ctxutil "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/context"
)

// BatchItem is the outcome of one request of a batch.
type BatchItem struct {
	Index  int                    `json:"index"`
	Result *coresubmission.Result `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Err    error                  `json:"-"`
}

// BatchReport is the outcome of a batch, items in input order.
type BatchReport struct {
	BatchID string      `json:"batch_id"`
	Items   []BatchItem `json:"items"`
	Stats   BatchStats  `json:"stats"`
}

// Batch submits reqs concurrently. Each request is independent; a failure
// in one never aborts the others. Requests not processed before ctx is
// cancelled report the context error.
func (s *Service) Batch(ctx context.Context, reqs []Request) BatchReport {
	batchID := ctxutil.NewCorrelationID()
	ctx, correlationID := ctxutil.EnsureCorrelationID(ctx)
	log := s.logger.With("batch_id", batchID, "correlation_id", correlationID)

	workers := s.opts.BatchWorkers
	if workers > len(reqs) {
		workers = len(reqs)
	}
	log.Info("Starting batch submission", "documents", len(reqs), "workers", workers)

	aggregator := NewResultAggregator(len(reqs))
	if len(reqs) > 0 {
		pool := NewWorkerPool(ctx, workers, s.Submit)
		pool.Start()

		go func() {
			for i, req := range reqs {
				if err := pool.Submit(Job{Index: i, Request: req}); err != nil {
					break
				}
			}
			pool.Stop()
		}()

		for r := range pool.Results() {
			aggregator.Add(r)
		}
	}

	results, received := aggregator.Results()
	items := make([]BatchItem, len(results))
	for i, r := range results {
		items[i] = BatchItem{Index: i}
		switch {
		case !received[i]:
			err := ctx.Err()
			if err == nil {
				err = errors.New("document was not processed")
			}
			items[i].Err = err
		case r.Err != nil:
			items[i].Err = r.Err
		default:
			result := r.Result
			items[i].Result = &result
		}
		if items[i].Err != nil {
			items[i].Error = items[i].Err.Error()
		}
	}

	stats := aggregator.Stats()
	log.Info("Batch submission completed",
		"accepted", stats.Accepted,
		"already_known", stats.AlreadyKnown,
		"rejected", stats.Rejected,
		"transport_failure", stats.TransportFailure,
		"errors", stats.Errors,
		"duration_ms", stats.DurationMs,
	)

	return BatchReport{BatchID: batchID, Items: items, Stats: stats}
}
