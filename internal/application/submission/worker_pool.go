package submission

import (
	"context"
	"sync"

	coresubmission "github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
)

// Job is one document of a batch.
type Job struct {
	Request Request
	Index   int
}

// JobResult is the outcome of one job. Err is set when the pipeline stopped
// before reaching the gateway.
type JobResult struct {
	Index  int
	Result coresubmission.Result
	Err    error
}

// ProcessFunc submits one request.
type ProcessFunc func(ctx context.Context, req Request) (coresubmission.Result, error)

// WorkerPool manages concurrent submission of documents.
type WorkerPool struct {
	workerCount int
	jobChan     chan Job
	resultChan  chan JobResult
	process     ProcessFunc
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorkerPool creates a worker pool. A non-positive workerCount means one worker.
func NewWorkerPool(ctx context.Context, workerCount int, process ProcessFunc) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workerCount: workerCount,
		jobChan:     make(chan Job, workerCount*2),
		resultChan:  make(chan JobResult, workerCount*2),
		process:     process,
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start starts the workers.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop closes the job queue, waits for the workers and closes the results.
func (p *WorkerPool) Stop() {
	close(p.jobChan)
	p.wg.Wait()
	p.cancel()
	close(p.resultChan)
}

// Submit queues a job.
func (p *WorkerPool) Submit(job Job) error {
	select {
	case p.jobChan <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results returns the channel of finished jobs.
func (p *WorkerPool) Results() <-chan JobResult {
	return p.resultChan
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for job := range p.jobChan {
		result := JobResult{Index: job.Index}
		if err := p.ctx.Err(); err != nil {
			result.Err = err
		} else {
			result.Result, result.Err = p.process(p.ctx, job.Request)
		}

		select {
		case p.resultChan <- result:
		case <-p.ctx.Done():
			return
		}
	}
}
