// Package worker provides a bounded worker pool for compiling independent
// artifacts in parallel. The core engine is single-threaded per tree; the
// pool only parallelizes across trees, which share nothing but the
// read-only fisher.
package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Handler processes one job and returns its result.
type Handler[J, R any] func(ctx context.Context, job J) R

// Pool manages a fixed set of worker goroutines draining a job channel.
type Pool[J, R any] struct {
	workers    int
	jobsChan   chan J
	resultChan chan R
	handler    Handler[J, R]
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
}

// NewPool creates a pool with the specified number of workers and starts
// them. If workers <= 0, it defaults to runtime.NumCPU().
func NewPool[J, R any](ctx context.Context, handler Handler[J, R], workers int) *Pool[J, R] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool[J, R]{
		workers:    workers,
		jobsChan:   make(chan J, workers*2),
		resultChan: make(chan R, workers*2),
		handler:    handler,
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool[J, R]) worker() {
	defer p.wg.Done()
	for job := range p.jobsChan {
		select {
		case <-p.ctx.Done():
			return
		default:
		}
		result := p.handler(p.ctx, job)
		p.jobsCompleted.Add(1)
		select {
		case <-p.ctx.Done():
			return
		case p.resultChan <- result:
		}
	}
}

// Submit queues a job, blocking if the queue is full.
// Returns false if the pool is closed or its context canceled.
func (p *Pool[J, R]) Submit(job J) bool {
	if p.closed.Load() {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// Results returns the channel job results arrive on.
func (p *Pool[J, R]) Results() <-chan R {
	return p.resultChan
}

// Close stops accepting jobs and, once in-flight jobs finish, closes the
// results channel. Callers must drain Results() to let workers finish.
func (p *Pool[J, R]) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.jobsChan)
	go func() {
		p.wg.Wait()
		close(p.resultChan)
		p.cancel()
	}()
}

// Completed returns the number of finished jobs.
func (p *Pool[J, R]) Completed() uint64 {
	return p.jobsCompleted.Load()
}

// Submitted returns the number of accepted jobs.
func (p *Pool[J, R]) Submitted() uint64 {
	return p.jobsSubmitted.Load()
}
