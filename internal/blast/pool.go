package blast

import (
	"context"
	"sync"
)

// sliceJob asks a worker for every block of one X column of the bench.
type sliceJob struct {
	Column     int
	Seed       uint64
	ResultChan chan sliceResult
}

type sliceResult struct {
	Column int
	Blocks []Block
}

// WorkerPool slices bench columns on a fixed set of goroutines.
type WorkerPool struct {
	jobQueue chan sliceJob
	workers  int
	grid     benchGrid
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// newWorkerPool starts workers that slice columns of grid.
func newWorkerPool(parent context.Context, workers, queueSize int, grid benchGrid) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(parent)
	pool := &WorkerPool{
		jobQueue: make(chan sliceJob, queueSize),
		workers:  workers,
		grid:     grid,
		ctx:      ctx,
		cancel:   cancel,
	}
	for i := range workers {
		pool.wg.Add(1)
		go pool.worker(i)
	}
	return pool
}

// SubmitJob queues a job; false if the queue is full.
func (p *WorkerPool) SubmitJob(job sliceJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitJobBlocking queues a job, giving up when the pool is cancelled.
func (p *WorkerPool) SubmitJobBlocking(job sliceJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *WorkerPool) worker(int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := sliceResult{Column: job.Column, Blocks: p.grid.column(job.Column, job.Seed)}
			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for them.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// QueueLength is the number of jobs waiting.
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}
