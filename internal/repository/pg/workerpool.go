package pg

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ibeloyar/laundry/internal/model"
)

type WorkerPool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	numWorkers int

	pauseMu   sync.Mutex
	pauseCond *sync.Cond
	paused    bool
	closed    bool
}

// NewWorkerPool starts numWorkers goroutines per batch, runtime.NumCPU() when zero.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	wp := &WorkerPool{
		ctx:        ctx,
		cancel:     cancel,
		numWorkers: numWorkers,
	}

	wp.pauseCond = sync.NewCond(&wp.pauseMu)

	return wp
}

// run hands every charge to handle and returns once the batch is drained or
// the pool is closed. A paused pool holds its workers between jobs.
func (wp *WorkerPool) run(charges []model.Charge, handle func(ctx context.Context, charge model.Charge)) {
	wp.pauseMu.Lock()
	if wp.closed {
		wp.pauseMu.Unlock()
		return
	}
	wp.pauseMu.Unlock()

	jobsQueue := make(chan model.Charge, len(charges))
	for _, charge := range charges {
		jobsQueue <- charge
	}
	close(jobsQueue)

	workers := min(wp.numWorkers, len(charges))

	wp.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wp.wg.Done()
			for charge := range jobsQueue {
				if !wp.waitIfPaused() {
					return
				}
				handle(wp.ctx, charge)
			}
		}()
	}

	wp.wg.Wait()
}

func (wp *WorkerPool) waitIfPaused() bool {
	wp.pauseMu.Lock()
	defer wp.pauseMu.Unlock()

	for wp.paused && !wp.closed {
		wp.pauseCond.Wait()
	}

	return !wp.closed && wp.ctx.Err() == nil
}

func (wp *WorkerPool) isPaused() bool {
	wp.pauseMu.Lock()
	defer wp.pauseMu.Unlock()

	return wp.paused
}

// shutdown stops handing out jobs and waits for the running ones.
func (wp *WorkerPool) shutdown() {
	wp.pauseMu.Lock()
	wp.closed = true
	wp.pauseCond.Broadcast()
	wp.pauseMu.Unlock()

	wp.wg.Wait()
}

func (wp *WorkerPool) pausePoolWithTimer(duration time.Duration) {
	wp.pauseMu.Lock()
	defer wp.pauseMu.Unlock()

	if wp.paused {
		return
	}

	wp.paused = true

	time.AfterFunc(duration, wp.resumePool)
}

func (wp *WorkerPool) resumePool() {
	wp.pauseMu.Lock()
	defer wp.pauseMu.Unlock()

	if !wp.paused {
		return
	}

	wp.paused = false
	wp.pauseCond.Broadcast()
}
