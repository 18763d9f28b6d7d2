package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gamecat/pkg/logger"
)

// ErrSlotOutOfRange is returned when a job targets a result slot the pool does not have
var ErrSlotOutOfRange = errors.New("job slot out of range")

// Job is one unit of work. Its result lands in the slot named by Index.
type Job[R any] struct {
	Index int
	Name  string
	Run   func(ctx context.Context) (R, error)
}

// Result is the outcome of one job
type Result[R any] struct {
	Name     string
	Value    R
	Err      error
	Duration time.Duration
	Done     bool
}

// Pool runs jobs on a fixed number of goroutines. Each job writes only its
// own result slot, so results come back in submission slot order no matter
// which job finishes first.
type Pool[R any] struct {
	logger     *logger.Logger
	numWorkers int
	inputChan  chan Job[R]
	results    []Result[R]
	mu         sync.Mutex
	wg         sync.WaitGroup
	cancel     context.CancelFunc
}

// NewPool creates a pool with slots result slots
func NewPool[R any](l *logger.Logger, numWorkers, slots int) *Pool[R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool[R]{
		logger:     l,
		numWorkers: numWorkers,
		inputChan:  make(chan Job[R], numWorkers*2),
		results:    make([]Result[R], slots),
	}
}

// Start launches the worker goroutines
func (p *Pool[R]) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(workerCtx, i)
	}
}

// Submit queues a job, blocking while the queue is full
func (p *Pool[R]) Submit(ctx context.Context, job Job[R]) error {
	if job.Index < 0 || job.Index >= len(p.results) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, job.Index)
	}
	select {
	case p.inputChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool[R]) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started", zap.Int("worker_id", id))

	for job := range p.inputChan {
		if err := ctx.Err(); err != nil {
			p.store(job, Result[R]{Name: job.Name, Err: err})
			continue
		}

		start := time.Now()
		value, err := p.execute(ctx, job)
		res := Result[R]{Name: job.Name, Value: value, Err: err, Duration: time.Since(start), Done: err == nil}
		// failures are reported by whoever reads Results
		p.logger.Debug("job finished", zap.String("job", job.Name), zap.Int("worker_id", id), zap.Bool("done", res.Done))
		p.store(job, res)
	}
}

// execute turns a panicking job into a failed one
func (p *Pool[R]) execute(ctx context.Context, job Job[R]) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

func (p *Pool[R]) store(job Job[R], res Result[R]) {
	p.mu.Lock()
	p.results[job.Index] = res
	p.mu.Unlock()
}

// Shutdown stops accepting jobs and waits for queued ones to finish. If ctx
// ends first the remaining jobs are cancelled and ctx's error is returned.
func (p *Pool[R]) Shutdown(ctx context.Context) error {
	close(p.inputChan)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if p.cancel != nil {
			p.cancel()
		}
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		return ctx.Err()
	}
}

// Results returns a copy of every slot. Call it after Shutdown.
func (p *Pool[R]) Results() []Result[R] {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result[R], len(p.results))
	copy(out, p.results)
	return out
}
