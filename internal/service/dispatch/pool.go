package dispatch

import (
	"context"
	"crossline/internal/command"
	"crossline/internal/dto"
	"crossline/internal/logger"
	"crossline/internal/zone"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrPoolStopped = errors.New("dispatch pool stopped")

// Job is one claimed crossing waiting to be sent.
type Job struct {
	TrackID  int
	ClassID  int
	Side     zone.Side
	Code     command.Code
	Sequence int
	FrameSeq uint64
}

// DoneFunc is called once per job with the outcome, from a worker goroutine.
type DoneFunc func(job Job, result dto.DispatchResult)

// PoolStats counts jobs by outcome.
type PoolStats struct {
	Submitted uint64 `json:"submitted"`
	Rejected  uint64 `json:"rejected"`
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
	Queued    int    `json:"queued"`
}

// Pool sends claimed jobs from a bounded queue so the frame loop never waits
// on the network. Submit never blocks.
type Pool struct {
	sender Sender
	onDone DoneFunc
	logger *logger.Logger

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	submitted uint64
	rejected  uint64
	succeeded uint64
	failed    uint64
}

// NewPool starts workers goroutines draining a queue of queueSize jobs.
func NewPool(sender Sender, workers, queueSize int, onDone DoneFunc, logger *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &Pool{
		sender: sender,
		onDone: onDone,
		logger: logger,
		jobs:   make(chan Job, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	pool.logger.Info("🔧 Dispatch pool started - %d worker(s), queue %d", workers, queueSize)
	return pool
}

// Submit queues a job. It returns false when the queue is full or the pool is
// stopped; the job is then not sent and onDone is not called.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		atomic.AddUint64(&p.rejected, 1)
		return false
	}

	select {
	case p.jobs <- job:
		atomic.AddUint64(&p.submitted, 1)
		return true
	default:
		atomic.AddUint64(&p.rejected, 1)
		return false
	}
}

func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	for job := range p.jobs {
		result := p.sender.Send(p.ctx, job.Code)
		if result.Success {
			atomic.AddUint64(&p.succeeded, 1)
		} else {
			atomic.AddUint64(&p.failed, 1)
		}
		if p.onDone != nil {
			p.onDone(job, result)
		}
	}

	p.logger.Info("🔧 Dispatch worker %d stopped", workerID)
}

// Stop closes the queue and waits for queued and in-flight jobs. If ctx ends
// first, outstanding requests are cancelled and Stop still waits for the
// workers to return. Claims already taken are not touched.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("🛑 All dispatch workers stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warning("Dispatch pool stopped early, outstanding requests abandoned")
		return ctx.Err()
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Submitted: atomic.LoadUint64(&p.submitted),
		Rejected:  atomic.LoadUint64(&p.rejected),
		Succeeded: atomic.LoadUint64(&p.succeeded),
		Failed:    atomic.LoadUint64(&p.failed),
		Queued:    len(p.jobs),
	}
}
