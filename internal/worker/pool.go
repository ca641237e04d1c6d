package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/syncapps/chanbridge/internal/logger"
)

// Job represents a task to be executed by a worker
type Job interface {
	Process(ctx context.Context) error
}

// JobFunc adapts a plain function to the Job interface
type JobFunc func(ctx context.Context) error

// Process implements Job
func (f JobFunc) Process(ctx context.Context) error {
	return f(ctx)
}

// Pool is a bounded worker pool for asynchronous webhook event processing.
// Webhook handlers enqueue classified events and return immediately; the
// pool performs translation and destination API calls off the request path.
type Pool struct {
	workers    int
	jobTimeout time.Duration
	jobQueue   chan queuedJob
	wg         sync.WaitGroup
	quit       chan struct{}
	stopOnce   sync.Once
}

type queuedJob struct {
	job       Job
	requestID string
}

// PoolSize returns the worker count for the given ceiling: one worker per
// core, capped.
func PoolSize(ceiling int) int {
	n := runtime.NumCPU()
	if n > ceiling {
		return ceiling
	}
	if n < 1 {
		return 1
	}
	return n
}

// NewPool creates a new worker pool
func NewPool(workers int, queueSize int) *Pool {
	return &Pool{
		workers:    workers,
		jobTimeout: DefaultJobTimeout,
		jobQueue:   make(chan queuedJob, queueSize),
		quit:       make(chan struct{}),
	}
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker loop
func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case qj := <-p.jobQueue:
			p.run(qj)
		case <-p.quit:
			return
		}
	}
}

// run executes one job with a bounded context. A panic or error in one job
// must not take down the worker.
func (p *Pool) run(qj queuedJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	if qj.requestID != "" {
		ctx = logger.WithRequestID(ctx, qj.requestID)
	}
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error(LogMsgWorkerJobPanicked, "panic", r)
		}
	}()

	if err := qj.job.Process(ctx); err != nil {
		log.Error(LogMsgWorkerJobFailed, "error", err)
	}
}

// Enqueue adds a job to the queue, carrying the request ID from ctx into
// the job's own context for log correlation. Returns false when the queue
// is full; the caller decides how to reject the work.
func (p *Pool) Enqueue(ctx context.Context, job Job) bool {
	qj := queuedJob{job: job, requestID: logger.GetRequestID(ctx)}
	select {
	case p.jobQueue <- qj:
		return true
	default:
		return false
	}
}

// Stop stops the workers and waits for in-flight jobs to finish
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
