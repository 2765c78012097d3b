package email

import (
	"context"
	"sync"
	"time"

	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/metrics"
)

// Job is one unit of outbound email work
type Job struct {
	// Name labels the job in logs and metrics, e.g. "invitation"
	Name string
	// Fields are attached to every log line of the job
	Fields map[string]interface{}
	// Send performs the delivery and returns nil only once the provider accepted it
	Send func(ctx context.Context) error
	// OnDelivered runs after Send succeeded, with the time of acceptance
	OnDelivered func(ctx context.Context, deliveredAt time.Time) error
}

// Dispatcher runs email jobs on a fixed pool of workers outside the request path.
// Failed jobs are logged and dropped; OnDelivered is skipped for them.
type Dispatcher struct {
	jobs    chan Job
	workers int
	timeout time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithMetrics records job outcomes and queue depth
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithJobTimeout bounds a single job, including its OnDelivered callback
func WithJobTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher with workers goroutines and a queue of queueSize jobs
func NewDispatcher(workers, queueSize int, opts ...DispatcherOption) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &Dispatcher{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the workers. Cancelling ctx aborts in-flight jobs.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
	logger.New().WithField("workers", d.workers).Info("Email dispatcher started")
}

// Enqueue hands job to the workers without blocking
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return apperrors.ErrDispatcherStopped
	}

	select {
	case d.jobs <- job:
		d.observeQueue()
		return nil
	default:
		return apperrors.ErrDispatchQueueFull
	}
}

// Stop rejects new jobs and waits for the queued ones to finish
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
	logger.New().Info("Email dispatcher stopped")
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	defer d.wg.Done()
	for job := range d.jobs {
		d.observeQueue()
		d.run(ctx, worker, job)
	}
}

func (d *Dispatcher) run(parent context.Context, worker int, job Job) {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	log := logger.WithContext(ctx).WithFields(job.Fields).WithFields(map[string]interface{}{
		"job":    job.Name,
		"worker": worker,
	})

	if err := job.Send(ctx); err != nil {
		log.WithError(err).Error("Email job failed")
		d.observeResult(job.Name, "failed")
		return
	}

	if job.OnDelivered != nil {
		if err := job.OnDelivered(ctx, d.now()); err != nil {
			log.WithError(err).Error("Email delivered but post-delivery update failed")
			d.observeResult(job.Name, "callback_failed")
			return
		}
	}

	log.Debug("Email job delivered")
	d.observeResult(job.Name, "delivered")
}

func (d *Dispatcher) observeQueue() {
	if d.metrics != nil {
		d.metrics.EmailQueueDepth.Set(float64(len(d.jobs)))
	}
}

func (d *Dispatcher) observeResult(job, result string) {
	if d.metrics != nil {
		d.metrics.EmailsDispatched.WithLabelValues(job, result).Inc()
	}
}
