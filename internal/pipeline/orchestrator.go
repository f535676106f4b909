package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/wikiscan/internal/config"
)

// Orchestrator owns the job queue and the worker pool behind the HTTP API.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards the queue against sends after Stop closes it.
	mu      sync.RWMutex
	stopped bool
}

// ErrStopped is returned by Submit once the pipeline is shut down.
var ErrStopped = errors.New("pipeline stopped")

// NewOrchestrator creates the pipeline. Call Start before submitting jobs.
func NewOrchestrator(cfg config.Config, worker *Worker, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: worker,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		job.Fail(ErrStopped.Error())
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.Fail("queue full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// SubmitExport queues one wiki export job per title. With no titles it asks
// the wiki index page for every scan. Titles that cannot be queued come back
// as failed jobs; they never stop the rest.
func (o *Orchestrator) SubmitExport(ctx context.Context, titles []string, force bool) ([]*Job, error) {
	if o.worker.wiki == nil {
		return nil, ErrNoWiki
	}
	if len(titles) == 0 {
		all, err := o.worker.wiki.ScanTitles(ctx)
		if err != nil {
			return nil, fmt.Errorf("list scans: %w", err)
		}
		titles = all
	}

	jobs := make([]*Job, 0, len(titles))
	for _, title := range titles {
		job := NewWikiJob(title, force)
		if err := o.Submit(job); err != nil {
			o.log.Warn("export not queued", "title", title, "error", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Worker returns the shared worker for synchronous use by API handlers.
func (o *Orchestrator) Worker() *Worker {
	return o.worker
}
