// Package worker implements the background job consumers.
//
// A fixed-size pool of goroutines polls the durable job queue and executes
// two kinds of jobs: thumbnail generation for image uploads and welcome
// notifications for new accounts. Jobs that fail transiently (storage I/O)
// are re-enqueued with a bounded retry budget; jobs that can never succeed
// (missing fields, deleted files, malformed images) are dropped after one
// attempt.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/stashfs/internal/logger"
	"github.com/marmos91/stashfs/internal/ratelimiter"
	"github.com/marmos91/stashfs/pkg/files"
	"github.com/marmos91/stashfs/pkg/queue"
	"github.com/marmos91/stashfs/pkg/store/content"
	"github.com/marmos91/stashfs/pkg/store/metadata"
)

// Config contains configuration for the worker pool.
type Config struct {
	// Enabled controls whether the pool starts (default: true)
	Enabled bool

	// Concurrency is the number of consumer goroutines (default: 2)
	Concurrency int

	// PollInterval is how often an idle consumer re-checks the queues
	// (default: 1s)
	PollInterval time.Duration

	// JobTimeout bounds the execution of a single job (default: 30s)
	JobTimeout time.Duration

	// MaxAttempts is the total delivery budget of a job before it is
	// dropped (default: 3)
	MaxAttempts int

	// ResizePerSecond caps image resize throughput across the pool.
	// Zero disables the cap.
	ResizePerSecond uint
}

// Pool consumes the thumbnail and welcome queues.
//
// Thread Safety: Safe for concurrent use; Start and Stop must not be
// called concurrently with each other.
type Pool struct {
	meta     metadata.Store
	contents content.Store
	jobs     queue.Queue
	resizer  Resizer
	limiter  *ratelimiter.RateLimiter
	config   Config

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPool creates a worker pool. The pool is initialized but not started;
// call Start to begin consuming jobs.
func NewPool(
	meta metadata.Store,
	contents content.Store,
	jobs queue.Queue,
	resizer Resizer,
	config Config,
) *Pool {
	if config.Concurrency <= 0 {
		config.Concurrency = 2
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = 30 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}

	return &Pool{
		meta:     meta,
		contents: contents,
		jobs:     jobs,
		resizer:  resizer,
		limiter:  ratelimiter.New(config.ResizePerSecond, config.ResizePerSecond),
		config:   config,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the consumer goroutines.
func (p *Pool) Start() {
	if !p.config.Enabled {
		logger.Info("Worker pool disabled")
		return
	}

	logger.Info("Starting worker pool: concurrency=%d poll_interval=%s job_timeout=%s max_attempts=%d",
		p.config.Concurrency, p.config.PollInterval, p.config.JobTimeout, p.config.MaxAttempts)

	for i := 0; i < p.config.Concurrency; i++ {
		p.wg.Add(1)
		go p.consumer(i)
	}
}

// Stop signals the consumers to stop and waits for in-flight jobs to
// finish or the context to expire.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.config.Enabled {
		return nil
	}

	logger.Info("Stopping worker pool...")
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Worker pool stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Worker pool shutdown timeout")
		return ctx.Err()
	}
}

// consumer polls both queues until stopped. Each tick drains the queues
// completely before going back to sleep.
func (p *Pool) consumer(id int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	logger.Debug("Worker %d started", id)

	for {
		select {
		case <-ticker.C:
			p.drain(queue.QueueThumbnails, p.processThumbnail)
			p.drain(queue.QueueWelcome, p.processWelcome)
		case <-p.stopCh:
			logger.Debug("Worker %d stopping", id)
			return
		}
	}
}

// drain consumes the named queue until it is empty or the pool is stopped.
func (p *Pool) drain(name string, handle func(context.Context, *queue.Job) error) {
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		job, err := p.jobs.Dequeue(context.Background(), name)
		if err != nil {
			if !errors.Is(err, queue.ErrNoJobs) {
				logger.Error("Failed to dequeue from %s: %v", name, err)
			}
			return
		}

		p.run(name, job, handle)
	}
}

// run executes a single job under the configured timeout and decides its
// fate: done, retried, or dropped.
func (p *Pool) run(name string, job *queue.Job, handle func(context.Context, *queue.Job) error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	err := handle(ctx, job)
	if err == nil {
		return
	}

	if isPermanent(err) {
		logger.Error("Job %s on %s failed permanently: %v", job.ID, name, err)
		return
	}

	// Transient failure: re-enqueue with an incremented delivery count
	// until the budget is spent. Completed partial work is idempotent, so
	// redelivery is safe.
	if job.Attempts+1 >= p.config.MaxAttempts {
		logger.Error("Job %s on %s dropped after %d attempts: %v", job.ID, name, job.Attempts+1, err)
		return
	}

	retry := *job
	retry.Attempts++
	if enqErr := p.jobs.Enqueue(context.Background(), name, &retry); enqErr != nil {
		logger.Error("Failed to re-enqueue job %s on %s: %v (original error: %v)", job.ID, name, enqErr, err)
		return
	}
	logger.Warn("Job %s on %s failed (attempt %d/%d), retrying: %v",
		job.ID, name, job.Attempts+1, p.config.MaxAttempts, err)
}

// processThumbnail generates the derivative set for one image upload.
//
// Each width succeeds or fails independently; a derivative that already
// exists (from an earlier delivery of the same job) counts as done. The
// job as a whole is retried only if at least one width failed transiently.
func (p *Pool) processThumbnail(ctx context.Context, job *queue.Job) error {
	if job.FileID == "" {
		return permanent(errors.New("Missing fileId"))
	}
	if job.UserID == "" {
		return permanent(errors.New("Missing userId"))
	}

	node, err := p.meta.NodeByIDAndOwner(ctx, job.FileID, job.UserID)
	if err != nil {
		if errors.Is(err, metadata.ErrNodeNotFound) {
			return permanent(errors.New("File not found"))
		}
		return fmt.Errorf("failed to load file %s: %w", job.FileID, err)
	}

	src, err := p.contents.ReadContent(ctx, content.ID(node.LocalPath))
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			// Metadata without content means the blob was lost; retrying
			// will not bring it back.
			return permanent(fmt.Errorf("content for file %s is missing", job.FileID))
		}
		return fmt.Errorf("failed to read content for file %s: %w", job.FileID, err)
	}

	var transientErr error
	for _, width := range files.ThumbnailWidths {
		derivID := content.DerivativeID(content.ID(node.LocalPath), width)

		exists, err := p.contents.ContentExists(ctx, derivID)
		if err != nil {
			transientErr = fmt.Errorf("failed to check derivative %s: %w", derivID, err)
			continue
		}
		if exists {
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("resize rate limit wait interrupted: %w", err)
		}

		resized, err := p.resizer.Resize(src, width)
		if err != nil {
			// A malformed image will never resize; skip the width for good.
			logger.Error("Failed to resize file %s to width %d: %v", job.FileID, width, err)
			continue
		}

		if err := p.contents.WriteContent(ctx, derivID, resized); err != nil {
			if errors.Is(err, content.ErrContentExists) {
				// A concurrent delivery already wrote it.
				continue
			}
			transientErr = fmt.Errorf("failed to write derivative %s: %w", derivID, err)
			continue
		}

		logger.Debug("Generated derivative %s for file %s", derivID, job.FileID)
	}

	return transientErr
}

// processWelcome emits the welcome notification for a new account.
func (p *Pool) processWelcome(ctx context.Context, job *queue.Job) error {
	if job.UserID == "" {
		return permanent(errors.New("Missing userId"))
	}

	user, err := p.meta.UserByID(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, metadata.ErrUserNotFound) {
			return permanent(fmt.Errorf("user %s not found", job.UserID))
		}
		return fmt.Errorf("failed to load user %s: %w", job.UserID, err)
	}

	logger.Info("Welcome %s!", user.Email)
	return nil
}

// permanentError marks a job failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
