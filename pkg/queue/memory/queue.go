// Package memory implements queue.Queue in memory.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/stashfs/pkg/queue"
)

// MemoryQueue keeps per-name FIFO job slices behind a mutex. Jobs do not
// survive a restart; it is intended for tests and single-process
// development setups.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs map[string][]*queue.Job
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{jobs: make(map[string][]*queue.Job)}
}

// Enqueue appends a copy of job to the named queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, name string, job *queue.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	j := *job
	q.jobs[name] = append(q.jobs[name], &j)
	return nil
}

// Dequeue pops the oldest job of the named queue.
func (q *MemoryQueue) Dequeue(ctx context.Context, name string) (*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.jobs[name]
	if len(pending) == 0 {
		return nil, queue.ErrNoJobs
	}

	job := pending[0]
	q.jobs[name] = pending[1:]
	return job, nil
}

// Close discards pending jobs with the process.
func (q *MemoryQueue) Close() error {
	return nil
}
