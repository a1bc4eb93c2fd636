// Package queue defines the durable background job queue.
//
// Two named queues share one backend: QueueThumbnails carries image resize
// jobs produced by the upload path, and QueueWelcome carries
// post-registration welcome jobs. The queues are structurally identical;
// only their consumers differ.
//
// The queue is the outbox of the upload pipeline: enqueued jobs are
// persisted (in the badger deployment, in the same database as the file
// metadata) so a crash after upload acknowledgement never silently drops
// thumbnail generation.
package queue

import (
	"context"
	"errors"
	"time"
)

// Queue names.
const (
	// QueueThumbnails carries image derivative generation jobs.
	QueueThumbnails = "thumbnails"

	// QueueWelcome carries post-registration welcome jobs.
	QueueWelcome = "welcome"
)

// ErrNoJobs indicates the queue is currently empty.
var ErrNoJobs = errors.New("no jobs queued")

// Job is a single queued unit of work.
//
// Thumbnail jobs set UserID, FileID and LocalPath; welcome jobs set only
// UserID. Attempts counts deliveries, so a consumer re-enqueueing a job
// after a transient failure can bound its retries.
type Job struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FileID     string    `json:"file_id,omitempty"`
	LocalPath  string    `json:"local_path,omitempty"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is a named FIFO job queue.
//
// Dequeue removes and returns the oldest job atomically; a job is consumed
// exactly once per delivery. Implementations must be safe for concurrent
// producers and consumers.
type Queue interface {
	// Enqueue appends a job to the named queue.
	Enqueue(ctx context.Context, name string, job *Job) error

	// Dequeue removes and returns the oldest job of the named queue, or
	// ErrNoJobs if the queue is empty.
	Dequeue(ctx context.Context, name string) (*Job, error)

	// Close releases queue resources.
	Close() error
}
