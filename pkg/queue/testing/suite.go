// Package testing provides a shared contract test suite for queue.Queue
// implementations.
package testing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/queue"
)

// QueueTestSuite exercises the queue.Queue contract.
type QueueTestSuite struct {
	// NewQueue creates a fresh queue for each test.
	NewQueue func(t *testing.T) queue.Queue
}

// Run executes all tests in the suite.
func (suite *QueueTestSuite) Run(t *testing.T) {
	t.Run("FIFO", suite.RunFIFOTests)
	t.Run("Empty", suite.RunEmptyTests)
	t.Run("Isolation", suite.RunIsolationTests)
	t.Run("Requeue", suite.RunRequeueTests)
}

// RunFIFOTests verifies jobs come out in the order they went in.
func (suite *QueueTestSuite) RunFIFOTests(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := t.Context()

	var ids []string
	for i := 0; i < 5; i++ {
		job := &queue.Job{ID: uuid.NewString(), UserID: "u", EnqueuedAt: time.Now()}
		ids = append(ids, job.ID)
		require.NoError(t, q.Enqueue(ctx, queue.QueueThumbnails, job))
	}

	for _, want := range ids {
		job, err := q.Dequeue(ctx, queue.QueueThumbnails)
		require.NoError(t, err)
		assert.Equal(t, want, job.ID)
	}
}

// RunEmptyTests verifies an empty queue reports ErrNoJobs.
func (suite *QueueTestSuite) RunEmptyTests(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()

	_, err := q.Dequeue(t.Context(), queue.QueueThumbnails)
	assert.ErrorIs(t, err, queue.ErrNoJobs)
}

// RunIsolationTests verifies named queues do not see each other's jobs.
func (suite *QueueTestSuite) RunIsolationTests(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := t.Context()

	require.NoError(t, q.Enqueue(ctx, queue.QueueWelcome, &queue.Job{ID: "w1", UserID: "u"}))

	_, err := q.Dequeue(ctx, queue.QueueThumbnails)
	assert.ErrorIs(t, err, queue.ErrNoJobs)

	job, err := q.Dequeue(ctx, queue.QueueWelcome)
	require.NoError(t, err)
	assert.Equal(t, "w1", job.ID)
}

// RunRequeueTests verifies a re-enqueued job keeps its attempt count and
// lands behind newer jobs.
func (suite *QueueTestSuite) RunRequeueTests(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := t.Context()

	require.NoError(t, q.Enqueue(ctx, queue.QueueThumbnails, &queue.Job{ID: "a", UserID: "u"}))

	job, err := q.Dequeue(ctx, queue.QueueThumbnails)
	require.NoError(t, err)

	job.Attempts++
	require.NoError(t, q.Enqueue(ctx, queue.QueueThumbnails, job))

	got, err := q.Dequeue(ctx, queue.QueueThumbnails)
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 1, got.Attempts)
}
