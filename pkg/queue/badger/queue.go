// Package badger implements queue.Queue on BadgerDB.
//
// Jobs are stored under sequence-ordered keys so a prefix iteration over a
// queue name yields FIFO order:
//
//	Data Type       Prefix   Key Format           Value Type
//	=========================================================
//	Job             "j:"     j:<name>:<seq>       Job (JSON)
//	Queue Sequence  "jseq:"  jseq:<name>          uint64 (big endian)
//
// The sequence is incremented in the same transaction as the job insert.
// Dequeue reads and deletes the first key under the queue prefix in one
// transaction, so each job is delivered exactly once.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/stashfs/pkg/queue"
)

const (
	jobPrefix = "j:"
	seqPrefix = "jseq:"
)

// BadgerQueue implements queue.Queue backed by BadgerDB. Enqueued jobs
// survive restarts, which makes the upload path's fire-and-forget
// submission durable (the outbox half of the thumbnail pipeline).
type BadgerQueue struct {
	db     *badger.DB
	ownsDB bool
}

// NewBadgerQueue creates a queue on an already open database. The caller
// keeps ownership of db.
func NewBadgerQueue(db *badger.DB) *BadgerQueue {
	return &BadgerQueue{db: db}
}

// NewBadgerQueueAtPath opens a database at path and returns a queue that
// owns it.
func NewBadgerQueueAtPath(ctx context.Context, path string) (*BadgerQueue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", path, err)
	}
	return &BadgerQueue{db: db, ownsDB: true}, nil
}

func jobScanPrefix(name string) []byte {
	return []byte(jobPrefix + name + ":")
}

func jobKey(name string, seq uint64) []byte {
	key := append([]byte{}, jobScanPrefix(name)...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return append(key, buf[:]...)
}

func seqKey(name string) []byte {
	return []byte(seqPrefix + name)
}

// Enqueue appends a job under the next sequence key of the named queue.
func (q *BadgerQueue) Enqueue(ctx context.Context, name string, job *queue.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		item, err := txn.Get(seqKey(name))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				seq = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		case errors.Is(err, badger.ErrKeyNotFound):
			seq = 0
		default:
			return err
		}

		seq++
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], seq)
		if err := txn.Set(seqKey(name), buf[:]); err != nil {
			return err
		}
		return txn.Set(jobKey(name, seq), data)
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Dequeue removes and returns the oldest job of the named queue.
func (q *BadgerQueue) Dequeue(ctx context.Context, name string) (*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var job queue.Job
	err := q.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = jobScanPrefix(name)
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Rewind()
		if !it.Valid() {
			return queue.ErrNoJobs
		}

		item := it.Item()
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		}); err != nil {
			return err
		}
		return txn.Delete(item.KeyCopy(nil))
	})
	if err != nil {
		if errors.Is(err, queue.ErrNoJobs) {
			return nil, queue.ErrNoJobs
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	return &job, nil
}

// Close closes the underlying database if this queue owns it.
func (q *BadgerQueue) Close() error {
	if !q.ownsDB {
		return nil
	}
	return q.db.Close()
}
