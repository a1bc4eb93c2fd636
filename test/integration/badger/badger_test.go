//go:build integration

package badger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/stashfs/pkg/queue"
	queuebadger "github.com/marmos91/stashfs/pkg/queue/badger"
	"github.com/marmos91/stashfs/pkg/store/metadata"
	metabadger "github.com/marmos91/stashfs/pkg/store/metadata/badger"
	tokensbadger "github.com/marmos91/stashfs/pkg/store/tokens/badger"
)

// TestBadgerStores_Persistence verifies that the badger-backed metadata
// store, token cache and job queue share one database and survive a
// close/reopen cycle.
//
// Prerequisites:
//   - None (BadgerDB is embedded, no external services needed)
//   - Run with: go test -tags=integration ./test/integration/badger/...
func TestBadgerStores_Persistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "stashfs.db")

	db, err := metabadger.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}

	meta := metabadger.NewBadgerStore(db)
	cache := tokensbadger.NewBadgerCache(db)
	jobs := queuebadger.NewBadgerQueue(db)

	// Seed one user with a file under the root, a live session token and
	// a pending thumbnail job, then close the database.

	user := &metadata.User{ID: uuid.NewString(), Email: "it@example.com", PasswordHash: "x"}
	if err := meta.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	node := &metadata.FileNode{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      "report.png",
		Type:      metadata.NodeTypeImage,
		ParentID:  metadata.RootID,
		LocalPath: uuid.NewString(),
	}
	if err := meta.CreateNode(ctx, node); err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	token := uuid.NewString()
	if err := cache.Set(ctx, token, user.ID, time.Hour); err != nil {
		t.Fatalf("Failed to store token: %v", err)
	}

	job := &queue.Job{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		FileID:     node.ID,
		LocalPath:  node.LocalPath,
		EnqueuedAt: time.Now(),
	}
	if err := jobs.Enqueue(ctx, queue.QueueThumbnails, job); err != nil {
		t.Fatalf("Failed to enqueue job: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	// Reopen and verify everything is still there.

	db, err = metabadger.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen BadgerDB: %v", err)
	}
	defer db.Close()

	meta = metabadger.NewBadgerStore(db)
	cache = tokensbadger.NewBadgerCache(db)
	jobs = queuebadger.NewBadgerQueue(db)

	t.Run("MetadataSurvivesRestart", func(t *testing.T) {
		got, err := meta.UserByEmail(ctx, user.Email)
		if err != nil {
			t.Fatalf("Failed to look up user: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("Expected user %s, got %s", user.ID, got.ID)
		}

		listed, err := meta.ListNodes(ctx, user.ID, metadata.RootID, 0, 20)
		if err != nil {
			t.Fatalf("Failed to list nodes: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != node.ID {
			t.Errorf("Expected node %s under root, got %v", node.ID, listed)
		}
	})

	t.Run("TokenSurvivesRestart", func(t *testing.T) {
		userID, err := cache.Get(ctx, token)
		if err != nil {
			t.Fatalf("Failed to resolve token: %v", err)
		}
		if userID != user.ID {
			t.Errorf("Expected token to resolve to %s, got %s", user.ID, userID)
		}
	})

	t.Run("QueueSurvivesRestart", func(t *testing.T) {
		got, err := jobs.Dequeue(ctx, queue.QueueThumbnails)
		if err != nil {
			t.Fatalf("Failed to dequeue job: %v", err)
		}
		if got.ID != job.ID || got.FileID != node.ID {
			t.Errorf("Expected job %s for file %s, got %+v", job.ID, node.ID, got)
		}

		if _, err := jobs.Dequeue(ctx, queue.QueueThumbnails); !errors.Is(err, queue.ErrNoJobs) {
			t.Errorf("Expected ErrNoJobs after draining, got %v", err)
		}
	})
}
