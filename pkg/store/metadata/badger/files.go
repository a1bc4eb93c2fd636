package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/stashfs/pkg/store/metadata"
)

// CreateNode inserts a node and its children-index entry atomically.
//
// The store-wide insert sequence is read and incremented inside the same
// transaction, so the ordering of the children index reflects commit order
// and pagination stays stable under concurrent uploads.
func (s *BadgerStore) CreateNode(ctx context.Context, node *metadata.FileNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to serialize node: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSequence(txn)
		if err != nil {
			return err
		}

		if err := txn.Set(nodeKey(node.ID), data); err != nil {
			return err
		}
		return txn.Set(childKey(node.UserID, node.ParentID, seq), []byte(node.ID))
	})
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}
	return nil
}

// nextSequence increments and returns the node insert sequence within txn.
func nextSequence(txn *badger.Txn) (uint64, error) {
	var seq uint64
	item, err := txn.Get([]byte(nodeSeqKey))
	switch {
	case err == nil:
		err = item.Value(func(val []byte) error {
			seq = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
	case errors.Is(err, badger.ErrKeyNotFound):
		seq = 0
	default:
		return 0, err
	}

	seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	if err := txn.Set([]byte(nodeSeqKey), buf[:]); err != nil {
		return 0, err
	}
	return seq, nil
}

// NodeByID returns the node stored under the given ID regardless of owner.
func (s *BadgerStore) NodeByID(ctx context.Context, id string) (*metadata.FileNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var node metadata.FileNode
	err := s.db.View(func(txn *badger.Txn) error {
		return readNode(txn, id, &node)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to read node: %w", err)
	}
	return &node, nil
}

// NodeByIDAndOwner returns the node only if owned by userID.
func (s *BadgerStore) NodeByIDAndOwner(ctx context.Context, id, userID string) (*metadata.FileNode, error) {
	node, err := s.NodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.UserID != userID {
		return nil, metadata.ErrNodeNotFound
	}
	return node, nil
}

// ListNodes scans the owner's children index of parentID in sequence order
// and loads the page of nodes selected by offset/limit.
func (s *BadgerStore) ListNodes(ctx context.Context, userID, parentID string, offset, limit int) ([]*metadata.FileNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	nodes := []*metadata.FileNode{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = childScanPrefix(userID, parentID)
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(nodes) >= limit {
				break
			}

			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			var node metadata.FileNode
			if err := readNode(txn, id, &node); err != nil {
				return err
			}
			nodes = append(nodes, &node)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}

// SetNodePublic updates the visibility flag of an owner's node in one
// transaction and returns the refreshed node.
func (s *BadgerStore) SetNodePublic(ctx context.Context, id, userID string, isPublic bool) (*metadata.FileNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var node metadata.FileNode
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := readNode(txn, id, &node); err != nil {
			return err
		}
		if node.UserID != userID {
			return metadata.ErrNodeNotFound
		}

		node.IsPublic = isPublic
		data, err := json.Marshal(&node)
		if err != nil {
			return err
		}
		return txn.Set(nodeKey(id), data)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) || errors.Is(err, metadata.ErrNodeNotFound) {
			return nil, metadata.ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to update node visibility: %w", err)
	}
	return &node, nil
}

// CountNodes counts node entries.
func (s *BadgerStore) CountNodes(ctx context.Context) (int64, error) {
	return s.countPrefix(ctx, []byte(nodePrefix))
}

// readNode loads and decodes a node inside an open transaction.
func readNode(txn *badger.Txn, id string, node *metadata.FileNode) error {
	item, err := txn.Get(nodeKey(id))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, node)
	})
}
