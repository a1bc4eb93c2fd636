package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/stashfs/pkg/store/metadata"
)

// CreateUser inserts a user and its email index entry in one transaction.
//
// The email index doubles as the uniqueness check: if the index key already
// exists the transaction is aborted with metadata.ErrEmailExists.
func (s *BadgerStore) CreateUser(ctx context.Context, user *metadata.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey(user.Email))
		if err == nil {
			return metadata.ErrEmailExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey(user.Email), []byte(user.ID))
	})
	if err != nil {
		if errors.Is(err, metadata.ErrEmailExists) {
			return metadata.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UserByID returns the user stored under the given ID.
func (s *BadgerStore) UserByID(ctx context.Context, id string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user metadata.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return &user, nil
}

// UserByEmail resolves the email index and loads the user.
func (s *BadgerStore) UserByEmail(ctx context.Context, email string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve email index: %w", err)
	}

	return s.UserByID(ctx, id)
}

// CountUsers counts user entries.
func (s *BadgerStore) CountUsers(ctx context.Context) (int64, error) {
	return s.countPrefix(ctx, []byte(userPrefix))
}
