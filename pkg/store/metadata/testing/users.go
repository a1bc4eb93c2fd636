package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/store/metadata"
)

// RunUserTests exercises user creation, lookup and counting.
func (suite *StoreTestSuite) RunUserTests(t *testing.T) {
	t.Run("CreateAndLookup", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		user := &metadata.User{
			ID:           uuid.NewString(),
			Email:        "bob@example.com",
			PasswordHash: "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		}
		require.NoError(t, store.CreateUser(ctx, user))

		byID, err := store.UserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
		assert.Equal(t, user.PasswordHash, byID.PasswordHash)

		byEmail, err := store.UserByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		first := &metadata.User{ID: uuid.NewString(), Email: "dup@example.com"}
		require.NoError(t, store.CreateUser(ctx, first))

		second := &metadata.User{ID: uuid.NewString(), Email: "dup@example.com"}
		err := store.CreateUser(ctx, second)
		assert.ErrorIs(t, err, metadata.ErrEmailExists)
	})

	t.Run("LookupMissing", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		_, err := store.UserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, metadata.ErrUserNotFound)

		_, err = store.UserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, metadata.ErrUserNotFound)
	})

	t.Run("Count", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		count, err := store.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		for i := 0; i < 3; i++ {
			user := &metadata.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com"}
			require.NoError(t, store.CreateUser(ctx, user))
		}

		count, err = store.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}
