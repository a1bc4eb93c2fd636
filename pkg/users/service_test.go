package users_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/queue"
	queuememory "github.com/marmos91/stashfs/pkg/queue/memory"
	metamemory "github.com/marmos91/stashfs/pkg/store/metadata/memory"
	tokenmemory "github.com/marmos91/stashfs/pkg/store/tokens/memory"
	"github.com/marmos91/stashfs/pkg/users"
)

type fixture struct {
	svc    *users.Service
	meta   *metamemory.MemoryStore
	tokens *tokenmemory.MemoryCache
	jobs   *queuememory.MemoryQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	meta := metamemory.NewMemoryStore()
	toks := tokenmemory.NewMemoryCache()
	jobs := queuememory.NewMemoryQueue()

	t.Cleanup(func() {
		_ = meta.Close()
		_ = toks.Close()
		_ = jobs.Close()
	})

	return &fixture{
		svc:    users.NewService(meta, toks, jobs),
		meta:   meta,
		tokens: toks,
		jobs:   jobs,
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	user, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.Equal(t, "bob@dylan.com", user.Email)

	// Password is stored as a SHA-1 hex digest, never in clear.
	assert.NotEqual(t, "toto1234!", user.PasswordHash)
	assert.Equal(t, users.HashPassword("toto1234!"), user.PasswordHash)

	stored, err := f.meta.UserByEmail(ctx, "bob@dylan.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegister_EnqueuesWelcomeJob(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	user, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	job, err := f.jobs.Dequeue(ctx, queue.QueueWelcome)
	require.NoError(t, err)
	assert.Equal(t, user.ID, job.UserID)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Register(ctx, "", "toto1234!")
	assert.ErrorIs(t, err, users.ErrMissingEmail)

	_, err = f.svc.Register(ctx, "bob@dylan.com", "")
	assert.ErrorIs(t, err, users.ErrMissingPassword)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "bob@dylan.com", "other")
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestConnect(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	user, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	token, err := f.svc.Connect(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := f.svc.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestConnect_BadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "bob@dylan.com", "nope"},
		{"unknown email", "nobody@dylan.com", "toto1234!"},
		{"empty email", "", "toto1234!"},
		{"empty password", "bob@dylan.com", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Connect(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, users.ErrUnauthorized)
		})
	}
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	token, err := f.svc.Connect(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	require.NoError(t, f.svc.Disconnect(ctx, token))

	_, err = f.svc.ResolveToken(ctx, token)
	assert.ErrorIs(t, err, users.ErrUnauthorized)

	// A second disconnect with the same token is a dead session.
	assert.ErrorIs(t, f.svc.Disconnect(ctx, token), users.ErrUnauthorized)
}

func TestResolveToken_Expiry(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	user, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	token, err := f.svc.Connect(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	userID, err := f.svc.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	f.tokens.SetNow(func() time.Time {
		return time.Now().Add(users.TokenTTL + time.Minute)
	})

	_, err = f.svc.ResolveToken(ctx, token)
	assert.ErrorIs(t, err, users.ErrUnauthorized)
}

func TestUserFromToken(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	reg, err := f.svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	token, err := f.svc.Connect(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	user, err := f.svc.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, user.ID)
	assert.Equal(t, "bob@dylan.com", user.Email)

	_, err = f.svc.UserFromToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, users.ErrUnauthorized)

	_, err = f.svc.UserFromToken(ctx, "")
	assert.ErrorIs(t, err, users.ErrUnauthorized)
}
