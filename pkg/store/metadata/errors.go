package metadata

import "errors"

// Sentinel errors returned by Store implementations.
//
// Services translate these into the wire-level error messages; the store
// layer never formats user-visible strings.
var (
	// ErrUserNotFound indicates no user matches the given ID or email.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists indicates a registration attempt with an email that
	// is already taken.
	ErrEmailExists = errors.New("email already registered")

	// ErrNodeNotFound indicates no file tree node matches the lookup.
	// Owner-scoped lookups return this both when the node does not exist
	// and when it exists under a different owner, so existence is never
	// disclosed through the error.
	ErrNodeNotFound = errors.New("file node not found")
)
