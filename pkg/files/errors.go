package files

import "errors"

// Wire-level errors of the file tree API. The messages are part of the
// HTTP contract: handlers serialize them verbatim into {"error": ...}
// bodies.
var (
	// ErrMissingName indicates an upload without a name.
	ErrMissingName = errors.New("Missing name")

	// ErrMissingType indicates an upload without a type, or with a type
	// outside folder/file/image. Both cases share the legacy message.
	ErrMissingType = errors.New("Missing type")

	// ErrMissingData indicates a non-folder upload without content.
	ErrMissingData = errors.New("Missing data")

	// ErrInvalidData indicates upload content that is not valid base64.
	ErrInvalidData = errors.New("Invalid data")

	// ErrParentNotFound indicates a parentId that resolves to no node.
	ErrParentNotFound = errors.New("Parent not found")

	// ErrParentNotFolder indicates a parentId that resolves to a
	// non-folder node.
	ErrParentNotFolder = errors.New("Parent is not a folder")

	// ErrNotFound covers both "does not exist" and "exists but the caller
	// may not access it", so existence is never disclosed.
	ErrNotFound = errors.New("Not found")

	// ErrFolderHasNoContent indicates a content read on a folder node.
	ErrFolderHasNoContent = errors.New("A folder doesn't have content")

	// ErrInvalidSize indicates a derivative size outside {100, 250, 500}.
	ErrInvalidSize = errors.New("Invalid size")
)
