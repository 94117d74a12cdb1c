package history

import "errors"

var (
	// ErrInvalidArgument rejects empty repository or commit
	// identifiers before any I/O happens.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports a commit hash absent from the commit graph:
	// either the switch target is outside tracked history, or the
	// current checkpoint was never recorded.
	ErrNotFound = errors.New("commit not found")
)
