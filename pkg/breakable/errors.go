package breakable

import "github.com/pkg/errors"

// Sentinel errors. Use errors.Is to test wrapped values.
var (
	// ErrCapacityExceeded is returned when a traversal grows past
	// Options.MaxTraversal.
	ErrCapacityExceeded = errors.New("breakable: traversal capacity exceeded")
	// ErrSerializationIO wraps failures of the underlying reader or writer.
	ErrSerializationIO = errors.New("breakable: serialization I/O")
	// ErrBadFormat reports a stream that is not a valid compound image.
	ErrBadFormat = errors.New("breakable: bad serialized format")
	// ErrInvalidNode is returned for stale or foreign node handles.
	ErrInvalidNode = errors.New("breakable: invalid node")
	// ErrNoPieces is returned when no input piece produced a usable hull.
	ErrNoPieces = errors.New("breakable: no usable pieces")
	// ErrMaterialRange is returned for materials outside 0-255.
	ErrMaterialRange = errors.New("breakable: material out of range")
	// ErrTransactionOpen is returned by operations that cannot run between
	// DeleteComponentBegin and DeleteComponentEnd.
	ErrTransactionOpen = errors.New("breakable: delete transaction in progress")
)
