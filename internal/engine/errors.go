package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure. Every public engine operation returns
// either a nil error or an *Error carrying one of these kinds, so callers
// can map failures to a boundary response without string matching.
type Kind int

const (
	// KindInternal is the zero kind: an unexpected failure whose details
	// should be logged rather than surfaced verbatim.
	KindInternal Kind = iota
	// KindInvalidInput covers malformed meshes, non-positive voxel sizes,
	// empty coordinate batches and out-of-range attribute values.
	KindInvalidInput
	// KindNotFound covers unknown projects, partitions, layers and voxels.
	KindNotFound
	// KindConflict covers duplicate partition names and adds onto occupied
	// coordinates.
	KindConflict
	// KindEmptyHistory covers undo/redo with nothing to act on.
	KindEmptyHistory
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindEmptyHistory:
		return "empty_history"
	}
	return "internal"
}

// Error is the tagged failure type returned by engine operations.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error chain. Errors that did not
// originate in the engine report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func invalidInputf(format string, args ...interface{}) *Error {
	return errorf(KindInvalidInput, format, args...)
}

func notFoundf(format string, args ...interface{}) *Error {
	return errorf(KindNotFound, format, args...)
}

func conflictf(format string, args ...interface{}) *Error {
	return errorf(KindConflict, format, args...)
}

func emptyHistoryf(format string, args ...interface{}) *Error {
	return errorf(KindEmptyHistory, format, args...)
}

func internalErr(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}
