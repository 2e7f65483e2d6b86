package chunkcache

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyHash       = errors.New("chunkcache: empty hash")
	ErrInvalidField    = errors.New("chunkcache: invalid chunk field")
	ErrIncompleteEntry = errors.New("chunkcache: incomplete entry")
	ErrPanic           = errors.New("chunkcache: recovered panic")
)

// WriteError reports a write aborted after the previous entry was deleted.
// Index is the chunk whose write failed. CleanupErr is set when the entry
// could not be removed afterwards, leaving a partial entry behind.
type WriteError struct {
	Hash       string
	Index      int
	Err        error
	CleanupErr error
}

func (e *WriteError) Error() string {
	switch {
	case e.Err != nil && e.CleanupErr != nil:
		return fmt.Sprintf("write %q failed at chunk %d and cleanup failed: write=%v; cleanup=%v",
			e.Hash, e.Index, e.Err, e.CleanupErr)
	case e.Err != nil:
		return fmt.Sprintf("write %q failed at chunk %d: %v", e.Hash, e.Index, e.Err)
	case e.CleanupErr != nil:
		return fmt.Sprintf("write %q: cleanup failed: %v", e.Hash, e.CleanupErr)
	default:
		return fmt.Sprintf("write %q: unknown error", e.Hash)
	}
}

func (e *WriteError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.CleanupErr != nil {
		errs = append(errs, e.CleanupErr)
	}
	return errs
}

// Orphaned reports whether a partial entry may have been left in the store.
func (e *WriteError) Orphaned() bool { return e.CleanupErr != nil }
