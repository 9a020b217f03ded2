package store

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable reports that the store worker has terminated. Every
// pending and subsequent request resolves to this error until the store is
// reopened; callers must treat it as fatal to the store, not retry silently.
var ErrStoreUnavailable = errors.New("state store is unavailable")

// OperationError reports a well-formed request that failed for a domain
// reason, such as an update targeting a record that does not exist. It is
// distinct from ErrStoreUnavailable: the store itself is still healthy.
type OperationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *OperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store operation %s failed: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("store operation %s failed: %s", e.Op, e.Reason)
}

func (e *OperationError) Unwrap() error { return e.Err }
