package errors

import "errors"

// ErrOptimisticLock means the row changed since it was read.
var ErrOptimisticLock = errors.New("record was modified by another operation, reload and retry")

// ErrConcurrentUpdate means the database aborted the transaction to keep
// concurrent writers serializable.
var ErrConcurrentUpdate = errors.New("concurrent update detected, retry the request")
