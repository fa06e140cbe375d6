package approval

import (
	"errors"

	"github.com/grainledger/grainledger/internal/movement"
)

// Result reports the outcome of one movement's approval or rejection.
// Bulk operations return one Result per requested id, in request order.
type Result struct {
	MovementID   int64
	Status       movement.Status
	SnapshotRate float64
	Err          error
	Retryable    bool
}

// OK reports whether the record was decided.
func (r Result) OK() bool {
	return r.Err == nil
}

var (
	// ErrConcurrentUpdate is surfaced after bounded internal retries on
	// row-lock serialization conflicts. Callers may retry.
	ErrConcurrentUpdate = errors.New("approval: concurrent update conflict")
	// ErrEmptyBatch indicates a bulk call without ids.
	ErrEmptyBatch = errors.New("approval: empty batch")
)
