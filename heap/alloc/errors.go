package alloc

import "errors"

var (
	// ErrNoMemory indicates the backing source could not supply more
	// memory. Fatal to the request; never retried internally.
	ErrNoMemory = errors.New("alloc: backing source out of memory")

	// ErrArenaFull indicates the contiguous arena has no room left for
	// the request. Like ErrNoMemory, this is terminal.
	ErrArenaFull = errors.New("alloc: contiguous arena exhausted")

	// ErrBadPtr indicates a pointer that does not belong to the heap,
	// or belongs to a region of the wrong kind for the operation.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrBadSize indicates a request size outside the operation's
	// contract.
	ErrBadSize = errors.New("alloc: size out of range")
)
