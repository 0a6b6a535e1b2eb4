// ABOUTME: Error kinds raised by the embedding store and fetch coordinator
// ABOUTME: All are recovered at the component boundary and surfaced via notify
package core

import (
	"errors"

	"github.com/harper/embedding-playground/internal/models"
)

var (
	// ErrNotFound means an operation named an entry that does not exist
	ErrNotFound = errors.New("embedding not found")

	// ErrDuplicateName means a restored entry collides with an existing name
	ErrDuplicateName = errors.New("embedding name already exists")

	// ErrStaleResult means a fetch result was dropped because newer input was applied
	ErrStaleResult = errors.New("stale fetch result")

	// ErrModelNotSelected means a fetch was due but no model is chosen
	ErrModelNotSelected = errors.New("no embedding model selected")

	// ErrFetchFailed wraps backend and network failures
	ErrFetchFailed = errors.New("embedding fetch failed")

	// ErrDimensionMismatch means a fetched vector's length differs from the other text vectors
	ErrDimensionMismatch = models.ErrDimensionMismatch

	// ErrCircularDependency means a math expression depends on itself
	ErrCircularDependency = errors.New("circular dependency")

	// ErrProjectionUnavailable means no 2D projection can be computed right now
	ErrProjectionUnavailable = errors.New("projection unavailable")
)
