// ABOUTME: Embedding entry models for the playground store
// ABOUTME: Text entries, math (formula) entries and the merged named-vector view
package models

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch means a vector's length differs from the one expected
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// EntryKind distinguishes text entries from math entries
type EntryKind string

const (
	KindText EntryKind = "text"
	KindMath EntryKind = "math"
)

// TextEmbedding is a user-entered text whose vector comes from a model
type TextEmbedding struct {
	Name        string    `json:"name"`
	Instruction string    `json:"instruction"`
	Text        string    `json:"text"`
	Vector      []float64 `json:"vector,omitempty"`
	IsLoading   bool      `json:"is_loading"`
	IsOutdated  bool      `json:"is_outdated"`

	// Generation changes on every input edit; fetch results carry the
	// generation they were issued under.
	Generation uint64 `json:"-"`
}

// HasVector reports whether the entry currently holds a vector
func (e TextEmbedding) HasVector() bool {
	return e.Vector != nil
}

// Label is the display label used by the projection view
func (e TextEmbedding) Label() string {
	return e.Instruction + e.Text
}

// MathEmbedding is a vector defined by an expression over other entries
type MathEmbedding struct {
	Name         string    `json:"name"`
	Expression   string    `json:"expression"`
	Vector       []float64 `json:"vector,omitempty"`
	Dependencies []string  `json:"dependencies,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// HasVector reports whether the expression currently evaluates to a vector
func (e MathEmbedding) HasVector() bool {
	return e.Vector != nil
}

// Label is the display label used by the projection view
func (e MathEmbedding) Label() string {
	return e.Expression
}

// NamedVector is one member of the merged valid-embeddings view
type NamedVector struct {
	Name   string    `json:"name"`
	Kind   EntryKind `json:"kind"`
	Label  string    `json:"label"`
	Vector []float64 `json:"vector"`
}

// ValidateDimension checks the vector is non-empty and has the expected length
func (n NamedVector) ValidateDimension(expected int) error {
	if len(n.Vector) == 0 {
		return errors.New("embedding vector cannot be empty")
	}
	if len(n.Vector) != expected {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, expected, len(n.Vector))
	}
	return nil
}
