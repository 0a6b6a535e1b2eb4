// ABOUTME: Error kinds reported by vector math and expression evaluation
// ABOUTME: EvaluationError wraps one of the sentinel causes for errors.Is checks
package vecmath

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch    = errors.New("vector length mismatch")
	ErrEmptyExpression   = errors.New("empty expression")
	ErrSyntax            = errors.New("syntax error")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrArity             = errors.New("wrong number of arguments")
	ErrDivisionByZero    = errors.New("division by zero")
)

// EvaluationError is returned for any failure while parsing or evaluating an expression
type EvaluationError struct {
	Expression string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %q: %v", e.Expression, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
