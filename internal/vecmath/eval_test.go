// ABOUTME: Unit tests for the expression evaluator
// ABOUTME: Covers vector arithmetic, built-ins and every error kind
package vecmath

import (
	"errors"
	"testing"
)

func testScope() *Scope {
	s := NewScope()
	s.SetVector("a0", []float64{1, 0})
	s.SetVector("a1", []float64{0, 1})
	s.SetVector("a2", []float64{3, 4})
	s.SetVector("long", []float64{1, 2, 3})
	return s
}

func TestEvaluate_Vectors(t *testing.T) {
	tests := []struct {
		expr string
		want []float64
	}{
		{"a0 + a1", []float64{1, 1}},
		{"a0 - a1", []float64{1, -1}},
		{"2 * a2", []float64{6, 8}},
		{"a2 * 0.5", []float64{1.5, 2}},
		{"a2 / 2", []float64{1.5, 2}},
		{"-a0", []float64{-1, 0}},
		{"(a0 + a1) / 2", []float64{0.5, 0.5}},
		{"a0 + 1", []float64{2, 1}},
		{"1 - a0", []float64{0, 1}},
		{"normalize(a2)", []float64{0.6, 0.8}},
		{"mean(a0, a1)", []float64{0.5, 0.5}},
		{"a0 * cosineSimilarity(a0, a2)", []float64{0.6, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := EvaluateVector(tt.expr, testScope())
			if err != nil {
				t.Fatalf("EvaluateVector(%q) error = %v", tt.expr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("EvaluateVector(%q) = %v, want %v", tt.expr, got, tt.want)
			}
			for i := range got {
				if abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("EvaluateVector(%q) = %v, want %v", tt.expr, got, tt.want)
					break
				}
			}
		})
	}
}

func TestEvaluate_Scalars(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"cosineSimilarity(a0, a0)", 1},
		{"cosineSimilarity(a0, a1)", 0},
		{"dot(a2, a2)", 25},
		{"norm(a2)", 5},
		{"a2 * a2", 25},
		{"0x10", 16},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr, testScope())
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got.IsVector {
				t.Fatalf("Evaluate(%q) returned a vector, want scalar", tt.expr)
			}
			if abs(got.Scalar-tt.want) > 1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got.Scalar, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		expr string
		want error
	}{
		{"", ErrEmptyExpression},
		{"   ", ErrEmptyExpression},
		{"a0 +", ErrSyntax},
		{"a0 ^ a1", ErrSyntax},
		{`"text"`, ErrSyntax},
		{"a0.x", ErrSyntax},
		{"missing + a0", ErrUnknownIdentifier},
		{"nothere(a0)", ErrUnknownIdentifier},
		{"a0 + long", ErrTypeMismatch},
		{"a0 / a1", ErrTypeMismatch},
		{"a0(a1)", ErrTypeMismatch},
		{"norm", ErrTypeMismatch},
		{"cosineSimilarity(a0)", ErrArity},
		{"cosineSimilarity(a0, long)", ErrTypeMismatch},
		{"mean()", ErrArity},
		{"a0 / 0", ErrDivisionByZero},
		{"normalize(a0 - a0)", ErrDivisionByZero},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr, testScope())
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error", tt.expr)
			}
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("Evaluate(%q) error %T is not *EvaluationError", tt.expr, err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Evaluate(%q) error = %v, want %v", tt.expr, err, tt.want)
			}
		})
	}
}

func TestEvaluateVector_ScalarResult(t *testing.T) {
	_, err := EvaluateVector("cosineSimilarity(a0, a1)", testScope())
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for scalar result, got %v", err)
	}
}

func TestScope_SetFunc(t *testing.T) {
	s := testScope()
	s.SetFunc("first", func(args []Value) (Value, error) {
		return args[0], nil
	})
	got, err := EvaluateVector("first(a2)", s)
	if err != nil {
		t.Fatalf("EvaluateVector error = %v", err)
	}
	if got[0] != 3 || got[1] != 4 {
		t.Errorf("first(a2) = %v, want [3 4]", got)
	}
}

func TestEvaluate_DoesNotMutateScope(t *testing.T) {
	s := testScope()
	if _, err := Evaluate("-a2 * 2", s); err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	got, _ := EvaluateVector("a2", s)
	if got[0] != 3 || got[1] != 4 {
		t.Errorf("scope vector mutated: %v", got)
	}
}
