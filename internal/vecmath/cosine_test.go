// ABOUTME: Unit tests for vector primitives
// ABOUTME: Covers cosine similarity properties, dot product and equality
package vecmath

import (
	"errors"
	"math"
	"testing"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
		delta    float64
	}{
		{
			name:     "identical vectors",
			a:        []float64{1.0, 0.0, 0.0},
			b:        []float64{1.0, 0.0, 0.0},
			expected: 1.0,
			delta:    0.001,
		},
		{
			name:     "orthogonal vectors",
			a:        []float64{1.0, 0.0, 0.0},
			b:        []float64{0.0, 1.0, 0.0},
			expected: 0.0,
			delta:    0.001,
		},
		{
			name:     "opposite vectors",
			a:        []float64{1.0, 0.0, 0.0},
			b:        []float64{-1.0, 0.0, 0.0},
			expected: -1.0,
			delta:    0.001,
		},
		{
			name:     "similar vectors",
			a:        []float64{1.0, 0.0, 0.0},
			b:        []float64{0.9, 0.1, 0.0},
			expected: 0.994,
			delta:    0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CosineSimilarity() error = %v", err)
			}
			if abs(result-tt.expected) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %.4f, expected %.4f (delta %.4f)",
					tt.a, tt.b, result, tt.expected, tt.delta)
			}
		})
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	vectors := [][]float64{
		{1, 2, 3},
		{-0.5, 0.25, 8},
		{1e-3, 1e3},
		{7},
	}
	for _, v := range vectors {
		sim, err := CosineSimilarity(v, v)
		if err != nil {
			t.Fatalf("CosineSimilarity(%v, %v) error = %v", v, v, err)
		}
		if abs(sim-1.0) > 1e-9 {
			t.Errorf("CosineSimilarity(%v, %v) = %v, want 1", v, v, sim)
		}
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	pairs := [][2][]float64{
		{{1, 2, 3}, {3, 2, 1}},
		{{0.1, -0.4}, {2, 2}},
		{{5, 0, 0, 1}, {0, 0, 3, -1}},
	}
	for _, p := range pairs {
		ab, _ := CosineSimilarity(p[0], p[1])
		ba, _ := CosineSimilarity(p[1], p[0])
		if ab != ba {
			t.Errorf("CosineSimilarity not symmetric for %v, %v: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestCosineSimilarity_LengthMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestCosineSimilarity_ZeroVectorIsNaN(t *testing.T) {
	sim, err := CosineSimilarity([]float64{0, 0}, []float64{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(sim) {
		t.Errorf("expected NaN for zero vector, got %v", sim)
	}
}

func TestEqual(t *testing.T) {
	if !Equal(nil, nil) {
		t.Error("nil should equal nil")
	}
	if Equal(nil, []float64{}) {
		t.Error("nil should not equal empty vector")
	}
	if !Equal([]float64{1, 2}, []float64{1, 2}) {
		t.Error("identical vectors should be equal")
	}
	if Equal([]float64{1, 2}, []float64{1, 3}) {
		t.Error("different vectors should not be equal")
	}
}

func TestClone(t *testing.T) {
	v := []float64{1, 2}
	c := Clone(v)
	c[0] = 9
	if v[0] != 1 {
		t.Error("Clone should not share backing array")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
