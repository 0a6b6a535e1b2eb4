// ABOUTME: Tests for the PCA projection
// ABOUTME: Covers input validation, variance ratios and geometry preservation
package projection

import (
	"errors"
	"math"
	"testing"
)

func TestProjectRejectsSmallInput(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		vectors := make([][]float64, n)
		for i := range vectors {
			vectors[i] = []float64{1, 2, 3}
		}
		if _, err := (PCA{}).Project(vectors); !errors.Is(err, ErrTooFewVectors) {
			t.Errorf("n=%d: expected ErrTooFewVectors, got %v", n, err)
		}
	}
}

func TestProjectRejectsMixedDimensions(t *testing.T) {
	_, err := (PCA{}).Project([][]float64{{1, 0}, {0, 1}, {1, 1, 1}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestProjectThreeVectors(t *testing.T) {
	res, err := (PCA{}).Project([][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(res.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(res.Points))
	}

	// three points always span at most a plane, so two components explain everything
	if got := res.TotalExplainedVariance(); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected total explained variance 1, got %v", got)
	}
	if res.ExplainedVariance[0] < res.ExplainedVariance[1] {
		t.Errorf("components out of order: %v", res.ExplainedVariance)
	}
}

func TestProjectPreservesDistances(t *testing.T) {
	// all points lie in the plane z=5, so projection is an isometry
	vectors := [][]float64{
		{0, 0, 5},
		{3, 0, 5},
		{0, 4, 5},
		{3, 4, 5},
	}
	res, err := (PCA{}).Project(vectors)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	for i := range vectors {
		for j := i + 1; j < len(vectors); j++ {
			want := dist(vectors[i], vectors[j])
			p, q := res.Points[i], res.Points[j]
			got := math.Hypot(p.X-q.X, p.Y-q.Y)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("distance %d-%d: got %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestProjectCollinear(t *testing.T) {
	res, err := (PCA{}).Project([][]float64{{1, 1}, {2, 2}, {3, 3}})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if math.Abs(res.ExplainedVariance[0]-1) > 1e-9 {
		t.Errorf("expected first component to explain everything, got %v", res.ExplainedVariance)
	}
	for i, p := range res.Points {
		if math.Abs(p.Y) > 1e-9 {
			t.Errorf("point %d: expected Y=0, got %v", i, p.Y)
		}
	}
}

func dist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
