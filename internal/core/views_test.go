// ABOUTME: Tests for the derived similarity and projection views
// ABOUTME: Checks pair keys, availability thresholds and lazy recomputation

package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/harper/embedding-playground/internal/projection"
)

type failingProjector struct{}

func (failingProjector) Project([][]float64) (projection.Result, error) {
	return projection.Result{}, projection.ErrFactorization
}

func TestNewPairKey(t *testing.T) {
	if NewPairKey("a1", "a0") != NewPairKey("a0", "a1") {
		t.Error("pair key must not depend on argument order")
	}
	if got := NewPairKey("b0", "a0"); got != "a0|b0" {
		t.Errorf("NewPairKey() = %q, want a0|b0", got)
	}
	a, b := NewPairKey("a2", "a1").Names()
	if a != "a1" || b != "a2" {
		t.Errorf("Names() = %s, %s", a, b)
	}
}

func TestViews_Similarity(t *testing.T) {
	s := NewStore(nil)
	v := NewViews(s, nil, nil)
	a0 := s.InitTextEmbedding()
	a1 := s.InitTextEmbedding()
	setVector(t, s, a0, "x", []float64{1, 0})
	setVector(t, s, a1, "y", []float64{1, 1})

	m := v.Similarity()
	if len(m.Names) != 2 || len(m.Scores) != 1 {
		t.Fatalf("matrix = %+v, want 2 names and 1 pair", m)
	}
	got, ok := m.Lookup(a1, a0)
	if !ok || math.Abs(got-1/math.Sqrt2) > 1e-12 {
		t.Errorf("Lookup(a1, a0) = %v, %v", got, ok)
	}
	if self, ok := m.Lookup(a0, a0); !ok || self != 1 {
		t.Errorf("Lookup(a0, a0) = %v, %v, want 1", self, ok)
	}
	if _, ok := m.Lookup(a0, "a9"); ok {
		t.Error("Lookup of unknown name should report false")
	}
}

func TestViews_SimilarityIncludesMath(t *testing.T) {
	s := NewStore(nil)
	v := NewViews(s, nil, nil)
	a0 := s.InitTextEmbedding()
	a1 := s.InitTextEmbedding()
	setVector(t, s, a0, "x", []float64{1, 0})
	setVector(t, s, a1, "y", []float64{0, 1})
	b0 := s.InitMathEmbedding()
	_ = setExpression(t, s, b0, "a0 + a1")

	m := v.Similarity()
	if len(m.Scores) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(m.Scores))
	}
	if got, _ := m.Lookup(a0, a1); math.Abs(got) > 1e-12 {
		t.Errorf("orthogonal vectors similarity = %v, want 0", got)
	}
	pairs := m.SortedPairs()
	if pairs[len(pairs)-1] != NewPairKey(a0, a1) {
		t.Errorf("least similar pair = %s, want a0|a1", pairs[len(pairs)-1])
	}
}

func TestViews_ProjectionThreshold(t *testing.T) {
	s := NewStore(nil)
	v := NewViews(s, nil, nil)
	a0 := s.InitTextEmbedding()
	a1 := s.InitTextEmbedding()
	setVector(t, s, a0, "x", []float64{1, 0, 0})
	setVector(t, s, a1, "y", []float64{0, 1, 0})

	if _, err := v.Projection(); !errors.Is(err, ErrProjectionUnavailable) {
		t.Fatalf("expected ErrProjectionUnavailable with 2 vectors, got %v", err)
	}

	a2 := s.InitTextEmbedding()
	setVector(t, s, a2, "z", []float64{0, 0, 1})

	p, err := v.Projection()
	if err != nil {
		t.Fatalf("Projection() error = %v", err)
	}
	for _, name := range []string{a0, a1, a2} {
		if _, ok := p.Points[name]; !ok {
			t.Errorf("missing point for %s", name)
		}
	}
	if p.Labels[a2] != "z" {
		t.Errorf("label for a2 = %q, want z", p.Labels[a2])
	}
	if math.Abs(p.TotalExplainedVariance-1) > 1e-9 {
		t.Errorf("TotalExplainedVariance = %v, want 1", p.TotalExplainedVariance)
	}
}

func TestViews_ProjectorFailure(t *testing.T) {
	s := NewStore(nil)
	v := NewViews(s, failingProjector{}, nil)
	for i, vec := range [][]float64{{1, 0}, {0, 1}, {1, 1}} {
		name := s.InitTextEmbedding()
		setVector(t, s, name, string(rune('x'+i)), vec)
	}

	if _, err := v.Projection(); !errors.Is(err, ErrProjectionUnavailable) {
		t.Errorf("expected ErrProjectionUnavailable, got %v", err)
	}
}

func TestViews_NoSpuriousRecompute(t *testing.T) {
	s := NewStore(nil)
	v := NewViews(s, nil, nil)
	a0 := s.InitTextEmbedding()
	setVector(t, s, a0, "x", []float64{1, 0})

	v.Similarity()
	_, _ = v.Projection()
	if got := v.Recomputations(); got != 1 {
		t.Fatalf("Recomputations() = %d, want 1", got)
	}

	// edits that leave the valid set unchanged
	_, _, _ = s.UpdateTextOrInstruction(a0, TextEdit{Text: strPtr("x2")})
	s.InitTextEmbedding()
	s.InitMathEmbedding()
	v.Similarity()
	if got := v.Recomputations(); got != 1 {
		t.Errorf("Recomputations() after no-op edits = %d, want 1", got)
	}

	a1 := s.InitTextEmbedding()
	setVector(t, s, a1, "y", []float64{0, 1})
	v.Similarity()
	v.Similarity()
	if got := v.Recomputations(); got != 2 {
		t.Errorf("Recomputations() after new vector = %d, want 2", got)
	}
}

func TestSimilarityMatrix_MarshalJSON(t *testing.T) {
	m := SimilarityMatrix{
		Names: []string{"a0", "a1", "a2"},
		Scores: map[PairKey]float64{
			NewPairKey("a0", "a1"): 0.25,
			NewPairKey("a0", "a2"): math.NaN(),
			NewPairKey("a1", "a2"): 0.75,
		},
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"names":["a0","a1","a2"],"pairs":[` +
		`{"a":"a1","b":"a2","score":0.75},` +
		`{"a":"a0","b":"a1","score":0.25},` +
		`{"a":"a0","b":"a2","score":null}]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant %s", data, want)
	}

	empty, _ := json.Marshal(SimilarityMatrix{})
	if string(empty) != `{"names":[],"pairs":[]}` {
		t.Errorf("empty matrix = %s", empty)
	}
}
