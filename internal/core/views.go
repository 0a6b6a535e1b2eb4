// ABOUTME: Derived similarity matrix and 2D projection over the valid embeddings
// ABOUTME: Recomputed lazily, only when the store's valid revision moves
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/notify"
	"github.com/harper/embedding-playground/internal/projection"
	"github.com/harper/embedding-playground/internal/vecmath"
)

// Projector reduces a set of equal-length vectors to 2D points
type Projector interface {
	Project(vectors [][]float64) (projection.Result, error)
}

// PairKey identifies an unordered pair of names
type PairKey string

// NewPairKey sorts the two names so (a,b) and (b,a) share a key
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(a + "|" + b)
}

// Names splits a key back into its two names
func (k PairKey) Names() (string, string) {
	a, b, _ := strings.Cut(string(k), "|")
	return a, b
}

// SimilarityMatrix holds pairwise cosine similarity between distinct valid embeddings
type SimilarityMatrix struct {
	Names  []string
	Scores map[PairKey]float64
}

type scoredPair struct {
	A     string   `json:"a"`
	B     string   `json:"b"`
	Score *float64 `json:"score"`
}

// MarshalJSON lists the pairs most similar first. Incomparable pairs get a null score.
func (m SimilarityMatrix) MarshalJSON() ([]byte, error) {
	out := struct {
		Names []string     `json:"names"`
		Pairs []scoredPair `json:"pairs"`
	}{
		Names: m.Names,
		Pairs: make([]scoredPair, 0, len(m.Scores)),
	}
	if out.Names == nil {
		out.Names = []string{}
	}
	for _, key := range m.SortedPairs() {
		a, b := key.Names()
		pair := scoredPair{A: a, B: b}
		if score := m.Scores[key]; !math.IsNaN(score) {
			pair.Score = &score
		}
		out.Pairs = append(out.Pairs, pair)
	}
	return json.Marshal(out)
}

// Lookup returns the similarity of a and b; a name is fully similar to itself
func (m SimilarityMatrix) Lookup(a, b string) (float64, bool) {
	if a == b {
		for _, n := range m.Names {
			if n == a {
				return 1, true
			}
		}
		return 0, false
	}
	s, ok := m.Scores[NewPairKey(a, b)]
	return s, ok
}

// Projection places each valid embedding on a plane
type Projection struct {
	Names                  []string                    `json:"names"`
	Points                 map[string]projection.Point `json:"points"`
	Labels                 map[string]string           `json:"labels"`
	ExplainedVariance      [2]float64                  `json:"explained_variance"`
	TotalExplainedVariance float64                     `json:"total_explained_variance"`
}

// Views derives read-only views from a store. Each view is cached against
// the revision it was computed at.
type Views struct {
	store     *Store
	projector Projector
	notifier  notify.Notifier

	mu             sync.Mutex
	revision       uint64
	computed       bool
	similarity     SimilarityMatrix
	projection     Projection
	projectionErr  error
	recomputations int
}

// NewViews creates the derived views for store
func NewViews(store *Store, projector Projector, notifier notify.Notifier) *Views {
	if projector == nil {
		projector = projection.PCA{}
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Views{store: store, projector: projector, notifier: notifier}
}

// Similarity returns the current similarity matrix
func (v *Views) Similarity() SimilarityMatrix {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshLocked()
	return v.similarity
}

// Projection returns the current 2D projection, or ErrProjectionUnavailable
func (v *Views) Projection() (Projection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshLocked()
	return v.projection, v.projectionErr
}

// Recomputations counts how many times the views were actually rebuilt
func (v *Views) Recomputations() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recomputations
}

func (v *Views) refreshLocked() {
	if v.computed && v.store.ValidRevision() == v.revision {
		return
	}
	revision, valid := v.store.ValidSnapshot()

	v.similarity = similarity(valid)
	v.projection, v.projectionErr = v.project(valid)
	if v.projectionErr != nil {
		v.notifier.Notify(notify.Debug, "projection unavailable", v.projectionErr)
	}

	v.revision = revision
	v.computed = true
	v.recomputations++
}

func similarity(valid []models.NamedVector) SimilarityMatrix {
	m := SimilarityMatrix{
		Names:  make([]string, len(valid)),
		Scores: make(map[PairKey]float64),
	}
	for i, a := range valid {
		m.Names[i] = a.Name
		for _, b := range valid[i+1:] {
			score, err := vecmath.CosineSimilarity(a.Vector, b.Vector)
			if err != nil {
				// different models or dimensions cannot be compared
				score = math.NaN()
			}
			m.Scores[NewPairKey(a.Name, b.Name)] = score
		}
	}
	return m
}

func (v *Views) project(valid []models.NamedVector) (Projection, error) {
	if len(valid) < projection.MinVectors {
		return Projection{}, fmt.Errorf("%w: %d valid embeddings", ErrProjectionUnavailable, len(valid))
	}

	vectors := make([][]float64, len(valid))
	for i, nv := range valid {
		vectors[i] = nv.Vector
	}
	res, err := v.projector.Project(vectors)
	if err != nil {
		return Projection{}, fmt.Errorf("%w: %v", ErrProjectionUnavailable, err)
	}

	p := Projection{
		Names:                  make([]string, len(valid)),
		Points:                 make(map[string]projection.Point, len(valid)),
		Labels:                 make(map[string]string, len(valid)),
		ExplainedVariance:      res.ExplainedVariance,
		TotalExplainedVariance: res.TotalExplainedVariance(),
	}
	for i, nv := range valid {
		p.Names[i] = nv.Name
		p.Points[nv.Name] = res.Points[i]
		p.Labels[nv.Name] = nv.Label
	}
	return p, nil
}

// SortedPairs lists every pair in the matrix, most similar first
func (m SimilarityMatrix) SortedPairs() []PairKey {
	keys := make([]PairKey, 0, len(m.Scores))
	for k := range m.Scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		si, sj := m.Scores[keys[i]], m.Scores[keys[j]]
		if si != sj && !math.IsNaN(si) && !math.IsNaN(sj) {
			return si > sj
		}
		if math.IsNaN(si) != math.IsNaN(sj) {
			return !math.IsNaN(si)
		}
		return keys[i] < keys[j]
	})
	return keys
}
