// ABOUTME: EmbeddingStore owning text and math entries and their derived state
// ABOUTME: Tracks lifecycle flags, generations and dependency-driven math recomputation
package core

import (
	"fmt"
	"sync"

	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/notify"
	"github.com/harper/embedding-playground/internal/vecmath"
)

// TextEdit carries the fields of a text entry a user changed. Nil means unchanged.
type TextEdit struct {
	Text        *string
	Instruction *string
}

// TextStatePatch is a partial update of a text entry's fetch state. Nil fields are left alone;
// a non-nil Vector pointing at a nil slice clears the vector.
type TextStatePatch struct {
	Vector     *[]float64
	IsLoading  *bool
	IsOutdated *bool
}

// TextRef identifies one generation of a text entry
type TextRef struct {
	Name       string
	Generation uint64
}

type notice struct {
	sev notify.Severity
	msg string
	err error
}

// Store holds the playground's entries. It is safe for concurrent use; every
// mutation runs under one lock and dependent math entries are recomputed
// before the lock is released.
type Store struct {
	mu       sync.Mutex
	texts    []*models.TextEmbedding
	maths    []*models.MathEmbedding
	nextGen  uint64
	revision uint64
	notifier notify.Notifier
}

// NewStore creates an empty store reporting evaluation problems to notifier
func NewStore(notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Store{notifier: notifier}
}

func (s *Store) report(notes []notice) {
	for _, n := range notes {
		s.notifier.Notify(n.sev, n.msg, n.err)
	}
}

func (s *Store) generationLocked() uint64 {
	s.nextGen++
	return s.nextGen
}

func (s *Store) textLocked(name string) (int, *models.TextEmbedding) {
	for i, e := range s.texts {
		if e.Name == name {
			return i, e
		}
	}
	return -1, nil
}

func (s *Store) mathLocked(name string) (int, *models.MathEmbedding) {
	for i, e := range s.maths {
		if e.Name == name {
			return i, e
		}
	}
	return -1, nil
}

// InitTextEmbedding creates an empty text entry and returns its name
func (s *Store) InitTextEmbedding() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]struct{}, len(s.texts))
	for _, e := range s.texts {
		taken[e.Name] = struct{}{}
	}
	name := NextName(TextPrefix, taken)
	s.texts = append(s.texts, &models.TextEmbedding{
		Name:       name,
		Generation: s.generationLocked(),
	})
	return name
}

// InitMathEmbedding creates an empty math entry and returns its name
func (s *Store) InitMathEmbedding() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]struct{}, len(s.maths))
	for _, e := range s.maths {
		taken[e.Name] = struct{}{}
	}
	name := NextName(MathPrefix, taken)
	s.maths = append(s.maths, &models.MathEmbedding{Name: name})
	return name
}

// RestoreTextEmbedding inserts a text entry loaded from persistence. The entry
// has no vector yet and is outdated when it has text to fetch.
func (s *Store) RestoreTextEmbedding(name, instruction, text string) (TextRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return TextRef{}, fmt.Errorf("restore text embedding: empty name")
	}
	if _, e := s.textLocked(name); e != nil {
		return TextRef{}, fmt.Errorf("restore text embedding %s: %w", name, ErrDuplicateName)
	}
	e := &models.TextEmbedding{
		Name:        name,
		Instruction: instruction,
		Text:        text,
		IsOutdated:  text != "",
		Generation:  s.generationLocked(),
	}
	s.texts = append(s.texts, e)
	return TextRef{Name: name, Generation: e.Generation}, nil
}

// DeleteTextEmbedding removes a text entry and recomputes math entries that used it
func (s *Store) DeleteTextEmbedding(name string) error {
	s.mu.Lock()
	i, e := s.textLocked(name)
	if e == nil {
		s.mu.Unlock()
		return fmt.Errorf("delete text embedding %s: %w", name, ErrNotFound)
	}
	s.texts = append(s.texts[:i], s.texts[i+1:]...)
	if e.Vector != nil {
		s.revision++
	}
	notes := s.propagateLocked(name)
	s.mu.Unlock()

	s.report(notes)
	return nil
}

// DeleteMathEmbedding removes a math entry and recomputes math entries that used it
func (s *Store) DeleteMathEmbedding(name string) error {
	s.mu.Lock()
	i, e := s.mathLocked(name)
	if e == nil {
		s.mu.Unlock()
		return fmt.Errorf("delete math embedding %s: %w", name, ErrNotFound)
	}
	s.maths = append(s.maths[:i], s.maths[i+1:]...)
	if e.Vector != nil {
		s.revision++
	}
	notes := s.propagateLocked(name)
	s.mu.Unlock()

	s.report(notes)
	return nil
}

// UpdateTextOrInstruction applies a user edit. When a value actually changes the
// entry becomes outdated, any in-flight fetch stops counting as loading, and a
// new generation is returned with changed=true.
func (s *Store) UpdateTextOrInstruction(name string, edit TextEdit) (ref TextRef, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, e := s.textLocked(name)
	if e == nil {
		return TextRef{}, false, fmt.Errorf("update text embedding %s: %w", name, ErrNotFound)
	}

	if edit.Text != nil && *edit.Text != e.Text {
		e.Text = *edit.Text
		changed = true
	}
	if edit.Instruction != nil && *edit.Instruction != e.Instruction {
		e.Instruction = *edit.Instruction
		changed = true
	}
	if changed {
		e.IsOutdated = true
		e.IsLoading = false
		e.Generation = s.generationLocked()
	}
	return TextRef{Name: name, Generation: e.Generation}, changed, nil
}

// UpdateTextEmbeddingState merges a partial fetch-state update into a text entry
func (s *Store) UpdateTextEmbeddingState(name string, patch TextStatePatch) error {
	s.mu.Lock()
	_, e := s.textLocked(name)
	if e == nil {
		s.mu.Unlock()
		return fmt.Errorf("update text embedding state %s: %w", name, ErrNotFound)
	}
	if patch.IsLoading != nil {
		e.IsLoading = *patch.IsLoading
	}
	if patch.IsOutdated != nil {
		e.IsOutdated = *patch.IsOutdated
	}
	var notes []notice
	if patch.Vector != nil {
		notes = s.setTextVectorLocked(e, *patch.Vector)
	}
	s.mu.Unlock()

	s.report(notes)
	return nil
}

// BeginFetch marks the entry as loading if ref is still its current generation
func (s *Store) BeginFetch(ref TextRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.currentLocked(ref)
	if err != nil {
		return err
	}
	e.IsLoading = true
	e.IsOutdated = true
	return nil
}

// CompleteFetch stores a fetched vector if ref is still the entry's current generation
func (s *Store) CompleteFetch(ref TextRef, vector []float64) error {
	s.mu.Lock()
	e, err := s.currentLocked(ref)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	e.IsLoading = false
	if expected := s.textDimensionLocked(e.Name); expected > 0 {
		nv := models.NamedVector{Name: e.Name, Kind: models.KindText, Vector: vector}
		if err := nv.ValidateDimension(expected); err != nil {
			e.IsOutdated = true
			s.mu.Unlock()
			return fmt.Errorf("%s: %w", ref.Name, err)
		}
	}
	e.IsOutdated = false
	notes := s.setTextVectorLocked(e, vecmath.Clone(vector))
	s.mu.Unlock()

	s.report(notes)
	return nil
}

// textDimensionLocked returns the vector length shared by the text entries other
// than exclude, or 0 when none has a vector. A model switch clears them all, so
// every present text vector comes from the selected model.
func (s *Store) textDimensionLocked(exclude string) int {
	for _, e := range s.texts {
		if e.Name != exclude && e.Vector != nil {
			return len(e.Vector)
		}
	}
	return 0
}

// FailFetch clears the loading flag after a failed fetch; the entry stays outdated
func (s *Store) FailFetch(ref TextRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.currentLocked(ref)
	if err != nil {
		return err
	}
	e.IsLoading = false
	e.IsOutdated = true
	return nil
}

// DiscardVector clears the vector of an entry that has nothing to fetch (empty text)
func (s *Store) DiscardVector(ref TextRef) error {
	s.mu.Lock()
	e, err := s.currentLocked(ref)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	e.IsLoading = false
	notes := s.setTextVectorLocked(e, nil)
	s.mu.Unlock()

	s.report(notes)
	return nil
}

// MarkOutdated starts a new generation for an entry without changing its inputs
func (s *Store) MarkOutdated(name string) (TextRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, e := s.textLocked(name)
	if e == nil {
		return TextRef{}, fmt.Errorf("mark outdated %s: %w", name, ErrNotFound)
	}
	e.IsOutdated = true
	e.IsLoading = false
	e.Generation = s.generationLocked()
	return TextRef{Name: name, Generation: e.Generation}, nil
}

// ResetTextVectors clears every text vector and starts a new generation for each
// entry, as needed when the embedding model changes.
func (s *Store) ResetTextVectors() []TextRef {
	s.mu.Lock()
	refs := make([]TextRef, 0, len(s.texts))
	var cleared []string
	for _, e := range s.texts {
		if e.Vector != nil {
			cleared = append(cleared, e.Name)
		}
		e.Vector = nil
		e.IsLoading = false
		e.IsOutdated = e.Text != ""
		e.Generation = s.generationLocked()
		refs = append(refs, TextRef{Name: e.Name, Generation: e.Generation})
	}
	if len(cleared) > 0 {
		s.revision++
	}
	notes := s.propagateLocked(cleared...)
	s.mu.Unlock()

	s.report(notes)
	return refs
}

func (s *Store) currentLocked(ref TextRef) (*models.TextEmbedding, error) {
	_, e := s.textLocked(ref.Name)
	if e == nil {
		return nil, fmt.Errorf("%s: %w", ref.Name, ErrNotFound)
	}
	if e.Generation != ref.Generation {
		return nil, fmt.Errorf("%s generation %d (current %d): %w", ref.Name, ref.Generation, e.Generation, ErrStaleResult)
	}
	return e, nil
}

func (s *Store) setTextVectorLocked(e *models.TextEmbedding, vector []float64) []notice {
	if vecmath.Equal(e.Vector, vector) {
		return nil
	}
	e.Vector = vector
	s.revision++
	return s.propagateLocked(e.Name)
}

// UpdateExpression records a math entry's expression without evaluating it
func (s *Store) UpdateExpression(name, expression string) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, e := s.mathLocked(name)
	if e == nil {
		return false, fmt.Errorf("update expression %s: %w", name, ErrNotFound)
	}
	if e.Expression == expression {
		return false, nil
	}
	e.Expression = expression
	e.Dependencies = vecmath.DependencyList(expression)
	return true, nil
}

// UpdateMathEmbedding evaluates one math entry against the current valid
// embeddings. On failure the vector becomes absent and the error is both
// reported and returned. Dependent math entries are recomputed in turn.
func (s *Store) UpdateMathEmbedding(name string) error {
	s.mu.Lock()
	_, e := s.mathLocked(name)
	if e == nil {
		s.mu.Unlock()
		return fmt.Errorf("update math embedding %s: %w", name, ErrNotFound)
	}
	changed, evalErr := s.evaluateLocked(e)
	var notes []notice
	if evalErr != nil {
		notes = append(notes, notice{notify.Warning, fmt.Sprintf("math embedding %s could not be evaluated", name), evalErr})
	}
	if changed {
		notes = append(notes, s.propagateLocked(name)...)
	}
	s.mu.Unlock()

	s.report(notes)
	return evalErr
}

// evaluateLocked recomputes e and reports whether its vector changed
func (s *Store) evaluateLocked(e *models.MathEmbedding) (bool, error) {
	var (
		vector []float64
		err    error
	)
	switch {
	case e.Expression == "":
		// nothing to evaluate yet
	case s.cyclicLocked(e.Name):
		err = &vecmath.EvaluationError{Expression: e.Expression, Err: ErrCircularDependency}
	default:
		vector, err = vecmath.EvaluateVector(e.Expression, s.scopeLocked(e.Name))
	}

	e.Error = ""
	if err != nil {
		vector = nil
		e.Error = err.Error()
	}

	if vecmath.Equal(e.Vector, vector) {
		return false, err
	}
	e.Vector = vector
	s.revision++
	return true, err
}

// scopeLocked binds every valid embedding except the one being evaluated
func (s *Store) scopeLocked(exclude string) *vecmath.Scope {
	scope := vecmath.NewScope()
	for _, e := range s.texts {
		if e.Vector != nil {
			scope.SetVector(e.Name, e.Vector)
		}
	}
	for _, e := range s.maths {
		if e.Vector != nil && e.Name != exclude {
			scope.SetVector(e.Name, e.Vector)
		}
	}
	return scope
}

// cyclicLocked reports whether name can reach itself through math dependencies
func (s *Store) cyclicLocked(name string) bool {
	visited := make(map[string]bool)
	var visit func(string) bool
	visit = func(current string) bool {
		_, e := s.mathLocked(current)
		if e == nil {
			return false
		}
		for _, dep := range e.Dependencies {
			if dep == name {
				return true
			}
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if visit(dep) {
				return true
			}
		}
		return false
	}
	return visit(name)
}

// propagateLocked recomputes every math entry depending on the changed names,
// following chains of math entries until nothing else changes.
func (s *Store) propagateLocked(changed ...string) []notice {
	var notes []notice
	queue := append([]string(nil), changed...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, m := range s.maths {
			if m.Name == name || !dependsOn(m, name) {
				continue
			}
			vecChanged, err := s.evaluateLocked(m)
			if err != nil {
				notes = append(notes, notice{notify.Warning, fmt.Sprintf("math embedding %s could not be evaluated", m.Name), err})
			}
			if vecChanged {
				queue = append(queue, m.Name)
			}
		}
	}
	return notes
}

func dependsOn(m *models.MathEmbedding, name string) bool {
	for _, d := range m.Dependencies {
		if d == name {
			return true
		}
	}
	return false
}

// AllValidEmbeddings returns every entry with a present vector: text entries in
// creation order followed by math entries in creation order.
func (s *Store) AllValidEmbeddings() []models.NamedVector {
	_, valid := s.ValidSnapshot()
	return valid
}

// ValidSnapshot returns the valid-embeddings view together with its revision
func (s *Store) ValidSnapshot() (uint64, []models.NamedVector) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := make([]models.NamedVector, 0, len(s.texts)+len(s.maths))
	for _, e := range s.texts {
		if e.Vector != nil {
			valid = append(valid, models.NamedVector{
				Name:   e.Name,
				Kind:   models.KindText,
				Label:  e.Label(),
				Vector: vecmath.Clone(e.Vector),
			})
		}
	}
	for _, e := range s.maths {
		if e.Vector != nil {
			valid = append(valid, models.NamedVector{
				Name:   e.Name,
				Kind:   models.KindMath,
				Label:  e.Label(),
				Vector: vecmath.Clone(e.Vector),
			})
		}
	}
	return s.revision, valid
}

// ValidRevision changes exactly when the set of valid (name, vector) pairs changes
func (s *Store) ValidRevision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// TextEmbedding returns a copy of one text entry
func (s *Store) TextEmbedding(name string) (models.TextEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, e := s.textLocked(name)
	if e == nil {
		return models.TextEmbedding{}, fmt.Errorf("text embedding %s: %w", name, ErrNotFound)
	}
	return copyText(e), nil
}

// MathEmbedding returns a copy of one math entry
func (s *Store) MathEmbedding(name string) (models.MathEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, e := s.mathLocked(name)
	if e == nil {
		return models.MathEmbedding{}, fmt.Errorf("math embedding %s: %w", name, ErrNotFound)
	}
	return copyMath(e), nil
}

// TextEmbeddings returns copies of all text entries in creation order
func (s *Store) TextEmbeddings() []models.TextEmbedding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.TextEmbedding, len(s.texts))
	for i, e := range s.texts {
		out[i] = copyText(e)
	}
	return out
}

// MathEmbeddings returns copies of all math entries in creation order
func (s *Store) MathEmbeddings() []models.MathEmbedding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MathEmbedding, len(s.maths))
	for i, e := range s.maths {
		out[i] = copyMath(e)
	}
	return out
}

// Kind reports which collection holds name
func (s *Store) Kind(name string) (models.EntryKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, e := s.textLocked(name); e != nil {
		return models.KindText, nil
	}
	if _, e := s.mathLocked(name); e != nil {
		return models.KindMath, nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

func copyText(e *models.TextEmbedding) models.TextEmbedding {
	c := *e
	c.Vector = vecmath.Clone(e.Vector)
	return c
}

func copyMath(e *models.MathEmbedding) models.MathEmbedding {
	c := *e
	c.Vector = vecmath.Clone(e.Vector)
	c.Dependencies = append([]string(nil), e.Dependencies...)
	return c
}
