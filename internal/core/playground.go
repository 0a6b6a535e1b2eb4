// ABOUTME: Playground facade wiring store, fetch coordinator, views and persistence
// ABOUTME: The single entry point used by the console, batch and MCP front ends
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/notify"
)

// Persister loads and saves the text entries' user inputs.
// Only Name, Instruction and Text are meaningful to it.
type Persister interface {
	LoadTextEmbeddings(ctx context.Context) ([]models.TextEmbedding, error)
	SaveTextEmbeddings(ctx context.Context, entries []models.TextEmbedding) error
}

// Options configures a Playground
type Options struct {
	Fetcher     Fetcher
	Persister   Persister
	Projector   Projector
	Notifier    notify.Notifier
	Coordinator CoordinatorConfig
	Model       models.ModelConfig
}

// Playground is a session of text and math embeddings
type Playground struct {
	store     *Store
	coord     *Coordinator
	views     *Views
	persister Persister
	notifier  notify.Notifier

	saveMu sync.Mutex
}

// New creates a playground. Call Load before use to restore saved entries.
func New(opts Options) *Playground {
	n := opts.Notifier
	if n == nil {
		n = notify.Discard{}
	}
	store := NewStore(n)
	p := &Playground{
		store:     store,
		coord:     NewCoordinator(store, opts.Fetcher, n, opts.Coordinator),
		views:     NewViews(store, opts.Projector, n),
		persister: opts.Persister,
		notifier:  n,
	}
	if !opts.Model.IsZero() {
		p.coord.SetModel(opts.Model)
	}
	return p
}

// Store exposes the underlying entry store
func (p *Playground) Store() *Store { return p.store }

// Views exposes the derived views
func (p *Playground) Views() *Views { return p.views }

// Load restores saved text entries, or seeds one empty entry when nothing was
// saved. Restored entries with text are fetched right away if a model is set.
func (p *Playground) Load(ctx context.Context) error {
	var saved []models.TextEmbedding
	if p.persister != nil {
		var err error
		saved, err = p.persister.LoadTextEmbeddings(ctx)
		if err != nil {
			return fmt.Errorf("failed to load text embeddings: %w", err)
		}
	}

	if len(saved) == 0 {
		p.store.InitTextEmbedding()
		return nil
	}

	for _, e := range saved {
		ref, err := p.store.RestoreTextEmbedding(e.Name, e.Instruction, e.Text)
		if err != nil {
			p.notifier.Notify(notify.Warning, "skipped saved entry", err)
			continue
		}
		if e.Text != "" && !p.coord.Model().IsZero() {
			p.coord.schedule(ref, 0)
		}
	}
	return nil
}

// AddText creates an empty text entry
func (p *Playground) AddText(ctx context.Context) string {
	name := p.store.InitTextEmbedding()
	p.save(ctx)
	return name
}

// AddMath creates an empty math entry
func (p *Playground) AddMath() string {
	return p.store.InitMathEmbedding()
}

// EditText sets a text entry's text
func (p *Playground) EditText(ctx context.Context, name, text string) error {
	if err := p.coord.EditText(name, TextEdit{Text: &text}); err != nil {
		return err
	}
	p.save(ctx)
	return nil
}

// EditInstruction sets a text entry's instruction
func (p *Playground) EditInstruction(ctx context.Context, name, instruction string) error {
	if err := p.coord.EditText(name, TextEdit{Instruction: &instruction}); err != nil {
		return err
	}
	p.save(ctx)
	return nil
}

// EditExpression sets a math entry's expression
func (p *Playground) EditExpression(name, expression string) error {
	return p.coord.EditExpression(name, expression)
}

// Delete removes an entry of either kind
func (p *Playground) Delete(ctx context.Context, name string) error {
	kind, err := p.store.Kind(name)
	if err != nil {
		return err
	}
	p.coord.Cancel(name)

	switch kind {
	case models.KindText:
		if err := p.store.DeleteTextEmbedding(name); err != nil {
			return err
		}
		p.save(ctx)
	case models.KindMath:
		if err := p.store.DeleteMathEmbedding(name); err != nil {
			return err
		}
	}
	return nil
}

// Retry refetches a text entry immediately
func (p *Playground) Retry(name string) error {
	return p.coord.Retry(name)
}

// Pending reports whether name has debounced work waiting to run
func (p *Playground) Pending(name string) bool {
	return p.coord.Pending(name)
}

// SetModel switches the embedding model and refetches every text entry
func (p *Playground) SetModel(model models.ModelConfig) {
	p.coord.SetModel(model)
}

// Model returns the selected model
func (p *Playground) Model() models.ModelConfig {
	return p.coord.Model()
}

// Flush runs all debounced work now and waits for outstanding fetches
func (p *Playground) Flush(ctx context.Context) error {
	return p.coord.Flush(ctx)
}

// Similarity returns the pairwise similarity matrix
func (p *Playground) Similarity() SimilarityMatrix {
	return p.views.Similarity()
}

// Projection returns the 2D projection of the valid embeddings
func (p *Playground) Projection() (Projection, error) {
	return p.views.Projection()
}

// TextEmbeddings lists text entries for display
func (p *Playground) TextEmbeddings() []models.TextEmbedding {
	return p.store.TextEmbeddings()
}

// MathEmbeddings lists math entries for display
func (p *Playground) MathEmbeddings() []models.MathEmbedding {
	return p.store.MathEmbeddings()
}

// Close stops all background work
func (p *Playground) Close() {
	p.coord.Close()
}

// save writes the text entries' inputs; failures are reported, not returned
func (p *Playground) save(ctx context.Context) {
	if p.persister == nil {
		return
	}
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	if err := p.persister.SaveTextEmbeddings(ctx, p.store.TextEmbeddings()); err != nil {
		p.notifier.Notify(notify.Warning, "failed to save text embeddings", err)
	}
}
