// ABOUTME: Fetch coordinator turning text edits into debounced embedding requests
// ABOUTME: Per-entry timers, generation-tagged fetches and a staleness guard on results
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/notify"
)

const (
	DefaultTextDebounce = time.Second
	DefaultMathDebounce = 500 * time.Millisecond
	DefaultFetchTimeout = 30 * time.Second

	flushParallelism = 4
)

// Fetcher generates an embedding vector for one request
type Fetcher interface {
	Embed(ctx context.Context, req models.EmbeddingRequest) ([]float64, error)
}

// CoordinatorConfig holds the coordinator's tuning constants
type CoordinatorConfig struct {
	TextDebounce time.Duration
	MathDebounce time.Duration
	FetchTimeout time.Duration
}

func (c CoordinatorConfig) withDefaults() CoordinatorConfig {
	if c.TextDebounce <= 0 {
		c.TextDebounce = DefaultTextDebounce
	}
	if c.MathDebounce <= 0 {
		c.MathDebounce = DefaultMathDebounce
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	return c
}

type pendingFetch struct {
	timer *time.Timer
	ref   TextRef
}

// Coordinator debounces edits per entry and applies fetch results only when
// they still match the entry's current generation. Several fetches for one
// entry may be in flight at once; only the newest can land.
type Coordinator struct {
	store    *Store
	fetcher  Fetcher
	notifier notify.Notifier
	cfg      CoordinatorConfig
	metrics  *fetchMetrics

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	model      models.ModelConfig
	textTimers map[string]*pendingFetch
	mathTimers map[string]*time.Timer
	closed     bool

	// active counts armed timers and running work; idle is closed whenever it is zero
	active int
	idle   chan struct{}
}

// NewCoordinator creates a coordinator for store using fetcher for network calls
func NewCoordinator(store *Store, fetcher Fetcher, notifier notify.Notifier, cfg CoordinatorConfig) *Coordinator {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Coordinator{
		store:      store,
		fetcher:    fetcher,
		notifier:   notifier,
		cfg:        cfg.withDefaults(),
		metrics:    newFetchMetrics(),
		ctx:        ctx,
		cancel:     cancel,
		textTimers: make(map[string]*pendingFetch),
		mathTimers: make(map[string]*time.Timer),
		idle:       idle,
	}
}

func (c *Coordinator) acquireLocked() {
	if c.active == 0 {
		c.idle = make(chan struct{})
	}
	c.active++
}

func (c *Coordinator) releaseLocked() {
	c.active--
	if c.active == 0 {
		close(c.idle)
	}
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.releaseLocked()
	c.mu.Unlock()
}

// stopLocked stops t and releases its slot if it had not fired yet
func (c *Coordinator) stopLocked(t *time.Timer) bool {
	if t.Stop() {
		c.releaseLocked()
		return true
	}
	return false
}

// Model returns the currently selected model
func (c *Coordinator) Model() models.ModelConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel switches the embedding model. Every text vector is cleared and
// each entry with text is refetched under the new model.
func (c *Coordinator) SetModel(model models.ModelConfig) {
	c.mu.Lock()
	if c.model == model {
		c.mu.Unlock()
		return
	}
	c.model = model
	c.mu.Unlock()

	for _, ref := range c.store.ResetTextVectors() {
		c.schedule(ref, 0)
	}
}

// EditText applies a user edit to a text entry and (re)starts its debounce timer
func (c *Coordinator) EditText(name string, edit TextEdit) error {
	ref, changed, err := c.store.UpdateTextOrInstruction(name, edit)
	if err != nil {
		c.notifier.Notify(notify.Warning, "edit ignored", err)
		return err
	}
	if changed {
		c.schedule(ref, c.cfg.TextDebounce)
	}
	return nil
}

// EditExpression records a math expression and debounces its recomputation
func (c *Coordinator) EditExpression(name, expression string) error {
	changed, err := c.store.UpdateExpression(name, expression)
	if err != nil {
		c.notifier.Notify(notify.Warning, "edit ignored", err)
		return err
	}
	if !changed {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if t, ok := c.mathTimers[name]; ok {
		c.stopLocked(t)
	}
	c.acquireLocked()
	var timer *time.Timer
	timer = time.AfterFunc(c.cfg.MathDebounce, func() {
		defer c.release()
		c.mu.Lock()
		if c.mathTimers[name] == timer {
			delete(c.mathTimers, name)
		}
		c.mu.Unlock()
		// evaluation errors are reported by the store
		_ = c.store.UpdateMathEmbedding(name)
	})
	c.mathTimers[name] = timer
	return nil
}

// Retry refetches an entry immediately, bypassing the debounce
func (c *Coordinator) Retry(name string) error {
	ref, err := c.store.MarkOutdated(name)
	if err != nil {
		c.notifier.Notify(notify.Warning, "retry ignored", err)
		return err
	}
	c.Cancel(name)
	c.start(ref)
	return nil
}

// Cancel drops any pending (not yet fired) timers for name
func (c *Coordinator) Cancel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.textTimers[name]; ok {
		c.stopLocked(p.timer)
		delete(c.textTimers, name)
	}
	if t, ok := c.mathTimers[name]; ok {
		c.stopLocked(t)
		delete(c.mathTimers, name)
	}
}

// Pending reports whether name has a debounce timer waiting to fire
func (c *Coordinator) Pending(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, text := c.textTimers[name]
	_, math := c.mathTimers[name]
	return text || math
}

func (c *Coordinator) schedule(ref TextRef, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if p, ok := c.textTimers[ref.Name]; ok {
		// an edit that lost the race to the store must not replace a newer timer
		if p.ref.Generation > ref.Generation {
			return
		}
		c.stopLocked(p.timer)
	}
	c.acquireLocked()
	p := &pendingFetch{ref: ref}
	p.timer = time.AfterFunc(delay, func() {
		defer c.release()
		c.mu.Lock()
		if c.textTimers[ref.Name] == p {
			delete(c.textTimers, ref.Name)
		}
		c.mu.Unlock()
		c.run(ref)
	})
	c.textTimers[ref.Name] = p
}

// start launches the fetch for ref in the background
func (c *Coordinator) start(ref TextRef) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.acquireLocked()
	c.mu.Unlock()

	go func() {
		defer c.release()
		c.run(ref)
	}()
}

func (c *Coordinator) run(ref TextRef) {
	if req, ok := c.prepare(ref); ok {
		c.fetch(ref, req)
	}
}

// prepare checks ref is still current and builds the request; it also handles
// the no-model and empty-text cases that never reach the network.
func (c *Coordinator) prepare(ref TextRef) (models.EmbeddingRequest, bool) {
	entry, err := c.store.TextEmbedding(ref.Name)
	if err != nil || entry.Generation != ref.Generation {
		return models.EmbeddingRequest{}, false
	}

	model := c.Model()
	if model.IsZero() {
		c.notifier.Notify(notify.Error, fmt.Sprintf("cannot embed %s", ref.Name), ErrModelNotSelected)
		return models.EmbeddingRequest{}, false
	}

	if entry.Text == "" {
		_ = c.store.DiscardVector(ref)
		return models.EmbeddingRequest{}, false
	}

	if err := c.store.BeginFetch(ref); err != nil {
		return models.EmbeddingRequest{}, false
	}

	req := models.EmbeddingRequest{Model: model, Text: entry.Text}
	if model.Instruction {
		req.Instruction = entry.Instruction
	}
	return req, true
}

func (c *Coordinator) fetch(ref TextRef, req models.EmbeddingRequest) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.FetchTimeout)
	defer cancel()

	c.metrics.record(ctx, c.metrics.started, req.Model.Name)
	begin := time.Now()
	vector, err := c.fetcher.Embed(ctx, req)
	c.metrics.observe(ctx, req.Model.Name, time.Since(begin))
	if err == nil && len(vector) == 0 {
		err = errors.New("backend returned an empty embedding")
	}

	if err != nil {
		c.metrics.record(ctx, c.metrics.failed, req.Model.Name)
		if ferr := c.store.FailFetch(ref); ferr != nil {
			c.dropped(ctx, ref, req, ferr)
			return
		}
		c.notifier.Notify(notify.Error,
			fmt.Sprintf("embedding %s failed, check the log for details", ref.Name),
			fmt.Errorf("%w: %v", ErrFetchFailed, err))
		return
	}

	if err := c.store.CompleteFetch(ref, vector); err != nil {
		if errors.Is(err, ErrDimensionMismatch) {
			c.metrics.record(ctx, c.metrics.failed, req.Model.Name)
			c.notifier.Notify(notify.Error, fmt.Sprintf("embedding %s rejected", ref.Name), err)
			return
		}
		c.dropped(ctx, ref, req, err)
		return
	}
	c.metrics.record(ctx, c.metrics.succeeded, req.Model.Name)
}

func (c *Coordinator) dropped(ctx context.Context, ref TextRef, req models.EmbeddingRequest, err error) {
	c.metrics.record(ctx, c.metrics.stale, req.Model.Name)
	c.notifier.Notify(notify.Debug, fmt.Sprintf("dropped result for %s", ref.Name), err)
}

// Flush fires every pending timer now and waits until all outstanding fetches
// have settled or ctx is done. Text entries not reached before ctx ends are
// handed back to their timers to fire immediately.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	// slots of stopped timers carry over to the work run below
	var texts []TextRef
	for name, p := range c.textTimers {
		if p.timer.Stop() {
			texts = append(texts, p.ref)
		}
		delete(c.textTimers, name)
	}
	var maths []string
	for name, t := range c.mathTimers {
		if t.Stop() {
			maths = append(maths, name)
		}
		delete(c.mathTimers, name)
	}
	c.mu.Unlock()

	for _, name := range maths {
		_ = c.store.UpdateMathEmbedding(name)
		c.release()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flushParallelism)
	for _, ref := range texts {
		g.Go(func() error {
			defer c.release()
			if gctx.Err() != nil {
				c.schedule(ref, 0)
				return gctx.Err()
			}
			c.run(ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops all timers, cancels in-flight fetches and waits for them to return
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	for name, p := range c.textTimers {
		c.stopLocked(p.timer)
		delete(c.textTimers, name)
	}
	for name, t := range c.mathTimers {
		c.stopLocked(t)
		delete(c.mathTimers, name)
	}
	idle := c.idle
	c.mu.Unlock()

	c.cancel()
	<-idle
}
