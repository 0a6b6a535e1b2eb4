// ABOUTME: Shared wiring from configuration to a loaded playground
// ABOUTME: Builds the provider router, persistence backend and notifier for commands
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/harper/embedding-playground/internal/charm"
	"github.com/harper/embedding-playground/internal/config"
	"github.com/harper/embedding-playground/internal/core"
	"github.com/harper/embedding-playground/internal/llm"
	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/notify"
	"github.com/harper/embedding-playground/internal/storage"
)

// appOptions adjusts how a command's playground is built
type appOptions struct {
	// ephemeral keeps entries in memory instead of the charm store
	ephemeral bool
	// model overrides PLAYGROUND_MODEL when set
	model    string
	notifier notify.Notifier
	// fetcher replaces the configured providers; used by tests
	fetcher core.Fetcher
}

// app is a loaded playground and the model catalog it can switch between
type app struct {
	catalog    []models.ModelConfig
	playground *core.Playground
	usesCharm  bool
}

// newFetcher builds the provider router for cfg, rate limited when configured
func newFetcher(cfg *config.Config) (core.Fetcher, error) {
	backend, err := llm.NewBackendClient(llm.BackendConfig{
		BaseURL:    cfg.BackendURL,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	openaiClient := llm.NewOpenAIClient(llm.ClientConfig{
		APIKey:     cfg.OpenAIKey,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	})
	router := &llm.Router{Backend: backend, OpenAI: openaiClient}
	return llm.NewRateLimited(router, cfg.RequestsPerSecond, 1), nil
}

func charmConfig(cfg *config.Config) *charm.Config {
	return &charm.Config{Host: cfg.CharmHost, DBName: cfg.CharmDBName, AutoSync: cfg.AutoSync}
}

// openApp loads configuration and returns a playground with saved entries restored
func openApp(ctx context.Context, opts appOptions) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	model, err := cfg.SelectedModel(catalog)
	if err != nil {
		return nil, err
	}

	fetcher := opts.fetcher
	if fetcher == nil {
		if fetcher, err = newFetcher(cfg); err != nil {
			return nil, err
		}
	}

	var kv storage.KV
	if opts.ephemeral {
		kv = storage.NewMemoryKV()
	} else {
		client, err := charm.GetClient(charmConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Charm: %w", err)
		}
		kv = client
	}

	notifier := opts.notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}

	pg := core.New(core.Options{
		Fetcher:   fetcher,
		Persister: storage.NewTextEntryStore(kv),
		Notifier:  notifier,
		Model:     model,
		Coordinator: core.CoordinatorConfig{
			TextDebounce: cfg.TextDebounce,
			MathDebounce: cfg.MathDebounce,
			FetchTimeout: cfg.FetchTimeout,
		},
	})
	if err := pg.Load(ctx); err != nil {
		pg.Close()
		if !opts.ephemeral {
			charm.ResetGlobalClient()
		}
		return nil, err
	}

	return &app{catalog: catalog, playground: pg, usesCharm: !opts.ephemeral}, nil
}

// Close stops pending work and closes the charm store
func (a *app) Close() {
	a.playground.Close()
	if a.usesCharm {
		charm.ResetGlobalClient()
	}
}
