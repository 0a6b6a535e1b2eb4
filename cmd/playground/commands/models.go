// ABOUTME: CLI command listing the selectable embedding models
// ABOUTME: Reads the built-in catalog or PLAYGROUND_MODELS_FILE
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/embedding-playground/internal/config"
	"github.com/harper/embedding-playground/internal/llm"
)

var modelsCheck bool

// NewModelsCmd creates the models command
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List selectable embedding models",
		Long: `List the embedding models the playground can use.

The list is built in unless PLAYGROUND_MODELS_FILE names a YAML file:

  models:
    - name: thenlper/gte-large
      label: GTE Large
    - name: text-embedding-3-small
      provider: openai

The selected model (PLAYGROUND_MODEL) is marked with *.
With --check the embedding backend is pinged first.`,
		Args: cobra.NoArgs,
		RunE: runModels,
	}
	cmd.Flags().BoolVar(&modelsCheck, "check", false, "ping PLAYGROUND_BACKEND_URL before listing")
	return cmd
}

func runModels(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	if modelsCheck {
		backend, err := llm.NewBackendClient(llm.BackendConfig{BaseURL: cfg.BackendURL})
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			return fmt.Errorf("backend %s unreachable: %w", cfg.BackendURL, err)
		}
		if !useJSON() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backend %s: ok\n\n", cfg.BackendURL)
		}
	}

	if useJSON() {
		return writeJSON(cmd.OutOrStdout(), catalog)
	}
	printModels(cmd.OutOrStdout(), catalog, cfg.Model)
	return nil
}
