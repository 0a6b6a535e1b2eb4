// ABOUTME: Root command and global flags for the playground CLI
// ABOUTME: Wires subcommands and maps verbosity flags onto the notifier level
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harper/embedding-playground/internal/notify"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
███████ ███    ███ ██████  ███████ ██████
██      ████  ████ ██   ██ ██      ██   ██
█████   ██ ████ ██ ██████  █████   ██   ██
██      ██  ██  ██ ██   ██ ██      ██   ██
███████ ██      ██ ██████  ███████ ██████
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playground",
		Short: "Compare text embeddings and embedding arithmetic",
		Long: banner + `
Embedding playground: type texts, embed them with a selectable model,
combine vectors with expressions like "a0 - a1 + a2", and compare
everything through a cosine similarity matrix and a 2D PCA projection.

Text entries are named a0, a1, ... and math entries b0, b1, ...`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "table", "json":
			default:
				return fmt.Errorf("unknown --format %q (want auto, table or json)", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only show errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewConsoleCmd())
	cmd.AddCommand(NewEmbedCmd())
	cmd.AddCommand(NewModelsCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// notifyLevel maps the global verbosity flags to a minimum severity
func notifyLevel() notify.Severity {
	switch {
	case verbose:
		return notify.Debug
	case quiet:
		return notify.Error
	}
	return notify.Info
}

func newNotifier(w io.Writer) *notify.LogNotifier {
	return notify.NewLogNotifier(w, notifyLevel())
}

// useJSON reports whether output should be JSON. "auto" means table.
func useJSON() bool {
	return outputFormat == "json"
}
