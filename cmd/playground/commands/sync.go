// ABOUTME: Sync commands for Charm cloud synchronization
// ABOUTME: Provides status, immediate sync, clearing saved entries and a local wipe
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/embedding-playground/internal/charm"
	"github.com/harper/embedding-playground/internal/config"
	"github.com/harper/embedding-playground/internal/storage"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization with Charm cloud.

The playground saves its text entries (name, instruction and text) to a
local Charm KV store that syncs across devices linked to the same Charm
account. Vectors are never saved; they are refetched on load.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncClearCmd())
	cmd.AddCommand(newSyncWipeCmd())

	return cmd
}

func openCharm() (*charm.Client, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	client, err := charm.GetClient(charmConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer charm.ResetGlobalClient()

			out := cmd.OutOrStdout()
			cfg := client.Config()

			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintf(out, "Host: %s\n", cfg.Host)
				return nil
			}

			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Host: %s\n", cfg.Host)
			fmt.Fprintf(out, "Database: %s\n", cfg.DBName)
			fmt.Fprintf(out, "Auto sync: %v\n", cfg.AutoSync)

			entries, err := storage.NewTextEntryStore(client).LoadTextEmbeddings(context.Background())
			if err != nil {
				fmt.Fprintf(out, "Saved entries: unreadable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "Saved entries: %d\n", len(entries))

			if keys, err := client.ListKeys(charm.KeyPrefix); err == nil {
				fmt.Fprintf(out, "Playground keys: %d\n", len(keys))
			}
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer charm.ResetGlobalClient()

			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			}
			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			return nil
		},
	}
}

func newSyncClearCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved text entries",
		Long: `Delete the saved text entries from the Charm store.

The deletion syncs to other devices. The next console session starts
with a single empty entry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will delete all saved text entries!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			client, err := openCharm()
			if err != nil {
				return err
			}
			defer charm.ResetGlobalClient()

			if err := storage.NewTextEntryStore(client).Clear(); err != nil {
				return fmt.Errorf("failed to clear entries: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved entries cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the deletion")

	return cmd
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe all local data (nuclear option)",
		Long: `Completely wipe all local Charm data.

WARNING: This deletes all locally cached data. Your cloud data
remains intact and will be re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local data!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			client, err := openCharm()
			if err != nil {
				return err
			}
			defer charm.ResetGlobalClient()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Local data wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}
