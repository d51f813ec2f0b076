// ABOUTME: Sync commands for the Charm snapshot backend
// ABOUTME: Provides status, now, wipe, and keys management
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/charm"
	"github.com/harper/docqa/internal/config"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization of the index with Charm cloud.

With snapshot_backend set to charm, every rebuilt index is stored in
Charm KV and synced through your SSH keys. Other machines linked to the
same Charm account restore it on startup without re-embedding.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// openCharm connects to Charm using the configured host and database
func openCharm() (*charm.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := charm.NewClient(&charm.Config{
		Host:   cfg.CharmHost,
		DBName: cfg.CharmDBName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, cfg, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and the stored index version",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			out := cmd.OutOrStdout()
			id, err := client.ID()
			if err != nil {
				_, _ = fmt.Fprintln(out, "Status: Not connected")
				_, _ = fmt.Fprintln(out, "Run 'docqa sync keys' to check your SSH keys")
				return nil
			}

			_, _ = fmt.Fprintln(out, "Status: Connected")
			_, _ = fmt.Fprintf(out, "User ID: %s\n", id)
			_, _ = fmt.Fprintf(out, "Host: %s\n", client.Host())
			_, _ = fmt.Fprintf(out, "Database: %s\n", cfg.CharmDBName)
			if cfg.SnapshotBackend != config.BackendCharm {
				_, _ = fmt.Fprintf(out, "Note: snapshot_backend is %q, rebuilds are not stored in Charm\n", cfg.SnapshotBackend)
			}

			info, err := charm.NewSnapshotStore(client, 0).Info()
			if err != nil {
				return fmt.Errorf("reading stored index: %w", err)
			}
			if info == nil {
				_, _ = fmt.Fprintln(out, "Stored index: none")
				return nil
			}
			_, _ = fmt.Fprintf(out, "Stored index: version %d, %d chunks, built %s\n",
				info.Version, info.ChunkCount, formatTime(info.BuiltAt))
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local Charm cache",
		Long: `Completely wipe the locally cached Charm data.

The document library in SQLite is not touched. Your cloud data
remains intact and will be re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local Charm data!")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Local data wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			keys, err := client.GetAuthorizedKeys()
			if err != nil {
				return fmt.Errorf("failed to get authorized keys: %w", err)
			}

			if keys == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No authorized keys found")
				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Authorized SSH keys:")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), keys)

			return nil
		},
	}
}
