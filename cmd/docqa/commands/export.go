// ABOUTME: CLI commands to export the active index to a file and import it back
// ABOUTME: The file format follows the extension: .yaml, .yml or .json
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage"
)

// NewExportCmd creates export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the active index to a file",
		Long: `Write the active index, vectors included, to a YAML or JSON file.

The file can be imported on another machine without re-embedding.

Examples:
  docqa export index.yaml
  docqa export backups/index.json`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	return cmd
}

// NewImportCmd creates import command
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an exported index",
		Long: `Load an exported index file and make it the active index.

The imported chunks get the next version number and are persisted to
the configured snapshot backend. Library documents are not changed.

Examples:
  docqa import index.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := storage.FormatForPath(path); err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	snap := a.Engine.Snapshot()
	if snap == nil {
		return fmt.Errorf("no index to export, run 'docqa rebuild' first")
	}

	if err := storage.WriteSnapshotFile(path, snap); err != nil {
		return fmt.Errorf("exporting index: %w", err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported version %d (%d chunks) to %s\n", snap.Version(), snap.Len(), path)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	snap, err := storage.ReadSnapshotFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := a.Engine.Import(cmd.Context(), snap)
	if err != nil {
		if errors.Is(err, models.ErrBuildInProgress) {
			return fmt.Errorf("a rebuild is running, try again shortly")
		}
		return fmt.Errorf("importing index: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d chunks from %d document(s) as version %d\n",
			res.ChunkCount, res.DocumentCount, res.Version)
	}
	return nil
}
