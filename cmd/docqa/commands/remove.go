// ABOUTME: CLI command to remove documents from the library
// ABOUTME: Removed documents leave the index at the next rebuild
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/models"
)

var removeRebuild bool

// NewRemoveCmd creates remove command
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <document-id>...",
		Short: "Remove documents from the library",
		Long: `Remove one or more documents by ID.

Their chunks remain searchable until the index is rebuilt.

Examples:
  docqa remove 3f2a9c1e-...
  docqa remove --rebuild 3f2a9c1e-... 7b41d0aa-...`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRemove,
	}

	cmd.Flags().BoolVar(&removeRebuild, "rebuild", false, "Rebuild the index after removing")

	return cmd
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var missing []string
	for _, id := range args {
		if err := a.Documents().Delete(cmd.Context(), id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				missing = append(missing, id)
				continue
			}
			return fmt.Errorf("removing %s: %w", id, err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", id)
		}
	}

	if removeRebuild && len(missing) < len(args) {
		res, err := a.Engine.RebuildFromStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Index rebuilt: version %d, %d chunks\n", res.Version, res.ChunkCount)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("documents not found: %v", missing)
	}
	return nil
}
