// ABOUTME: CLI command to rebuild the search index from the library
// ABOUTME: Prints the new version and any chunks that could not be embedded
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/models"
)

// NewRebuildCmd creates rebuild command
func NewRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the search index",
		Long: `Chunk and embed every document in the library into a new index.

The previous index keeps answering questions until the new one is
complete. Chunks that fail to embed are skipped and reported; the
rebuild only fails when no chunk could be embedded.

Examples:
  docqa rebuild
  docqa rebuild --verbose
  docqa rebuild --format json`,
		Args: cobra.NoArgs,
		RunE: runRebuild,
	}

	return cmd
}

func runRebuild(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := a.Engine.RebuildFromStore(cmd.Context())
	if err != nil {
		if errors.Is(err, models.ErrBuildInProgress) {
			return fmt.Errorf("a rebuild is already running, try again shortly")
		}
		return fmt.Errorf("rebuilding index: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Index version %d: %d chunks from %d document(s) in %s\n",
			res.Version, res.ChunkCount, res.DocumentCount, res.Duration.Round(time.Millisecond))
	}
	if res.WarningCount > 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "⚠ %d chunk(s) skipped\n", res.WarningCount)
		if verbose {
			for _, w := range res.Warnings {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", w.ChunkID, w.Reason)
			}
		}
	}
	return nil
}
