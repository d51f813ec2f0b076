// ABOUTME: CLI command to show index and library status
// ABOUTME: Reports the active snapshot alongside where data is stored
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/models"
)

// StatusReport is the combined index and storage status
type StatusReport struct {
	Index            models.IndexStatus `json:"index"`
	LibraryDocuments int                `json:"library_documents"`
	SnapshotBackend  string             `json:"snapshot_backend"`
	DBPath           string             `json:"db_path"`
	Embedder         string             `json:"embedder"`
}

// NewStatusCmd creates status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		Long: `Show the active index version and where documents are stored.

When the library holds documents that the index does not, run
'docqa rebuild'.

Examples:
  docqa status
  docqa status --format json`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	count, err := a.Documents().Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting documents: %w", err)
	}

	report := StatusReport{
		Index:            a.Engine.Status(),
		LibraryDocuments: count,
		SnapshotBackend:  a.Backend.Name,
		DBPath:           a.Backend.Store.Path(),
		Embedder:         a.Config.Embedder,
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), report)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Library:    %d document(s)\n", report.LibraryDocuments)
	_, _ = fmt.Fprintf(out, "Database:   %s\n", report.DBPath)
	_, _ = fmt.Fprintf(out, "Snapshots:  %s\n", report.SnapshotBackend)
	_, _ = fmt.Fprintf(out, "Embedder:   %s\n", report.Embedder)

	idx := report.Index
	if !idx.HasActiveSnapshot {
		_, _ = fmt.Fprintf(out, "Index:      none (run 'docqa rebuild')\n")
		return nil
	}
	_, _ = fmt.Fprintf(out, "Index:      version %d, %d chunks from %d document(s), dimension %d\n",
		idx.Version, idx.ChunkCount, idx.DocumentCount, idx.Dimension)
	_, _ = fmt.Fprintf(out, "Built:      %s\n", formatTime(idx.BuiltAt))
	if idx.Building {
		_, _ = fmt.Fprintf(out, "Rebuild:    in progress\n")
	}
	return nil
}
