// ABOUTME: CLI command to list documents in the library
// ABOUTME: Shows source names, sizes and page counts
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/mcp"
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents in the library",
		Long: `List every document in the library.

Shows each document's source name, size, page count and ID.
Documents added since the last rebuild are listed but not yet searchable.

Examples:
  docqa list
  docqa list --format json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	docs, err := a.Documents().List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	summaries := make([]mcp.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, mcp.Summarize(doc))
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), summaries)
	}

	if len(summaries) == 0 {
		if !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No documents found\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "SOURCE\tCHARS\tPAGES\tADDED\tID\n")
	_, _ = fmt.Fprintf(w, "------\t-----\t-----\t-----\t--\n")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			truncate(s.SourceName, 30),
			s.Chars,
			formatPage(s.Pages),
			formatTime(s.CreatedAt),
			s.DocumentID)
	}
	_ = w.Flush()

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d document(s)\n", len(summaries))
	}
	return nil
}
