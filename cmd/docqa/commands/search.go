// ABOUTME: CLI command to search the index without generating an answer
// ABOUTME: Lists ranked passages with their scores and sources
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/core"
)

var (
	searchLimit    int
	searchDocument string
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed passages",
		Long: `Rank indexed passages by similarity to a query.

Unlike ask, search never calls the chat model. Use it to check what
ask would retrieve.

Examples:
  docqa search "parental leave"
  docqa search --limit 10 "security policy"
  docqa search --format json "expense limits"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")
	cmd.Flags().StringVar(&searchDocument, "doc", "", "Only search this document ID")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Validate limit flag
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	query := args[0]

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	results, err := a.Engine.Search(cmd.Context(), query, core.AskOptions{
		DocumentScope: searchDocument,
		Limit:         searchLimit,
	})
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), results)
	}

	if len(results) == 0 {
		if !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No passages found for query: %s\n", query)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "RANK\tSCORE\tSOURCE\tPAGE\tSNIPPET\n")
	_, _ = fmt.Fprintf(w, "----\t-----\t------\t----\t-------\n")
	for i, result := range results {
		_, _ = fmt.Fprintf(w, "%d\t%.3f\t%s\t%s\t%s\n",
			i+1,
			result.Score,
			truncate(result.SourceName, 25),
			formatPage(result.PageNumber),
			truncate(oneLine(result.Snippet), 60))
	}
	_ = w.Flush()

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(results))
	}
	return nil
}

// oneLine collapses whitespace runs so snippets fit a table row
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
