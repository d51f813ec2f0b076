// ABOUTME: CLI command to ask a question of the indexed documents
// ABOUTME: Prints the answer followed by the cited sources
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/models"
)

var (
	askDocument string
	askLimit    int
)

// NewAskCmd creates ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your documents",
		Long: `Answer a question using only the indexed documents.

When a chat model is configured the answer is generated from the
retrieved passages. Without one, or when generation fails, the
relevant passages themselves are returned.

Examples:
  docqa ask "What is the refund window?"
  docqa ask --doc 3f2a9c1e-... "Who signs off on expenses?"
  docqa ask --limit 3 --format json "When is payroll run?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askDocument, "doc", "", "Only use passages from this document ID")
	cmd.Flags().IntVar(&askLimit, "limit", 0, "Number of passages to retrieve (default: configured top_k)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askLimit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", askLimit)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	answer, err := a.Engine.Ask(cmd.Context(), args[0], core.AskOptions{
		DocumentScope: askDocument,
		Limit:         askLimit,
	})
	if err != nil {
		if errors.Is(err, models.ErrRetrievalUnavailable) {
			return fmt.Errorf("could not search documents right now: %w", err)
		}
		return err
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), answer)
	}

	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}

func printAnswer(w io.Writer, answer models.AnswerResult) {
	_, _ = fmt.Fprintln(w, answer.AnswerText)
	if len(answer.Sources) == 0 || quiet {
		return
	}

	_, _ = fmt.Fprintf(w, "\nSources:\n")
	for i, src := range answer.Sources {
		_, _ = fmt.Fprintf(w, "  [%d] %s", i+1, src.SourceName)
		if src.PageNumber > 0 {
			_, _ = fmt.Fprintf(w, " p.%d", src.PageNumber)
		}
		_, _ = fmt.Fprintf(w, " (%.3f)\n", src.Score)
	}
	if !answer.Generated {
		_, _ = fmt.Fprintf(w, "\n(no chat model answer; showing matching passages)\n")
	}
}
