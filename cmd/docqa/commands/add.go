// ABOUTME: CLI command to add documents to the library
// ABOUTME: Reads inline text, a PDF or text file, or stdin
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/extract"
	"github.com/harper/docqa/internal/mcp"
	"github.com/harper/docqa/internal/models"
)

var (
	addFile    string
	addName    string
	addRebuild bool
)

// NewAddCmd creates add command
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a document to the library",
		Long: `Add a document from text, a file, or stdin.

PDFs are extracted page by page so answers can cite page numbers.
New documents become searchable after the next rebuild.

Examples:
  docqa add "The office is closed on public holidays."
  docqa add --file handbook.pdf
  docqa add --name notes.txt --rebuild < notes.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAdd,
	}

	cmd.Flags().StringVar(&addFile, "file", "", "Read the document from a file (.pdf or text)")
	cmd.Flags().StringVar(&addName, "name", "", "Source name used in citations")
	cmd.Flags().BoolVar(&addRebuild, "rebuild", false, "Rebuild the index after adding")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.Documents().Save(cmd.Context(), &doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	result := map[string]interface{}{"document": mcp.Summarize(doc)}
	if addRebuild {
		res, err := a.Engine.RebuildFromStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
		result["rebuild"] = res
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s (%s)\n", doc.SourceName, doc.DocumentID)
		if rebuild, ok := result["rebuild"].(models.RebuildResult); ok {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Index rebuilt: version %d, %d chunks\n", rebuild.Version, rebuild.ChunkCount)
		} else {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'docqa rebuild' to make it searchable")
		}
	}
	return nil
}

// readDocument builds a document from --file, the text argument, or stdin
func readDocument(stdin io.Reader, args []string) (models.Document, error) {
	if addFile != "" {
		doc, err := extract.FromFile(addFile)
		if err != nil {
			return models.Document{}, fmt.Errorf("reading file: %w", err)
		}
		if addName != "" {
			doc.SourceName = addName
		}
		if strings.TrimSpace(doc.FullText) == "" {
			return models.Document{}, fmt.Errorf("no text found in %s", addFile)
		}
		return doc, nil
	}

	var text string
	if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return models.Document{}, fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return models.Document{}, fmt.Errorf("no text provided")
	}

	name := addName
	if name == "" {
		name = "untitled"
	}
	return extract.FromText(name, text), nil
}
