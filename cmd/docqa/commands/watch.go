// ABOUTME: CLI command to keep the library in sync with a directory
// ABOUTME: Ingests new and changed files and rebuilds the index as they settle
package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/watch"
)

var (
	watchDebounce time.Duration
	watchInitial  bool
)

// NewWatchCmd creates watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and index its files",
		Long: `Watch a directory for PDF and text files.

Created or modified files are added to the library, deleted files are
removed, and the index is rebuilt once changes stop arriving for the
debounce interval. Subdirectories are not watched.

Examples:
  docqa watch ~/Documents/policies
  docqa watch --debounce 10s --initial=false ./docs`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before rebuilding")
	cmd.Flags().BoolVar(&watchInitial, "initial", true, "Ingest existing files before watching")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchDebounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", watchDebounce)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	w, err := watch.New(args[0], a.Documents(), a.Engine.RebuildFromStore, watchDebounce)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	w.OnRebuild = func(res models.RebuildResult) {
		if !quiet {
			_, _ = fmt.Fprintf(out, "✓ Index version %d: %d chunks from %d document(s)\n",
				res.Version, res.ChunkCount, res.DocumentCount)
		}
	}

	if watchInitial {
		if err := initialIngest(ctx, w); err != nil {
			return err
		}
	}

	if !quiet {
		_, _ = fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", w.Dir())
	}
	return w.Run(ctx)
}

func initialIngest(ctx context.Context, w *watch.Watcher) error {
	n, err := w.Scan()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("initial rebuild: %w", err)
	}
	return nil
}
