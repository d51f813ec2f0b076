// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Opens the configured app and formats output for list, ask and status
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harper/docqa/internal/app"
	"github.com/harper/docqa/internal/config"
	"github.com/joho/godotenv"
)

// loadConfig reads .env, then the config file from --config or $DOCQA_CONFIG
func loadConfig() (*config.Config, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path = os.Getenv("DOCQA_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openApp wires storage and the engine from configuration
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing docqa: %w", err)
	}
	return a, nil
}

// wantJSON reports whether --format asks for JSON output
func wantJSON() bool {
	return outputFormat == "json"
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", jsonData)
	return err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}

// formatPage renders a page number, blank when unknown
func formatPage(page int) string {
	if page <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", page)
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
