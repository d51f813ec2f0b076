// ABOUTME: Tests for sync, export, import and watch commands
// ABOUTME: Verifies data management command structure

package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Use == name || strings.HasPrefix(sub.Use, name+" ") {
			return sub
		}
	}
	return nil
}

func TestNewSyncCmd(t *testing.T) {
	cmd := NewSyncCmd()

	if cmd.Use != "sync" {
		t.Errorf("Use = %q, want %q", cmd.Use, "sync")
	}

	if !strings.Contains(cmd.Long, "Charm") {
		t.Error("Long description should mention Charm")
	}
}

func TestSyncCmd_Subcommands(t *testing.T) {
	cmd := NewSyncCmd()

	for _, name := range []string{"status", "now", "wipe", "keys"} {
		t.Run(name, func(t *testing.T) {
			sub := findSubcommand(cmd, name)
			if sub == nil {
				t.Fatalf("Subcommand %q not found", name)
			}
			if sub.Short == "" {
				t.Errorf("%s Short description should not be empty", name)
			}
			if sub.RunE == nil {
				t.Errorf("%s RunE should be set", name)
			}
		})
	}

	if findSubcommand(cmd, "repair") != nil {
		t.Error("repair subcommand should not exist")
	}
}

func TestSyncWipe_RequiresConfirm(t *testing.T) {
	cmd := NewSyncCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"wipe"})

	// Without --confirm nothing connects to Charm
	if err := cmd.Execute(); err != nil {
		t.Fatalf("wipe without --confirm error = %v", err)
	}
	if !strings.Contains(output.String(), "--confirm") {
		t.Errorf("output = %q, want a --confirm hint", output.String())
	}
}

func TestNewExportImportCmds(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		use  string
		long string
	}{
		{NewExportCmd(), "export <file>", ".yaml"},
		{NewImportCmd(), "import <file>", "next version"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			if tt.cmd.Use != tt.use {
				t.Errorf("Use = %q, want %q", tt.cmd.Use, tt.use)
			}
			if !strings.Contains(tt.cmd.Long, tt.long) {
				t.Errorf("Long description should mention %q", tt.long)
			}
			if err := tt.cmd.Args(tt.cmd, []string{}); err == nil {
				t.Error("a file argument should be required")
			}
		})
	}
}

func TestExportCmd_RejectsUnknownExtension(t *testing.T) {
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"export", "index.xml"})

	if err := cmd.Execute(); err == nil {
		t.Error("export to .xml should fail before opening storage")
	}
}

func TestNewWatchCmd(t *testing.T) {
	cmd := NewWatchCmd()

	if cmd.Use != "watch <dir>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "watch <dir>")
	}

	tests := []struct {
		flagName string
		defValue string
	}{
		{"debounce", "2s"},
		{"initial", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}
