// ABOUTME: Tests for the install-skill command
// ABOUTME: Covers destinations, confirmation answers, unchanged installs and --print

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runInstallSkill executes install-skill with HOME pointed at home
func runInstallSkill(t *testing.T, home, stdin string, args ...string) string {
	t.Helper()
	t.Setenv("HOME", home)

	cmd := NewInstallSkillCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("install-skill %v error = %v", args, err)
	}
	return output.String()
}

func embeddedSkill(t *testing.T) []byte {
	t.Helper()
	content, err := skillFS.ReadFile(skillFile)
	if err != nil {
		t.Fatalf("failed to read embedded skill: %v", err)
	}
	return content
}

func TestInstallSkill_DefaultDestination(t *testing.T) {
	home := t.TempDir()
	out := runInstallSkill(t, home, "", "--yes")

	skillPath := filepath.Join(home, ".claude", "skills", "docqa", "SKILL.md")
	content, err := os.ReadFile(skillPath)
	if err != nil {
		t.Fatalf("skill not installed at %s: %v", skillPath, err)
	}
	if !bytes.Equal(content, embeddedSkill(t)) {
		t.Error("installed SKILL.md differs from the embedded definition")
	}
	if !strings.Contains(out, "Destination: "+skillPath) || !strings.Contains(out, "Installed docqa skill") {
		t.Errorf("output = %q", out)
	}

	info, err := os.Stat(skillPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("mode = %o, want 600", mode)
	}
}

func TestInstallSkill_CustomDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project", "skills")
	runInstallSkill(t, t.TempDir(), "", "--dir", dir, "-y")

	if _, err := os.Stat(filepath.Join(dir, "SKILL.md")); err != nil {
		t.Errorf("skill not written to --dir: %v", err)
	}
}

func TestInstallSkill_Confirmation(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		installed bool
	}{
		{"yes", "y\n", true},
		{"full yes", "YES\n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"closed stdin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := runInstallSkill(t, t.TempDir(), tt.answer, "--dir", dir)

			_, err := os.Stat(filepath.Join(dir, "SKILL.md"))
			if installed := err == nil; installed != tt.installed {
				t.Errorf("installed = %v, want %v", installed, tt.installed)
			}
			if !tt.installed && !strings.Contains(out, "Installation cancelled") {
				t.Errorf("output should report cancellation, got: %s", out)
			}
		})
	}
}

func TestInstallSkill_ReplacesStaleAndSkipsCurrent(t *testing.T) {
	dir := t.TempDir()
	skillPath := filepath.Join(dir, "SKILL.md")
	if err := os.WriteFile(skillPath, []byte("# stale skill\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := runInstallSkill(t, t.TempDir(), "", "--dir", dir, "-y")
	if !strings.Contains(out, "already exists and will be replaced") {
		t.Errorf("output should mention the replaced file, got: %s", out)
	}
	content, _ := os.ReadFile(skillPath)
	if !bytes.Equal(content, embeddedSkill(t)) {
		t.Error("stale SKILL.md was not replaced")
	}

	// A second run needs no confirmation: nothing changes.
	out = runInstallSkill(t, t.TempDir(), "", "--dir", dir)
	if !strings.Contains(out, "already up to date") {
		t.Errorf("output = %q, want up to date notice", out)
	}
}

func TestInstallSkill_Print(t *testing.T) {
	dir := t.TempDir()
	out := runInstallSkill(t, t.TempDir(), "", "--print", "--dir", dir)

	if out != string(embeddedSkill(t)) {
		t.Errorf("--print output differs from the embedded skill")
	}
	if _, err := os.Stat(filepath.Join(dir, "SKILL.md")); !os.IsNotExist(err) {
		t.Errorf("--print should not install, stat err = %v", err)
	}
}

func TestSkillFS_Frontmatter(t *testing.T) {
	content := string(embeddedSkill(t))
	if !strings.HasPrefix(content, "---\nname: docqa\n") {
		t.Error("embedded skill should start with docqa frontmatter")
	}
	for _, want := range []string{"docqa ask", "docqa add --file", "no_evidence"} {
		if !strings.Contains(content, want) {
			t.Errorf("SKILL.md should mention %q", want)
		}
	}
}
