// ABOUTME: install-skill command writes the docqa agent skill definition
// ABOUTME: Supports a custom destination, printing only, and skips unchanged installs

package commands

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

const skillFile = "skill/SKILL.md"

// skillOptions holds install-skill flags
type skillOptions struct {
	yes   bool
	dir   string
	print bool
}

// NewInstallSkillCmd creates the install-skill command
func NewInstallSkillCmd() *cobra.Command {
	opts := &skillOptions{}

	cmd := &cobra.Command{
		Use:   "install-skill",
		Short: "Install Claude Code skill",
		Long: `Install the docqa skill for Claude Code.

The skill teaches an agent to add documents with 'docqa add', rebuild the
index and answer questions with 'docqa ask', citing the returned sources.
It is written to ~/.claude/skills/docqa/SKILL.md unless --dir is given.`,
		Example: `  docqa install-skill
  docqa install-skill --dir ./.claude/skills/docqa --yes
  docqa install-skill --print > SKILL.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return installSkill(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip confirmation prompt")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Destination directory (default ~/.claude/skills/docqa)")
	cmd.Flags().BoolVar(&opts.print, "print", false, "Print the skill definition instead of installing it")
	return cmd
}

// skillDir resolves the destination directory
func skillDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "skills", "docqa"), nil
}

func installSkill(cmd *cobra.Command, opts *skillOptions) error {
	out := cmd.OutOrStdout()

	content, err := skillFS.ReadFile(skillFile)
	if err != nil {
		return fmt.Errorf("failed to read embedded skill: %w", err)
	}
	if opts.print {
		_, err := out.Write(content)
		return err
	}

	dir, err := skillDir(opts.dir)
	if err != nil {
		return err
	}
	skillPath := filepath.Join(dir, "SKILL.md")

	existing, err := os.ReadFile(skillPath)
	switch {
	case err == nil && bytes.Equal(existing, content):
		_, _ = fmt.Fprintf(out, "✓ docqa skill at %s is already up to date\n", skillPath)
		return nil
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("failed to read %s: %w", skillPath, err)
	}

	_, _ = fmt.Fprintln(out, "docqa Skill for Claude Code")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Lets Claude Code:")
	_, _ = fmt.Fprintln(out, "  • Add PDFs and text files to your document library")
	_, _ = fmt.Fprintln(out, "  • Ask questions answered only from those documents")
	_, _ = fmt.Fprintln(out, "  • Cite the source and page behind each answer")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Destination: %s\n", skillPath)
	if existing != nil {
		_, _ = fmt.Fprintln(out, "Note: a different skill file already exists and will be replaced.")
	}
	_, _ = fmt.Fprintln(out)

	if !opts.yes {
		ok, err := confirm(cmd.InOrStdin(), out, "Install the docqa skill? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(out, "Installation cancelled.")
			return nil
		}
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}
	if err := os.WriteFile(skillPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write skill file: %w", err)
	}

	_, _ = fmt.Fprintln(out, "✓ Installed docqa skill successfully!")
	_, _ = fmt.Fprintln(out, "Try asking Claude: \"What does the handbook say about travel expenses?\"")
	return nil
}

// confirm reads a yes/no answer; EOF counts as no
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	_, _ = fmt.Fprint(out, prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
