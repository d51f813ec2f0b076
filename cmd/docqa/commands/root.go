// ABOUTME: Root cobra command and global flags for the docqa CLI
// ABOUTME: Configures logging before any subcommand builds the engine
package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
██████╗  ██████╗  ██████╗ ██████╗  █████╗
██╔══██╗██╔═══██╗██╔════╝██╔═══██╗██╔══██╗
██║  ██║██║   ██║██║     ██║   ██║███████║
██║  ██║██║   ██║██║     ██║▄▄ ██║██╔══██║
██████╔╝╚██████╔╝╚██████╗╚██████╔╝██║  ██║
╚═════╝  ╚═════╝  ╚═════╝ ╚══▀▀═╝ ╚═╝  ╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Answer questions from your own documents",
		Long: banner + `

docqa indexes PDFs and text files, then answers questions using only
what those documents say, citing the passages it used.

Add documents, rebuild the index, then ask:
  docqa add --file handbook.pdf
  docqa rebuild
  docqa ask "How many vacation days do new hires get?"`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "json", "table":
			default:
				return fmt.Errorf("invalid --format %q (use auto, json or table)", outputFormat)
			}
			configureLogging()
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only show errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json or table")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: $DOCQA_CONFIG)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewAddCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewRemoveCmd())
	cmd.AddCommand(NewRebuildCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewInstallSkillCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// configureLogging must run before components are constructed, since their
// prefixed loggers copy the level at creation
func configureLogging() {
	switch {
	case verbose:
		log.SetLevel(log.DebugLevel)
	case quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}
