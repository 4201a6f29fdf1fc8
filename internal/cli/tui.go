package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/config"
	"github.com/yildizm/NgramLens/internal/ui"
)

func newTUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui <file> <file> [file...]",
		Short: "Explore an analysis interactively",
		Long: `Analyze the documents and open the interactive terminal UI.

The file panel toggles which files take part in common mode; mode, sort and
include-all-common changes re-query the service immediately. Word clouds,
exports and highlights are available from the keyboard.

Examples:
  ngramlens tui a.txt b.txt
  ngramlens tui --min-n 2 --lang en a.txt b.txt c.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyAnalyzeFlags(cmd, cfg); err != nil {
				return err
			}
			return runInteractive(cfg, args)
		},
	}

	addAnalysisFlags(cmd)
	return cmd
}

// runInteractive starts the TUI with the orchestrator reporting through it
func runInteractive(cfg *config.Config, paths []string) error {
	bridge := ui.NewBridge()
	sess, err := newInteractiveSession(cfg, bridge)
	if err != nil {
		return err
	}

	return ui.Run(sess.orch, bridge, ui.Options{
		Documents: func() ([]client.Document, error) {
			return readDocuments(paths)
		},
		MinN:            cfg.Analysis.MinN,
		MaxN:            cfg.Analysis.MaxN,
		ExportFormat:    cfg.Output.ExportFormat,
		HighlightFormat: cfg.Output.HighlightFormat,
		Color:           useColor(cfg),
		Theme:           cfg.Output.Theme,
	})
}

// newInteractiveSession builds a session that never writes log lines; the
// alt screen owns the terminal and failures reach the user as notices
func newInteractiveSession(cfg *config.Config, bridge *ui.Bridge) (*session, error) {
	return newSession(cfg, bridge, io.Discard)
}
