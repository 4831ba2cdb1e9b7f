package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal interface.

The ask view takes questions about the active manual; the manuals view
lists ingested manuals and switches between them. The status bar shows
the active manual and the progress of any ingest running elsewhere.

Controls:
  tab      - Switch between ask and manuals
  enter    - Ask / use the selected manual
  ctrl+s   - Show or hide retrieved sections
  ↑/↓      - Scroll the answer or move in the list
  r        - Refresh the manual list
  ctrl+c   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	restoreActive(cmd)

	app, err := tui.NewApp(&tui.Ports{
		QA:      qaService,
		Manuals: manualService,
		Ingest:  ingestService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
