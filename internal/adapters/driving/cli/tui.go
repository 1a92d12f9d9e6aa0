package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for Folio.

The TUI lets you browse chapters, follow a chapter's lineage or full
history, read single versions with their critiques, search versions by
meaning and change settings.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open / Search
  h        - Toggle history in the lineage view
  Tab      - Cycle the stage filter in search
  Esc      - Back
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	requires(tuiCmd, NeedSearch)
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := tui.NewPorts(chapterService, searchService, settingsService)

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
