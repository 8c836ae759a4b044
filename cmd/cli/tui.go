package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/amirasaad/fxconvert/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNotTerminal = errors.New("tui requires an interactive terminal")

// isTerminal reports whether f is attached to a terminal.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive converter",
	Long: `Launch the interactive terminal converter.

Controls:
  tab / shift+tab - Move between amount, source and target
  ↑ / ↓, enter    - Pick a currency
  ctrl+s          - Swap currencies
  ctrl+r          - Refresh rates
  ctrl+t          - Toggle history
  esc / ctrl+c    - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errNotTerminal
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in TUI: %v\n%s", r, debug.Stack())
		}
	}()

	// Log output would corrupt the alternate screen.
	deps, err := loadDeps(cmd, io.Discard, false)
	if err != nil {
		return err
	}
	defer deps.Close() //nolint:errcheck

	return tui.Run(cmd.Context(), deps.Engine)
}
