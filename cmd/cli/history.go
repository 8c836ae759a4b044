package main

import (
	"encoding/json"
	"fmt"

	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyClear bool
	historyJSON  bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded conversions")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output entries as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum number of entries to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	deps, err := loadDeps(cmd, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer deps.Close() //nolint:errcheck

	if historyClear {
		if err := deps.Engine.ClearHistory(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		cmd.Println("History cleared.")
		return nil
	}

	entries := deps.Engine.History()
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	if historyJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No conversions yet.")
		return nil
	}

	muted := color.New(color.Faint).SprintFunc()
	decimals := deps.Engine.Preferences().DecimalPlaces
	for _, e := range entries {
		from, to := engine.FormatEntryAmounts(e, deps.Catalog, decimals)
		cmd.Printf("%s  %s %s → %s %s\n",
			muted(e.Timestamp.Local().Format("2006-01-02 15:04:05")),
			from, e.FromCode, to, e.ToCode)
	}
	return nil
}
