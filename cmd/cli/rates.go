package main

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var ratesRefresh bool

var ratesCmd = &cobra.Command{
	Use:   "rates [CODE...]",
	Short: "Show exchange rates against the base currency",
	RunE:  runRates,
}

func init() {
	ratesCmd.Flags().BoolVar(&ratesRefresh, "refresh", false, "ignore cached rates and fetch a fresh table")
	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, args []string) error {
	deps, err := loadDeps(cmd, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer deps.Close() //nolint:errcheck

	eng := deps.Engine
	fetch := eng.Rates
	if ratesRefresh {
		fetch = eng.RefreshRates
	}
	table, err := fetch(cmd.Context())
	if err != nil {
		return errors.New(engine.Message(err))
	}

	header := color.New(color.Bold).SprintFunc()
	cmd.Printf("%s %s (%d currencies, %s)\n",
		header("Base"), table.Base, table.Len(), table.FetchedAt.Local().Format(time.DateTime))
	if table.Provider != "" {
		cmd.Printf("%s %s\n", header("Provider"), table.Provider)
	}

	codes := args
	if len(codes) == 0 {
		codes = slices.Sorted(maps.Keys(table.Rates))
	}
	for _, code := range codes {
		rate, ok := table.Rate(code)
		if !ok {
			cmd.Printf("%-4s %s\n", code, color.RedString("not available"))
			continue
		}
		cmd.Printf("%-4s %s\n", code, engine.FormatRate(rate))
	}
	return nil
}
