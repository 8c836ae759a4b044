package main

import (
	"text/tabwriter"

	currencyfixtures "github.com/amirasaad/fxconvert/internal/fixtures/currency"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	currenciesSearch  string
	currenciesPopular bool
)

var currenciesCmd = &cobra.Command{
	Use:     "currencies",
	Aliases: []string{"ls"},
	Short:   "List supported currencies",
	Args:    cobra.NoArgs,
	RunE:    runCurrencies,
}

func init() {
	currenciesCmd.Flags().StringVarP(&currenciesSearch, "search", "s", "", "filter by code or name")
	currenciesCmd.Flags().BoolVarP(&currenciesPopular, "popular", "p", false, "show popular currencies only")
	rootCmd.AddCommand(currenciesCmd)
}

func runCurrencies(cmd *cobra.Command, _ []string) error {
	catalog, err := currencyfixtures.LoadCatalog("")
	if err != nil {
		return err
	}

	var list []currency.Currency
	switch {
	case currenciesSearch != "":
		list = catalog.Search(currenciesSearch)
	case currenciesPopular:
		list = catalog.Popular()
	default:
		list = catalog.All()
	}

	if len(list) == 0 {
		cmd.Println("No currencies found.")
		return nil
	}

	code := color.New(color.Bold).SprintFunc()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, c := range list {
		_, _ = w.Write([]byte(c.Flag + " " + code(c.Code) + "\t" + c.Name + "\t" + c.Symbol + "\n"))
	}
	return w.Flush()
}
