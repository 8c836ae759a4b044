package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var convertJSON bool

var convertCmd = &cobra.Command{
	Use:   "convert AMOUNT FROM TO",
	Short: "Convert an amount between two currencies",
	Example: `  fxconvert convert 100 USD EUR
  fxconvert convert 2500 pln jpy --json`,
	Args: cobra.ExactArgs(3),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if v := engine.ValidateAmount(args[0]); !v.Valid {
		return fmt.Errorf("invalid amount %q: %s", args[0], v.Reason)
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}

	deps, err := loadDeps(cmd, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer deps.Close() //nolint:errcheck

	eng := deps.Engine
	from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])
	if err := eng.SetFromCurrency(from); err != nil {
		return fmt.Errorf("%s: %w", from, err)
	}
	if err := eng.SetToCurrency(to); err != nil {
		return fmt.Errorf("%s: %w", to, err)
	}

	res, err := eng.ConvertNow(cmd.Context(), amount)
	if err != nil {
		if errors.Is(err, engine.ErrClosed) {
			return err
		}
		return errors.New(engine.Message(err))
	}

	if convertJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	result := color.New(color.FgGreen, color.Bold).SprintFunc()
	muted := color.New(color.Faint).SprintFunc()
	cmd.Printf("%s %s = %s\n",
		engine.FormatAmount(res.FromAmount, res.From.Decimals), res.From.Code,
		result(engine.FormatAmount(res.ToAmount, res.To.Decimals)+" "+res.To.Code))
	cmd.Println(muted(fmt.Sprintf("1 %s = %s %s", res.From.Code, engine.FormatRate(res.Rate), res.To.Code)))
	return nil
}
