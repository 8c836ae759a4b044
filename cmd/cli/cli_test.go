package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/amirasaad/fxconvert/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	envFile = ".env"
	offline = false
	verbose = false
	convertJSON = false
	currenciesSearch = ""
	currenciesPopular = false
	historyClear = false
	historyJSON = false
	historyLimit = 0
	ratesRefresh = false
}

// setupEnv points the CLI at offline rates and a throwaway SQLite file.
func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("RATE_SOURCE_PROVIDER", "static")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_SQLITE_PATH", filepath.Join(dir, "fx.db"))
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"convert", "currencies", "history", "rates", "serve", "tui", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fxconvert version test-version-1.0.0")
}

func TestCurrenciesCmd(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		out, err := executeCommand(t, "currencies")
		require.NoError(t, err)
		assert.Contains(t, out, "USD")
		assert.Contains(t, out, "ARS")
	})

	t.Run("popular", func(t *testing.T) {
		out, err := executeCommand(t, "currencies", "--popular")
		require.NoError(t, err)
		assert.Contains(t, out, "PLN")
		assert.NotContains(t, out, "ARS")
	})

	t.Run("search", func(t *testing.T) {
		out, err := executeCommand(t, "currencies", "--search", "pln")
		require.NoError(t, err)
		assert.Contains(t, out, "PLN")
		assert.NotContains(t, out, "USD")
	})

	t.Run("no match", func(t *testing.T) {
		out, err := executeCommand(t, "currencies", "-s", "nothing-like-this")
		require.NoError(t, err)
		assert.Contains(t, out, "No currencies found.")
	})
}

func TestConvertCmd(t *testing.T) {
	setupEnv(t)

	out, err := executeCommand(t, "convert", "100", "usd", "EUR")
	require.NoError(t, err)
	assert.Contains(t, out, "100.00 USD = 92.17 EUR")
	assert.Contains(t, out, "1 USD = 0.921659 EUR")

	out, err = executeCommand(t, "convert", "10", "EUR", "PLN", "--json")
	require.NoError(t, err)
	var res engine.ConversionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "EUR", res.From.Code)
	assert.Equal(t, "PLN", res.To.Code)
	assert.InDelta(t, 43.1, res.ToAmount, 1e-9)
}

func TestConvertCmd_Errors(t *testing.T) {
	setupEnv(t)

	testCases := []struct {
		desc    string
		args    []string
		wantErr string
	}{
		{desc: "not a number", args: []string{"convert", "abc", "USD", "EUR"}, wantErr: engine.ReasonNotANum},
		{desc: "zero", args: []string{"convert", "0", "USD", "EUR"}, wantErr: engine.ReasonNotPos},
		{desc: "too large", args: []string{"convert", "2000000000", "USD", "EUR"}, wantErr: engine.ReasonTooLarge},
		{desc: "unknown currency", args: []string{"convert", "1", "XYZ", "EUR"}, wantErr: "XYZ"},
		{desc: "missing args", args: []string{"convert", "1", "USD"}, wantErr: "accepts 3 arg(s)"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := executeCommand(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConvertCmd_UnknownCurrencyIsTyped(t *testing.T) {
	setupEnv(t)

	_, err := executeCommand(t, "convert", "1", "USD", "XYZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidCurrencyCode))
}

func TestHistoryCmd(t *testing.T) {
	setupEnv(t)

	out, err := executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversions yet.")

	_, err = executeCommand(t, "convert", "100", "USD", "EUR")
	require.NoError(t, err)
	_, err = executeCommand(t, "convert", "5", "EUR", "JPY")
	require.NoError(t, err)

	out, err = executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "100.00 USD → 92.17 EUR")
	assert.Contains(t, out, "5.00 EUR → 812 JPY")

	out, err = executeCommand(t, "history", "--json", "-n", "1")
	require.NoError(t, err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "JPY", entries[0].ToCode)

	out, err = executeCommand(t, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared.")

	out, err = executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversions yet.")
}

func TestRatesCmd(t *testing.T) {
	setupEnv(t)

	out, err := executeCommand(t, "rates", "USD", "PLN", "XAU")
	require.NoError(t, err)
	assert.Contains(t, out, "Base EUR")
	assert.Contains(t, out, "Provider static")
	assert.Contains(t, out, "USD  1.085000")
	assert.Contains(t, out, "PLN  4.310000")
	assert.Contains(t, out, "XAU  not available")

	out, err = executeCommand(t, "rates", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "JPY  162.400")
}

func TestOfflineFlag(t *testing.T) {
	setupEnv(t)
	t.Setenv("RATE_SOURCE_PROVIDER", "exchangeratesapi")
	t.Setenv("RATE_SOURCE_API_URL", "http://127.0.0.1:1")

	out, err := executeCommand(t, "--offline", "rates", "USD")
	require.NoError(t, err)
	assert.Contains(t, out, "Provider static")
}

func TestTUICmd_RequiresTerminal(t *testing.T) {
	original := isTerminal
	isTerminal = func(*os.File) bool { return false }
	defer func() { isTerminal = original }()

	_, err := executeCommand(t, "tui")
	assert.ErrorIs(t, err, errNotTerminal)
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("ENGINE_BASE_CURRENCY", "nope")

	_, err := executeCommand(t, "rates")
	assert.ErrorContains(t, err, "failed to load application configuration")
}
