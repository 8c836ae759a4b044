// Command fxconvert converts amounts between currencies from the terminal,
// an interactive TUI or an HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/amirasaad/fxconvert/infra/initializer"
	"github.com/amirasaad/fxconvert/pkg/config"
	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	envFile string
	offline bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "fxconvert",
	Short: "Convert amounts between currencies",
	Long: `fxconvert converts amounts between currencies using live exchange rates.

Rates are fetched against a single base currency and cached for a short
window. Conversions are recorded in a local history.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use built-in reference rates instead of the network")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured level instead of warnings only")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadDeps loads configuration and wires the engine, sending logs to w.
// Quiet commands log warnings only unless --verbose is set.
func loadDeps(cmd *cobra.Command, w io.Writer, quiet bool) (*initializer.Deps, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load application configuration: %w", err)
	}
	if offline {
		cfg.RateSource.Provider = config.ProviderStatic
	}
	if quiet && !verbose && cfg.Log.Level < int(log.WarnLevel) {
		cfg.Log.Level = int(log.WarnLevel)
	}

	deps, err := initializer.InitializeDependencies(cmd.Context(), cfg, initializer.WithLogWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	return deps, nil
}
