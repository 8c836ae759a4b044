package main

import (
	"github.com/amirasaad/fxconvert/webapi"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API on SERVER_HOST:SERVER_PORT.

Prometheus metrics are exposed on /metrics. The server shuts down
gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	deps, err := loadDeps(cmd, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer deps.Close() //nolint:errcheck

	cfg := deps.Config
	app := webapi.NewApp(deps.Engine, deps.Registry, cfg.RateLimit)
	return webapi.Serve(cmd.Context(), app, cfg.Server.Addr(), deps.Logger)
}
