// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-converter/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP service",
	Long: `Serve starts the HTTP service. It exposes an upload page at /, the
conversion endpoints /convert, /convert-pdf-to-pptx and /convert-pptx-to-pdf,
a health check at /health, recent conversions at /conversions and
Prometheus metrics at /metrics.

The listen port comes from server.port, DECK_CONVERTER_SERVER_PORT or PORT.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if h, _ := cmd.Flags().GetString("host"); h != "" {
		cfg.Server.Host = h
	}
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		cfg.Server.Port = p
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := server.Options{
		Config:    cfg.Server,
		Converter: a.dispatcher,
		Log:       log,
	}
	if a.history != nil {
		opts.History = a.history
	}
	if a.metrics != nil {
		opts.Metrics = a.metrics.Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}

	return server.New(opts).Run(ctx)
}
