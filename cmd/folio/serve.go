package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/folio/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		Long: `Start the folio server.

Every browser gets its own session, theme and navigation state, kept in
the configured storage backend under its client id. Prometheus metrics
are served at /metrics.

Examples:
  folio serve
  folio serve --port=8080
  folio serve --host=0.0.0.0 --driver=memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags, host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from folio.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from folio.json)")

	return cmd
}

func runServe(ctx context.Context, flags *globalFlags, host string, port int) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srvCfg := server.FromSettings(cfg)
	srvCfg.Logger = logger

	fmt.Println()
	success("Serving %s on http://%s", cfg.Name, cfg.Address())
	info("storage: %s", cfg.Storage.Driver)
	fmt.Println()

	return server.New(store, srvCfg).Run(ctx)
}
