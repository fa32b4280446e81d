package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nulllvoid/labordash/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dash, counters, err := setup()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger.Info("starting dashboard",
				zap.String("addr", cfg.Addr),
				zap.String("data_dir", cfg.DataDir),
				zap.Duration("session_ttl", cfg.SessionTTL),
			)
			srv := web.NewServer(dash, web.WithLogger(logger), web.WithStats(counters))
			return srv.ListenAndServe(cmd.Context(), cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
