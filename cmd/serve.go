package cmd

import (
	"context"
	"time"

	"chesswager/api"
	"chesswager/worker"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background wager poller",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log.Infof("Starting chesswager in %s mode...", cfg.Environment)

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.close(shutdownCtx)
			log.Info("Shutdown completed")
		}()

		if cfg.Poller.Enabled {
			poller := worker.NewPoller(a.audit, a.resolution, cfg.Poller)
			if err := poller.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := poller.Stop(); err != nil {
					log.WithError(err).Warn("Error stopping poller")
				}
			}()
		}

		server := api.NewServer(api.Dependencies{
			Resolution: a.resolution,
			Settlement: a.settlement,
			Audit:      a.audit,
			Health:     a.health,
		})
		return server.Run(ctx, cfg.HTTPAddr)
	},
}
