package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"tho/simplercv/internal/infrastructure/config"
	"tho/simplercv/internal/infrastructure/logger"
)

// cli carries what every subcommand needs once the root has loaded it.
type cli struct {
	cfg config.AppConfig
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "simplercv",
		Short: "Sync the SII RCV register from SimpleAPI into PostgreSQL",
		Long: `simplercv fetches the sales and purchase register for a tax month from
SimpleAPI and reconciles it into facturas_emitidas and facturas_recibidas,
logging every run in sii_sync_log.

Configuration is read from the environment and from an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)
			return nil
		},
	}

	root.AddCommand(newServeCmd(c), newSyncCmd(c), newMigrateCmd(c))
	return root
}
