package main

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	apprcv "tho/simplercv/internal/application/rcv"
	ctxutil "tho/simplercv/internal/infrastructure/context"
)

func newSyncCmd(c *cli) *cobra.Command {
	var req apprcv.Request

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync for a period and print the summary",
		Example: `  simplercv sync --periodo 2026-01
  simplercv sync --periodo 2026-01 --user-email jere@tho.cl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg.Sync.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.cfg.Sync.Timeout)
				defer cancel()
			}
			ctx = ctxutil.WithCorrelationID(ctx, uuid.NewString())

			pool, err := c.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc, _, err := c.buildService(pool)
			if err != nil {
				return err
			}

			result, err := svc.Sync(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&req.Periodo, "periodo", "", "tax month as YYYY-MM")
	cmd.Flags().StringVar(&req.UserEmail, "user-email", "", "email recorded in sii_sync_log")
	_ = cmd.MarkFlagRequired("periodo")
	return cmd
}
