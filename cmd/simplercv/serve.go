package main

import (
	"net/http"

	"github.com/spf13/cobra"

	healthhttp "tho/simplercv/internal/adapters/http/health"
	rcvhttp "tho/simplercv/internal/adapters/http/rcv"
	apphealth "tho/simplercv/internal/application/health"
	"tho/simplercv/internal/infrastructure/database"
	"tho/simplercv/internal/infrastructure/http/middleware"
	"tho/simplercv/internal/infrastructure/http/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := c.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if migrate {
				if err := database.RunMigrations(ctx, pool, c.log); err != nil {
					return err
				}
			}

			svc, breaker, err := c.buildService(pool)
			if err != nil {
				return err
			}

			auth, err := middleware.NewJWTAuthenticator(c.cfg.Auth, c.log)
			if err != nil {
				return err
			}

			health := apphealth.NewService(apphealth.Metadata{
				Service:     c.cfg.App.Name,
				Version:     c.cfg.App.Version,
				Environment: c.cfg.App.Environment,
			}).WithDependency("postgres", pool)
			if breaker != nil {
				health.WithDependency("simpleapi", breaker)
			}

			healthHandler := healthhttp.NewHandler(health, c.log)
			rcvHandler := rcvhttp.NewHandler(svc, c.log)

			srv, err := server.New(server.Options{
				Config:        c.cfg,
				Logger:        c.log,
				HealthHandler: http.HandlerFunc(healthHandler.Status),
				SyncHandler:   http.HandlerFunc(rcvHandler.Sync),
				LogsHandler:   http.HandlerFunc(rcvHandler.Logs),
				Authenticator: auth,
			})
			if err != nil {
				auth.Close()
				return err
			}
			defer srv.Close()

			c.log.Info("Service configured",
				"simpleapi", c.cfg.SimpleAPI.BaseURL,
				"auth_enabled", c.cfg.Auth.Enabled,
				"sync_timeout", c.cfg.Sync.Timeout,
			)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the embedded migrations before serving")
	return cmd
}
