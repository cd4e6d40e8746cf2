package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	invoicepg "tho/simplercv/internal/adapters/invoice/postgres"
	ratepg "tho/simplercv/internal/adapters/rate/postgres"
	"tho/simplercv/internal/adapters/rcv/simpleapi"
	synclogpg "tho/simplercv/internal/adapters/synclog/postgres"
	apprcv "tho/simplercv/internal/application/rcv"
	"tho/simplercv/internal/infrastructure/cache"
	"tho/simplercv/internal/infrastructure/config"
	"tho/simplercv/internal/infrastructure/database"
	httpinfra "tho/simplercv/internal/infrastructure/http"
	"tho/simplercv/internal/infrastructure/lock"
)

func (c *cli) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, c.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	return pool, nil
}

// buildService wires the sync use case over the pool. The breaker is nil
// when it is disabled.
func (c *cli) buildService(pool *pgxpool.Pool) (*apprcv.Service, *simpleapi.Breaker, error) {
	traced := httpinfra.NewTracedClient(httpinfra.TracedClientConfig{
		Timeout:     c.cfg.SimpleAPI.Timeout,
		Operation:   "rcv_documents",
		LogBodies:   c.cfg.SimpleAPI.LogBodies,
		MaxBodySize: c.cfg.SimpleAPI.MaxBodySize,
	}, c.log, "simpleapi")

	var opts []simpleapi.Option
	if limiter := newLimiter(c.cfg.SimpleAPI); limiter != nil {
		opts = append(opts, simpleapi.WithLimiter(limiter))
	}
	var breaker *simpleapi.Breaker
	if c.cfg.SimpleAPI.BreakerFailures > 0 {
		breaker = simpleapi.NewBreaker(c.cfg.SimpleAPI.BreakerFailures, c.cfg.SimpleAPI.BreakerCooldown)
		opts = append(opts, simpleapi.WithBreaker(breaker))
	}
	fetcher := simpleapi.NewClient(c.cfg.SimpleAPI.BaseURL, traced, c.log, opts...)

	logs := synclogpg.NewRepository(pool, c.log)

	svc, err := apprcv.NewService(apprcv.Dependencies{
		Fetcher: fetcher,
		Rates: apprcv.NewRateResolver(ratepg.NewRepository(pool), c.cfg.Sync.UFFallback,
			cache.NewRateCache(), c.cfg.Sync.RateCacheTTL, c.log),
		Reconciler:  apprcv.NewReconciler(invoicepg.NewRepository(pool), c.log),
		Audit:       apprcv.NewSyncLogger(logs, c.log),
		Logs:        logs,
		Credentials: config.LoadCredentials,
		Locks:       lock.NewKeyedMutex(),
		Logger:      c.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, breaker, nil
}

// newLimiter allows one request every minute/n with no burst. It returns
// nil when throttling is off.
func newLimiter(cfg config.SimpleAPISettings) *rate.Limiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
}
