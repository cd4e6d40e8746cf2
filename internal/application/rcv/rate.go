package rcv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"tho/simplercv/internal/core/rate"
)

// rateReadTimeout bounds the shared UF read.
const rateReadTimeout = 5 * time.Second

// RateCache holds a recently read UF. *cache.RateCache satisfies it.
type RateCache interface {
	Get() (rate.UF, bool)
	Set(uf rate.UF, ttl time.Duration)
}

// RateResolver picks the UF used to convert amounts for one sync run.
// It never fails: a missing or unusable value yields the fallback.
type RateResolver struct {
	repo     rate.Repository
	fallback decimal.Decimal
	cache    RateCache
	ttl      time.Duration
	group    singleflight.Group
	log      *slog.Logger
}

// NewRateResolver creates a resolver. cache may be nil.
func NewRateResolver(repo rate.Repository, fallback decimal.Decimal, cache RateCache, ttl time.Duration, log *slog.Logger) *RateResolver {
	if !fallback.IsPositive() {
		fallback = rate.DefaultFallback
	}
	return &RateResolver{
		repo:     repo,
		fallback: fallback,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

// Resolve returns the latest UF, or the fallback with the reason attached.
// Concurrent callers share one datastore read, which is detached from the
// cancellation of whichever caller started it.
func (r *RateResolver) Resolve(ctx context.Context) rate.Lookup {
	if r.cache != nil {
		if uf, ok := r.cache.Get(); ok {
			return rate.Lookup{Value: uf.Valor, Date: uf.Fecha}
		}
	}

	v, err, _ := r.group.Do("latest", func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rateReadTimeout)
		defer cancel()
		return r.repo.Latest(readCtx)
	})
	if err != nil {
		return r.fallbackLookup(ctx, err)
	}

	uf := v.(rate.UF)
	if !uf.Valor.IsPositive() {
		return r.fallbackLookup(ctx, fmt.Errorf("valor UF no positivo %s del %s", uf.Valor, uf.Fecha.Format("2006-01-02")))
	}

	if r.cache != nil {
		r.cache.Set(uf, r.ttl)
	}
	return rate.Lookup{Value: uf.Valor, Date: uf.Fecha}
}

func (r *RateResolver) fallbackLookup(ctx context.Context, reason error) rate.Lookup {
	r.log.WarnContext(ctx, "Using fallback UF value", "uf", r.fallback.String(), "reason", reason)
	return rate.Lookup{Value: r.fallback, Fallback: true, Reason: reason}
}
