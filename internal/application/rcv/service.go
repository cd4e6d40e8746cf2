package rcv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"tho/simplercv/internal/core/invoice"
	"tho/simplercv/internal/core/rcv"
	"tho/simplercv/internal/core/synclog"
)

// DefaultLogLimit bounds the sync log listing.
const DefaultLogLimit = 50

// CredentialsSource returns the credentials for one sync. It is called on
// every run so rotated secrets apply without a restart.
type CredentialsSource func() rcv.Credentials

// Locker serializes syncs of the same period. *lock.KeyedMutex satisfies it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
	// Held reports how many callers hold or wait on key.
	Held(key string) int
}

// Request is the input of one sync.
type Request struct {
	Periodo   string `json:"periodo"`
	UserEmail string `json:"userEmail,omitempty"`
}

// BranchResult summarizes one side of the register in the response.
type BranchResult struct {
	Total        int      `json:"total"`
	Nuevas       int      `json:"nuevas"`
	Actualizadas int      `json:"actualizadas"`
	Errores      []string `json:"errores"`
}

// Result is the JSON body of a successful sync.
type Result struct {
	Success     bool         `json:"success"`
	Periodo     string       `json:"periodo"`
	UFUtilizada float64      `json:"uf_utilizada"`
	Emitidas    BranchResult `json:"emitidas"`
	Recibidas   BranchResult `json:"recibidas"`
	Message     string       `json:"message"`
}

// Dependencies wires a Service. Locks is optional.
type Dependencies struct {
	Fetcher     rcv.Fetcher
	Rates       *RateResolver
	Reconciler  *Reconciler
	Audit       *SyncLogger
	Logs        synclog.Repository
	Credentials CredentialsSource
	Locks       Locker
	Logger      *slog.Logger
}

// Service runs the SimpleAPI RCV sync: resolve UF, fetch the register,
// reconcile emitidas then recibidas, and log each non-empty half.
type Service struct {
	fetcher     rcv.Fetcher
	rates       *RateResolver
	reconciler  *Reconciler
	audit       *SyncLogger
	logs        synclog.Repository
	credentials CredentialsSource
	locks       Locker
	log         *slog.Logger
}

func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case deps.Rates == nil:
		return nil, errors.New("rate resolver is required")
	case deps.Reconciler == nil:
		return nil, errors.New("reconciler is required")
	case deps.Audit == nil:
		return nil, errors.New("sync logger is required")
	case deps.Logs == nil:
		return nil, errors.New("sync log repository is required")
	case deps.Credentials == nil:
		return nil, errors.New("credentials source is required")
	case deps.Logger == nil:
		return nil, errors.New("logger is required")
	}

	return &Service{
		fetcher:     deps.Fetcher,
		rates:       deps.Rates,
		reconciler:  deps.Reconciler,
		audit:       deps.Audit,
		logs:        deps.Logs,
		credentials: deps.Credentials,
		locks:       deps.Locks,
		log:         deps.Logger,
	}, nil
}

// Sync runs one sync. The period is validated before any I/O; errors
// wrapping rcv.ErrInvalidPeriod are client errors. A SimpleAPI failure
// aborts the run before anything is written.
func (s *Service) Sync(ctx context.Context, req Request) (*Result, error) {
	period, err := rcv.ParsePeriod(req.Periodo)
	if err != nil {
		return nil, err
	}
	periodo := period.String()

	if s.locks != nil {
		if n := s.locks.Held(periodo); n > 0 {
			s.log.InfoContext(ctx, "Waiting for a running sync of the same period",
				"periodo", periodo, "en_curso", n)
		}
		unlock, err := s.locks.Lock(ctx, periodo)
		if err != nil {
			return nil, fmt.Errorf("esperando otra sincronización de %s: %w", periodo, err)
		}
		defer unlock()
	}

	s.log.InfoContext(ctx, "Sync started", "periodo", periodo, "usuario", req.UserEmail)

	lookup := s.rates.Resolve(ctx)

	docs, err := s.fetcher.FetchDocuments(ctx, period, s.credentials())
	if err != nil {
		s.log.ErrorContext(ctx, "SimpleAPI fetch failed", "periodo", periodo, "error", err)
		return nil, err
	}

	emitidas := s.reconcileBranch(ctx, invoice.Emitidas, docs.Ventas, lookup.Value, periodo, req.UserEmail)
	recibidas := s.reconcileBranch(ctx, invoice.Recibidas, docs.Compras, lookup.Value, periodo, req.UserEmail)

	result := &Result{
		Success:     true,
		Periodo:     periodo,
		UFUtilizada: lookup.Value.InexactFloat64(),
		Emitidas:    emitidas,
		Recibidas:   recibidas,
		Message: fmt.Sprintf("Sincronización completada: %d facturas emitidas y %d recibidas procesadas",
			emitidas.Total, recibidas.Total),
	}

	s.log.InfoContext(ctx, "Sync finished",
		"periodo", periodo,
		"uf", lookup.Value.String(),
		"uf_fallback", lookup.Fallback,
		"emitidas_nuevas", emitidas.Nuevas,
		"emitidas_actualizadas", emitidas.Actualizadas,
		"recibidas_nuevas", recibidas.Nuevas,
		"recibidas_actualizadas", recibidas.Actualizadas,
		"errores", len(emitidas.Errores)+len(recibidas.Errores),
	)
	return result, nil
}

// reconcileBranch handles one side. An empty set writes nothing, not even
// a sync log row.
func (s *Service) reconcileBranch(ctx context.Context, d invoice.Descriptor, docs []invoice.RemoteDocument, uf decimal.Decimal, periodo, userEmail string) BranchResult {
	if len(docs) == 0 {
		return BranchResult{Errores: []string{}}
	}

	summary := s.reconciler.Reconcile(ctx, d, docs, uf)
	s.audit.Record(ctx, d.Kind, periodo, summary, userEmail)

	return BranchResult{
		Total:        len(docs),
		Nuevas:       summary.Nuevos,
		Actualizadas: summary.Actualizados,
		Errores:      summary.Errores,
	}
}

// Logs lists sync log entries newest first. An empty periodo lists all.
func (s *Service) Logs(ctx context.Context, periodo string, limit int) ([]synclog.Entry, error) {
	if periodo != "" {
		period, err := rcv.ParsePeriod(periodo)
		if err != nil {
			return nil, err
		}
		periodo = period.String()
	}
	if limit <= 0 || limit > DefaultLogLimit {
		limit = DefaultLogLimit
	}

	entries, err := s.logs.List(ctx, periodo, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	return entries, nil
}
