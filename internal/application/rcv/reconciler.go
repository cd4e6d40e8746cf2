package rcv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tho/simplercv/internal/core/invoice"
)

// Reconciler upserts remote documents into one invoice table at a time.
// Emitidas and recibidas share this control flow; the descriptor supplies
// the table, columns and placeholders.
type Reconciler struct {
	repo invoice.Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewReconciler(repo invoice.Repository, log *slog.Logger) *Reconciler {
	return &Reconciler{repo: repo, log: log, now: time.Now}
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeUpdated
)

// Reconcile processes docs sequentially in the order received. A failing
// document adds one entry to Errores and never stops the run. Errores is
// never nil.
func (r *Reconciler) Reconcile(ctx context.Context, d invoice.Descriptor, docs []invoice.RemoteDocument, uf decimal.Decimal) invoice.Summary {
	summary := invoice.Summary{Errores: []string{}}

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			summary.Errores = append(summary.Errores,
				fmt.Sprintf("Sincronización interrumpida tras %d de %d documentos: %v", i, len(docs), err))
			break
		}

		result, err := r.reconcileOne(ctx, d, doc, uf)
		if err != nil {
			summary.Errores = append(summary.Errores, folioError(doc.Folio.String(), err))
			continue
		}
		switch result {
		case outcomeInserted:
			summary.Nuevos++
		case outcomeUpdated:
			summary.Actualizados++
		}
	}

	r.log.InfoContext(ctx, "Reconciliation finished",
		"tabla", d.Table(),
		"documentos", len(docs),
		"nuevos", summary.Nuevos,
		"actualizados", summary.Actualizados,
		"errores", len(summary.Errores),
	)
	return summary
}

func (r *Reconciler) reconcileOne(ctx context.Context, d invoice.Descriptor, doc invoice.RemoteDocument, uf decimal.Decimal) (result outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	row, err := d.MapDocument(doc, uf, r.now())
	if err != nil {
		return 0, err
	}

	existing, err := r.repo.FindByFolio(ctx, d, row.Folio, row.Origen)
	if err != nil && !errors.Is(err, invoice.ErrNotFound) {
		// A failed lookup is treated as "not found"; the unique index
		// rejects the insert if the row does exist.
		r.log.WarnContext(ctx, "Invoice lookup failed, inserting",
			"tabla", d.Table(), "folio", row.Folio, "error", err)
	}

	if err == nil && existing != nil {
		if err := r.repo.UpdateAmounts(ctx, d, existing.ID, row); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}

	if err := r.repo.Insert(ctx, d, row); err != nil {
		return 0, err
	}
	return outcomeInserted, nil
}

func folioError(folio string, err error) string {
	if folio == "" {
		folio = "(sin folio)"
	}
	return fmt.Sprintf("Folio %s: %s", folio, err.Error())
}
