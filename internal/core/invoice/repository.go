package invoice

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no row matches (folio, origen).
var ErrNotFound = errors.New("factura no encontrada")

// Repository persists invoice rows in the table selected by the descriptor.
type Repository interface {
	// FindByFolio returns ErrNotFound when the natural key is absent.
	FindByFolio(ctx context.Context, d Descriptor, folio, origen string) (*Row, error)
	// UpdateAmounts writes only monto_clp, monto_uf and ultima_sincronizacion.
	UpdateAmounts(ctx context.Context, d Descriptor, id int64, row Row) error
	Insert(ctx context.Context, d Descriptor, row Row) error
}
