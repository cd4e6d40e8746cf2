package rate

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoValues is returned when uf_valores is empty.
var ErrNoValues = errors.New("no hay valores UF registrados")

// DefaultFallback is used when no UF value can be read.
var DefaultFallback = decimal.NewFromInt(38000)

// UF is one entry of the reference-rate series.
type UF struct {
	Fecha time.Time
	Valor decimal.Decimal
}

// Repository reads the UF series maintained outside this service.
type Repository interface {
	// Latest returns the entry with the most recent date, or ErrNoValues.
	Latest(ctx context.Context) (UF, error)
}

// Lookup is the outcome of resolving the UF for a sync run.
// When Fallback is true, Value is the configured default and Reason says why.
type Lookup struct {
	Value    decimal.Decimal
	Date     time.Time
	Fallback bool
	Reason   error
}
