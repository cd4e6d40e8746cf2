package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"tho/simplercv/internal/core/invoice"
	"tho/simplercv/internal/infrastructure/database"
)

const dateLayout = "2006-01-02"

// ErrDuplicateFolio is returned when another writer inserted the same
// (folio, origen) between lookup and insert.
var ErrDuplicateFolio = errors.New("folio ya registrado para este origen")

// Repository implements invoice.Repository for facturas_emitidas and
// facturas_recibidas. Column names come from the descriptor, so only the
// two known kinds are accepted.
type Repository struct {
	db database.Querier
}

// NewRepository creates an invoice repository over db.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// FindByFolio looks a row up by its natural key.
func (r *Repository) FindByFolio(ctx context.Context, d invoice.Descriptor, folio, origen string) (*invoice.Row, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, folio, %s, %s, fecha_emision, monto_clp, monto_uf,
		       estado, origen, tipo_documento, ultima_sincronizacion
		FROM %s
		WHERE folio = $1 AND origen = $2
		LIMIT 1
	`, d.CounterpartyNameColumn, d.CounterpartyRUTColumn, d.Table())

	var (
		row      invoice.Row
		rut      *string
		fecha    *time.Time
		montoUF  decimal.NullDecimal
		tipo     *string
		syncedAt *time.Time
	)
	err := r.db.QueryRow(ctx, query, folio, origen).Scan(
		&row.ID,
		&row.Folio,
		&row.CounterpartyName,
		&rut,
		&fecha,
		&row.MontoCLP,
		&montoUF,
		&row.Estado,
		&row.Origen,
		&tipo,
		&syncedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, invoice.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s folio %s: %w", d.Table(), folio, err)
	}

	if rut != nil {
		row.CounterpartyRUT = *rut
	}
	if fecha != nil {
		date := fecha.Format(dateLayout)
		row.FechaEmision = &date
	}
	if montoUF.Valid {
		row.MontoUF = montoUF.Decimal
	}
	if tipo != nil {
		row.TipoDocumento = *tipo
	}
	if syncedAt != nil {
		row.UltimaSincronizacion = *syncedAt
	}
	row.Categoria = d.Category

	return &row, nil
}

// UpdateAmounts refreshes the amounts and sync timestamp of an existing
// row. Every other column keeps its stored value.
func (r *Repository) UpdateAmounts(ctx context.Context, d invoice.Descriptor, id int64, row invoice.Row) error {
	if err := validate(d); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET monto_clp = $1, monto_uf = $2, ultima_sincronizacion = $3
		WHERE id = $4
	`, d.Table())

	tag, err := r.db.Exec(ctx, query, row.MontoCLP, row.MontoUF, row.UltimaSincronizacion, id)
	if err != nil {
		return fmt.Errorf("update %s id %d: %w", d.Table(), id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s id %d: %w", d.Table(), id, invoice.ErrNotFound)
	}
	return nil
}

// Insert writes a new row. categoria is only set for descriptors that
// carry one.
func (r *Repository) Insert(ctx context.Context, d invoice.Descriptor, row invoice.Row) error {
	if err := validate(d); err != nil {
		return err
	}

	fecha, err := parseDate(row.FechaEmision)
	if err != nil {
		return err
	}

	columns := fmt.Sprintf("folio, %s, %s, fecha_emision, monto_clp, monto_uf, estado, origen, tipo_documento, ultima_sincronizacion",
		d.CounterpartyNameColumn, d.CounterpartyRUTColumn)
	placeholders := "$1, $2, $3, $4, $5, $6, $7, $8, $9, $10"
	args := []any{
		row.Folio,
		row.CounterpartyName,
		row.CounterpartyRUT,
		fecha,
		row.MontoCLP,
		row.MontoUF,
		row.Estado,
		row.Origen,
		row.TipoDocumento,
		row.UltimaSincronizacion,
	}
	if d.Category != "" {
		columns += ", categoria"
		placeholders += ", $11"
		args = append(args, row.Categoria)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.Table(), columns, placeholders)
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateFolio
		}
		return err
	}
	return nil
}

// validate guards the identifiers interpolated into SQL: only the shipped
// descriptors are accepted.
func validate(d invoice.Descriptor) error {
	var known invoice.Descriptor
	switch d.Kind {
	case invoice.KindEmitidas:
		known = invoice.Emitidas
	case invoice.KindRecibidas:
		known = invoice.Recibidas
	default:
		return fmt.Errorf("unknown invoice table %q", d.Kind)
	}
	if d.CounterpartyNameColumn != known.CounterpartyNameColumn || d.CounterpartyRUTColumn != known.CounterpartyRUTColumn {
		return fmt.Errorf("unexpected counterparty columns for %s", d.Kind)
	}
	return nil
}

// parseDate turns the YYYY-MM-DD issue date into a DATE parameter.
func parseDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, fmt.Errorf("fecha_emision inválida %q", *value)
	}
	return &parsed, nil
}
