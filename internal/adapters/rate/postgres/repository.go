package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tho/simplercv/internal/core/rate"
	"tho/simplercv/internal/infrastructure/database"
)

// Repository reads uf_valores. The table is fed by another process.
type Repository struct {
	db database.Querier
}

func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// Latest returns the most recent UF entry.
func (r *Repository) Latest(ctx context.Context) (rate.UF, error) {
	query := `
		SELECT fecha, valor
		FROM uf_valores
		ORDER BY fecha DESC
		LIMIT 1
	`

	var uf rate.UF
	err := r.db.QueryRow(ctx, query).Scan(&uf.Fecha, &uf.Valor)
	if errors.Is(err, pgx.ErrNoRows) {
		return rate.UF{}, rate.ErrNoValues
	}
	if err != nil {
		return rate.UF{}, fmt.Errorf("query latest uf: %w", err)
	}
	return uf, nil
}
