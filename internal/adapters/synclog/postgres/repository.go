package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"tho/simplercv/internal/core/synclog"
	"tho/simplercv/internal/infrastructure/database"
)

const defaultListLimit = 50

// Repository implements synclog.Repository on the sii_sync_log table.
type Repository struct {
	db  database.Querier
	log *slog.Logger
}

// NewRepository creates a sync log repository. log may be nil.
func NewRepository(db database.Querier, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Save inserts one entry.
func (r *Repository) Save(ctx context.Context, entry synclog.Entry) error {
	query := `
		INSERT INTO sii_sync_log (
			id, tipo, periodo, registros_nuevos, registros_actualizados,
			errores, estado, usuario_email, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.Tipo,
		entry.Periodo,
		entry.Nuevos,
		entry.Actualizados,
		entry.Errores,
		entry.Estado,
		entry.UsuarioEmail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}

	if r.log != nil {
		r.log.DebugContext(ctx, "Sync log saved",
			"id", entry.ID,
			"tipo", entry.Tipo,
			"periodo", entry.Periodo,
			"estado", entry.Estado,
		)
	}
	return nil
}

// List returns entries newest first, optionally filtered by periodo.
func (r *Repository) List(ctx context.Context, periodo string, limit int) ([]synclog.Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, tipo, periodo, registros_nuevos, registros_actualizados,
		       errores, estado, usuario_email, created_at
		FROM sii_sync_log
		WHERE ($1 = '' OR periodo = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, periodo, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync logs: %w", err)
	}
	defer rows.Close()

	entries := make([]synclog.Entry, 0)
	for rows.Next() {
		var entry synclog.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.Tipo,
			&entry.Periodo,
			&entry.Nuevos,
			&entry.Actualizados,
			&entry.Errores,
			&entry.Estado,
			&entry.UsuarioEmail,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}
