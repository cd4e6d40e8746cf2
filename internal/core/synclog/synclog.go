package synclog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusExitoso = "exitoso"
	StatusParcial = "parcial"
)

// Entry is one row of sii_sync_log. Entries are append-only.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	Tipo         string    `json:"tipo"`
	Periodo      string    `json:"periodo"`
	Nuevos       int       `json:"registros_nuevos"`
	Actualizados int       `json:"registros_actualizados"`
	Errores      *string   `json:"errores"`
	Estado       string    `json:"estado"`
	UsuarioEmail *string   `json:"usuario_email"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewEntry builds a log row. Errors are joined with "; " and the status is
// derived only from whether any error is present.
func NewEntry(tipo, periodo string, nuevos, actualizados int, errs []string, userEmail string) Entry {
	entry := Entry{
		ID:           uuid.New(),
		Tipo:         tipo,
		Periodo:      periodo,
		Nuevos:       nuevos,
		Actualizados: actualizados,
		Estado:       StatusExitoso,
		CreatedAt:    time.Now().UTC(),
	}
	if len(errs) > 0 {
		joined := strings.Join(errs, "; ")
		entry.Errores = &joined
		entry.Estado = StatusParcial
	}
	if userEmail != "" {
		entry.UsuarioEmail = &userEmail
	}
	return entry
}

// Repository persists and lists sync log entries.
type Repository interface {
	Save(ctx context.Context, entry Entry) error

	// List returns entries newest first. An empty periodo lists every period.
	List(ctx context.Context, periodo string, limit int) ([]Entry, error)
}
