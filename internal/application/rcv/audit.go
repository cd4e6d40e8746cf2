package rcv

import (
	"context"
	"log/slog"
	"time"

	"tho/simplercv/internal/core/invoice"
	"tho/simplercv/internal/core/synclog"
)

// SyncLogger writes the sii_sync_log row for one reconciled document set.
type SyncLogger struct {
	repo synclog.Repository
	log  *slog.Logger
}

func NewSyncLogger(repo synclog.Repository, log *slog.Logger) *SyncLogger {
	return &SyncLogger{repo: repo, log: log}
}

const saveTimeout = 10 * time.Second

// Record inserts exactly one entry. The invoices are already written when
// this runs, so a failed insert is logged and the sync still succeeds. The
// insert outlives a cancelled request context so interrupted runs are
// still recorded.
func (l *SyncLogger) Record(ctx context.Context, kind invoice.Kind, periodo string, summary invoice.Summary, userEmail string) {
	entry := synclog.NewEntry(string(kind), periodo, summary.Nuevos, summary.Actualizados, summary.Errores, userEmail)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := l.repo.Save(saveCtx, entry); err != nil {
		l.log.ErrorContext(ctx, "Failed to save sync log",
			"tipo", entry.Tipo,
			"periodo", periodo,
			"estado", entry.Estado,
			"error", err,
		)
	}
}
