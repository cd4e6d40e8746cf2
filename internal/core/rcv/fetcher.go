package rcv

import (
	"context"
	"fmt"

	"tho/simplercv/internal/core/invoice"
)

// Credentials authenticate against SimpleAPI and, through it, the SII.
// They are read from configuration on every sync and never persisted.
type Credentials struct {
	RutUsuario  string
	PasswordSII string
	RutEmpresa  string
	APIKey      string
}

// Documents holds the raw register for one period.
type Documents struct {
	Ventas  []invoice.RemoteDocument
	Compras []invoice.RemoteDocument
}

// Fetcher retrieves the RCV register for a period.
type Fetcher interface {
	FetchDocuments(ctx context.Context, period Period, creds Credentials) (*Documents, error)
}

// RemoteAPIError is returned when SimpleAPI answers with a non-success status.
type RemoteAPIError struct {
	StatusCode int
	Body       string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("SimpleAPI error %d: %s", e.StatusCode, e.Body)
}
