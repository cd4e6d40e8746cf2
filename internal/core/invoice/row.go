package invoice

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Origin tags every row written by the SimpleAPI integration.
const Origin = "simpleapi_rcv"

// Kind identifies an invoice table. Its value is also the sync log type.
type Kind string

const (
	KindEmitidas  Kind = "facturas_emitidas"
	KindRecibidas Kind = "facturas_recibidas"
)

// Descriptor parametrizes the reconciler for one side of the register.
type Descriptor struct {
	Kind                   Kind
	CounterpartyNameColumn string
	CounterpartyRUTColumn  string
	PlaceholderName        string
	PlaceholderStatus      string
	// Category is written only when non-empty.
	Category        string
	CounterpartyRUT func(RemoteDocument) string
}

// Emitidas maps sales (detalleVentas) into facturas_emitidas.
var Emitidas = Descriptor{
	Kind:                   KindEmitidas,
	CounterpartyNameColumn: "cliente_nombre",
	CounterpartyRUTColumn:  "cliente_rut",
	PlaceholderName:        "Cliente sin nombre",
	PlaceholderStatus:      "emitida",
	CounterpartyRUT:        func(d RemoteDocument) string { return d.RutCliente },
}

// Recibidas maps purchases (detalleCompras) into facturas_recibidas.
var Recibidas = Descriptor{
	Kind:                   KindRecibidas,
	CounterpartyNameColumn: "proveedor_nombre",
	CounterpartyRUTColumn:  "proveedor_rut",
	PlaceholderName:        "Proveedor sin nombre",
	PlaceholderStatus:      "recibida",
	Category:               "compras_sii",
	CounterpartyRUT:        func(d RemoteDocument) string { return d.RutProveedor },
}

// Table returns the datastore table for the descriptor.
func (d Descriptor) Table() string {
	return string(d.Kind)
}

var (
	ErrMissingFolio   = errors.New("folio ausente")
	ErrInvalidUFValue = errors.New("valor UF inválido")
)

// Row is the persisted shape of an invoice in either table.
type Row struct {
	ID                   int64
	Folio                string
	CounterpartyName     string
	CounterpartyRUT      string
	FechaEmision         *string
	MontoCLP             int64
	MontoUF              decimal.Decimal
	Estado               string
	Origen               string
	TipoDocumento        string
	Categoria            string
	UltimaSincronizacion time.Time
}

// MapDocument converts a remote document into a row ready to insert.
// A missing fechaEmision yields a nil date, not an error.
func (d Descriptor) MapDocument(doc RemoteDocument, uf decimal.Decimal, now time.Time) (Row, error) {
	if doc.Err != nil {
		return Row{}, doc.Err
	}
	folio := strings.TrimSpace(doc.Folio.String())
	if folio == "" {
		return Row{}, ErrMissingFolio
	}
	montoUF, err := ToUF(doc.MontoTotal, uf)
	if err != nil {
		return Row{}, err
	}

	name := doc.RazonSocial
	if name == "" {
		name = d.PlaceholderName
	}
	estado := doc.Estado
	if estado == "" {
		estado = d.PlaceholderStatus
	}
	var rut string
	if d.CounterpartyRUT != nil {
		rut = d.CounterpartyRUT(doc)
	}

	return Row{
		Folio:                folio,
		CounterpartyName:     name,
		CounterpartyRUT:      rut,
		FechaEmision:         IssueDate(doc.FechaEmision),
		MontoCLP:             doc.MontoTotal.Round(0).IntPart(),
		MontoUF:              montoUF,
		Estado:               estado,
		Origen:               Origin,
		TipoDocumento:        doc.TipoDTE.String(),
		Categoria:            d.Category,
		UltimaSincronizacion: now,
	}, nil
}

// ToUF converts a CLP amount to UF rounded to two decimals.
func ToUF(total, uf decimal.Decimal) (decimal.Decimal, error) {
	if !uf.IsPositive() {
		return decimal.Zero, ErrInvalidUFValue
	}
	return total.Div(uf).Round(2), nil
}

// IssueDate truncates an ISO 8601 timestamp to its date part.
func IssueDate(timestamp string) *string {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return nil
	}
	date, _, _ := strings.Cut(timestamp, "T")
	return &date
}
