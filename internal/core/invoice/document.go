package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FlexString accepts a JSON string or number and keeps its textual form.
// SimpleAPI sends folio and tipoDTE as numbers for some tenants and as strings for others.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// RemoteDocument is one entry of detalleVentas or detalleCompras as returned by SimpleAPI.
type RemoteDocument struct {
	Folio        FlexString      `json:"folio"`
	RazonSocial  string          `json:"razonSocial"`
	RutCliente   string          `json:"rutCliente"`
	RutProveedor string          `json:"rutProveedor"`
	TipoDTE      FlexString      `json:"tipoDTE"`
	MontoTotal   decimal.Decimal `json:"montoTotal"`
	FechaEmision string          `json:"fechaEmision"`
	Estado       string          `json:"estado"`

	// Err is set by DecodeDocument when the entry could not be decoded.
	Err error `json:"-"`
}

// DecodeDocument unmarshals a single remote entry. A malformed entry yields a
// document with Err set and, when it is still readable, its folio.
func DecodeDocument(raw json.RawMessage) RemoteDocument {
	var doc RemoteDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		var head struct {
			Folio FlexString `json:"folio"`
		}
		_ = json.Unmarshal(raw, &head)
		return RemoteDocument{
			Folio: head.Folio,
			Err:   fmt.Errorf("documento inválido: %w", err),
		}
	}
	return doc
}

// DecodeDocuments decodes every entry on its own so one bad entry does not
// discard its siblings.
func DecodeDocuments(raws []json.RawMessage) []RemoteDocument {
	docs := make([]RemoteDocument, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, DecodeDocument(raw))
	}
	return docs
}

// Summary is the outcome of reconciling one document set.
type Summary struct {
	Nuevos       int
	Actualizados int
	Errores      []string
}
