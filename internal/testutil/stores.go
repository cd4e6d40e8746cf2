package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"tho/simplercv/internal/core/invoice"
	"tho/simplercv/internal/core/rate"
	"tho/simplercv/internal/core/synclog"
)

// InvoiceStore is an in-memory invoice.Repository keyed by (table, folio, origen).
type InvoiceStore struct {
	mu     sync.Mutex
	rows   map[invoice.Kind][]invoice.Row
	nextID int64

	// Hooks run before the default behavior; a non-nil error is returned as is.
	FindErr    func(d invoice.Descriptor, folio string) error
	InsertErr  func(d invoice.Descriptor, row invoice.Row) error
	UpdateErr  func(d invoice.Descriptor, id int64) error
	InsertHook func(d invoice.Descriptor, row invoice.Row)

	Inserts int
	Updates int
}

// NewInvoiceStore creates an empty store.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{rows: make(map[invoice.Kind][]invoice.Row)}
}

func (s *InvoiceStore) FindByFolio(_ context.Context, d invoice.Descriptor, folio, origen string) (*invoice.Row, error) {
	if s.FindErr != nil {
		if err := s.FindErr(d, folio); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows[d.Kind] {
		if row.Folio == folio && row.Origen == origen {
			found := row
			return &found, nil
		}
	}
	return nil, invoice.ErrNotFound
}

func (s *InvoiceStore) UpdateAmounts(_ context.Context, d invoice.Descriptor, id int64, row invoice.Row) error {
	if s.UpdateErr != nil {
		if err := s.UpdateErr(d, id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[d.Kind]
	for i := range rows {
		if rows[i].ID == id {
			rows[i].MontoCLP = row.MontoCLP
			rows[i].MontoUF = row.MontoUF
			rows[i].UltimaSincronizacion = row.UltimaSincronizacion
			s.Updates++
			return nil
		}
	}
	return invoice.ErrNotFound
}

func (s *InvoiceStore) Insert(_ context.Context, d invoice.Descriptor, row invoice.Row) error {
	if s.InsertHook != nil {
		s.InsertHook(d, row)
	}
	if s.InsertErr != nil {
		if err := s.InsertErr(d, row); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	row.ID = s.nextID
	s.rows[d.Kind] = append(s.rows[d.Kind], row)
	s.Inserts++
	return nil
}

// Seed stores a row as if a previous sync had written it and returns its id.
func (s *InvoiceStore) Seed(kind invoice.Kind, row invoice.Row) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	row.ID = s.nextID
	s.rows[kind] = append(s.rows[kind], row)
	return row.ID
}

// Rows returns a copy of the rows stored for kind.
func (s *InvoiceStore) Rows(kind invoice.Kind) []invoice.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]invoice.Row(nil), s.rows[kind]...)
}

// SyncLogStore is an in-memory synclog.Repository.
type SyncLogStore struct {
	mu      sync.Mutex
	entries []synclog.Entry

	SaveErr error
}

func (s *SyncLogStore) Save(_ context.Context, entry synclog.Entry) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *SyncLogStore) List(_ context.Context, periodo string, limit int) ([]synclog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]synclog.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if periodo == "" || entry.Periodo == periodo {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Entries returns a copy of every saved entry in insertion order.
func (s *SyncLogStore) Entries() []synclog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]synclog.Entry(nil), s.entries...)
}

// RateStore is an in-memory rate.Repository.
type RateStore struct {
	mu     sync.Mutex
	values []rate.UF

	Err   error
	Calls int
}

// NewRateStore creates a store holding the given values.
func NewRateStore(values ...rate.UF) *RateStore {
	return &RateStore{values: values}
}

// FixedRate returns a store with a single UF value.
func FixedRate(value int64) *RateStore {
	return NewRateStore(rate.UF{Valor: decimal.NewFromInt(value)})
}

// Latest fails with the context error once ctx is done, like a pgx read.
func (s *RateStore) Latest(ctx context.Context) (rate.UF, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if err := ctx.Err(); err != nil {
		return rate.UF{}, err
	}
	if s.Err != nil {
		return rate.UF{}, s.Err
	}
	if len(s.values) == 0 {
		return rate.UF{}, rate.ErrNoValues
	}
	latest := s.values[0]
	for _, v := range s.values[1:] {
		if v.Fecha.After(latest.Fecha) {
			latest = v
		}
	}
	return latest, nil
}

// ErrStoreUnavailable is a canned datastore failure for tests.
var ErrStoreUnavailable = errors.New("datastore unavailable")
