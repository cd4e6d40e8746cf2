package testutil

import (
	"context"

	"tho/simplercv/internal/core/invoice"
	"tho/simplercv/internal/core/rcv"
)

// MockFetcher is a mock implementation of rcv.Fetcher for testing.
type MockFetcher struct {
	FetchDocumentsFunc func(ctx context.Context, period rcv.Period, creds rcv.Credentials) (*rcv.Documents, error)

	Calls []rcv.Period
}

// FetchDocuments calls the mock function if set, otherwise returns an empty register.
func (m *MockFetcher) FetchDocuments(ctx context.Context, period rcv.Period, creds rcv.Credentials) (*rcv.Documents, error) {
	m.Calls = append(m.Calls, period)
	if m.FetchDocumentsFunc != nil {
		return m.FetchDocumentsFunc(ctx, period, creds)
	}
	return &rcv.Documents{Ventas: []invoice.RemoteDocument{}, Compras: []invoice.RemoteDocument{}}, nil
}

// StaticFetcher returns a fetcher that always answers with the given documents.
func StaticFetcher(ventas, compras []invoice.RemoteDocument) *MockFetcher {
	return &MockFetcher{
		FetchDocumentsFunc: func(context.Context, rcv.Period, rcv.Credentials) (*rcv.Documents, error) {
			return &rcv.Documents{Ventas: ventas, Compras: compras}, nil
		},
	}
}
