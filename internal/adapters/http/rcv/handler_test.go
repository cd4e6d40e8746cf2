package rcv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apprcv "tho/simplercv/internal/application/rcv"
	"tho/simplercv/internal/core/invoice"
	"tho/simplercv/internal/core/rate"
	"tho/simplercv/internal/core/rcv"
	"tho/simplercv/internal/core/synclog"
	ctxutil "tho/simplercv/internal/infrastructure/context"
	"tho/simplercv/internal/testutil"
)

type fixture struct {
	handler  *Handler
	fetcher  *testutil.MockFetcher
	invoices *testutil.InvoiceStore
	logs     *testutil.SyncLogStore
}

func newFixture(t *testing.T, fetcher *testutil.MockFetcher) *fixture {
	t.Helper()
	log := testutil.NewNullLogger()
	invoices := testutil.NewInvoiceStore()
	logs := &testutil.SyncLogStore{}

	svc, err := apprcv.NewService(apprcv.Dependencies{
		Fetcher:     fetcher,
		Rates:       apprcv.NewRateResolver(testutil.FixedRate(38000), rate.DefaultFallback, nil, 0, log),
		Reconciler:  apprcv.NewReconciler(invoices, log),
		Audit:       apprcv.NewSyncLogger(logs, log),
		Logs:        logs,
		Credentials: func() rcv.Credentials { return rcv.Credentials{APIKey: "key"} },
		Logger:      log,
	})
	require.NoError(t, err)

	return &fixture{
		handler:  NewHandler(svc, log),
		fetcher:  fetcher,
		invoices: invoices,
		logs:     logs,
	}
}

func TestHandler_Sync_Success(t *testing.T) {
	f := newFixture(t, testutil.StaticFetcher([]invoice.RemoteDocument{
		{Folio: "100", MontoTotal: decimal.NewFromInt(3_800_000)},
	}, nil))

	req := testutil.CreateRequest(http.MethodPost, "/api/simple-rcv", `{"periodo":"2026-01","userEmail":"jere@tho.cl"}`, nil)
	w := httptest.NewRecorder()
	f.handler.Sync(w, req)

	var result apprcv.Result
	testutil.ReadJSONResponse(t, w, http.StatusOK, &result)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.True(t, result.Success)
	assert.Equal(t, "2026-01", result.Periodo)
	assert.Equal(t, 38000.0, result.UFUtilizada)
	assert.Equal(t, 1, result.Emitidas.Nuevas)
	assert.Equal(t, []string{}, result.Recibidas.Errores)

	entries := f.logs.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].UsuarioEmail)
	assert.Equal(t, "jere@tho.cl", *entries[0].UsuarioEmail)
}

func TestHandler_Sync_EmailFromToken(t *testing.T) {
	f := newFixture(t, testutil.StaticFetcher([]invoice.RemoteDocument{
		{Folio: "1", MontoTotal: decimal.NewFromInt(1000)},
	}, nil))

	req := testutil.CreateRequest(http.MethodPost, "/api/simple-rcv", `{"periodo":"2026-01"}`, nil)
	req = req.WithContext(ctxutil.WithUserEmail(req.Context(), "token@tho.cl"))
	w := httptest.NewRecorder()
	f.handler.Sync(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	entries := f.logs.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].UsuarioEmail)
	assert.Equal(t, "token@tho.cl", *entries[0].UsuarioEmail)
}

func TestHandler_Sync_ClientErrors(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		body         string
		expectedCode int
	}{
		{name: "GET not allowed", method: http.MethodGet, expectedCode: http.StatusMethodNotAllowed},
		{name: "PUT not allowed", method: http.MethodPut, body: `{"periodo":"2026-01"}`, expectedCode: http.StatusMethodNotAllowed},
		{name: "empty body", method: http.MethodPost, expectedCode: http.StatusBadRequest},
		{name: "malformed JSON", method: http.MethodPost, body: `{"periodo":`, expectedCode: http.StatusBadRequest},
		{name: "missing periodo", method: http.MethodPost, body: `{"userEmail":"a@b.cl"}`, expectedCode: http.StatusBadRequest},
		{name: "bad periodo", method: http.MethodPost, body: `{"periodo":"01-2026"}`, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &testutil.MockFetcher{})

			w := httptest.NewRecorder()
			f.handler.Sync(w, testutil.CreateRequest(tt.method, "/api/simple-rcv", tt.body, nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			response := testutil.ReadErrorResponse(t, w)
			assert.NotEmpty(t, response["error"])
			assert.NotContains(t, response, "success")
			assert.Empty(t, f.fetcher.Calls)
		})
	}
}

func TestHandler_Sync_Preflight(t *testing.T) {
	f := newFixture(t, &testutil.MockFetcher{})

	w := httptest.NewRecorder()
	f.handler.Sync(w, httptest.NewRequest(http.MethodOptions, "/api/simple-rcv", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Empty(t, f.fetcher.Calls)
}

func TestHandler_Sync_RemoteFailure(t *testing.T) {
	f := newFixture(t, &testutil.MockFetcher{
		FetchDocumentsFunc: func(context.Context, rcv.Period, rcv.Credentials) (*rcv.Documents, error) {
			return nil, &rcv.RemoteAPIError{StatusCode: 502, Body: "bad gateway"}
		},
	})

	w := httptest.NewRecorder()
	f.handler.Sync(w, testutil.CreateRequest(http.MethodPost, "/api/simple-rcv", `{"periodo":"2026-01"}`, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := testutil.ReadErrorResponse(t, w)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "SimpleAPI error 502: bad gateway", response["error"])
	assert.Equal(t, 0, f.invoices.Inserts)
	assert.Empty(t, f.logs.Entries())
}

func TestHandler_Logs(t *testing.T) {
	f := newFixture(t, &testutil.MockFetcher{})
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, periodo := range []string{"2026-01", "2025-12"} {
		entry := synclog.NewEntry("facturas_emitidas", periodo, i+1, 0, nil, "")
		entry.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.logs.Save(context.Background(), entry))
	}

	tests := []struct {
		name          string
		query         string
		expectedCode  int
		expectedCount int
	}{
		{name: "all periods", query: "", expectedCode: http.StatusOK, expectedCount: 2},
		{name: "one period", query: "?periodo=2026-01", expectedCode: http.StatusOK, expectedCount: 1},
		{name: "with limit", query: "?limit=1", expectedCode: http.StatusOK, expectedCount: 1},
		{name: "unknown period", query: "?periodo=2020-01", expectedCode: http.StatusOK, expectedCount: 0},
		{name: "bad period", query: "?periodo=2026", expectedCode: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=abc", expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			f.handler.Logs(w, httptest.NewRequest(http.MethodGet, "/api/simple-rcv/logs"+tt.query, nil))

			if tt.expectedCode != http.StatusOK {
				assert.Equal(t, tt.expectedCode, w.Code)
				assert.NotEmpty(t, testutil.ReadErrorResponse(t, w)["error"])
				return
			}

			var response LogsResponse
			testutil.ReadJSONResponse(t, w, http.StatusOK, &response)
			assert.NotNil(t, response.Logs)
			assert.Len(t, response.Logs, tt.expectedCount)
		})
	}
}
