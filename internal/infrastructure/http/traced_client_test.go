package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctxutil "tho/simplercv/internal/infrastructure/context"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestTracedClientDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", r.Header.Get("X-Correlation-ID"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "PasswordSII")

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ventas":{"detalleVentas":[]}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := NewTracedClient(TracedClientConfig{
		Timeout:   5 * time.Second,
		Operation: "rcv_documents",
		LogBodies: true,
	}, newBufferLogger(&buf), "simpleapi")

	ctx := ctxutil.WithCorrelationID(context.Background(), "req-123")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/api/RCV/ventas/01/2026",
		strings.NewReader(`{"RutUsuario":"12345678-9","PasswordSII":"hunter2"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "secret-api-key")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "detalleVentas", "response body must stay readable")

	logs := buf.String()
	assert.Contains(t, logs, "provider_request")
	assert.Contains(t, logs, "provider_response")
	assert.Contains(t, logs, `"operation":"rcv_documents"`)
	assert.NotContains(t, logs, "hunter2")
	assert.NotContains(t, logs, "secret-api-key")
}

func TestTracedClientDo_LogsWarnOnClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid api key"))
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := NewTracedClient(TracedClientConfig{Timeout: time.Second}, newBufferLogger(&buf), "simpleapi")

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.NotContains(t, buf.String(), "invalid api key", "bodies are not logged unless enabled")
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTracedClientDo_TransportError(t *testing.T) {
	var buf bytes.Buffer
	client := NewTracedClient(TracedClientConfig{Transport: failingTransport{}}, newBufferLogger(&buf), "simpleapi")

	req, _ := http.NewRequest(http.MethodPost, "http://simpleapi.invalid/api", strings.NewReader("{}"))
	resp, err := client.Do(req)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, buf.String(), "provider_request_failed")
}
