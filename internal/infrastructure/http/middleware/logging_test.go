package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctxutil "tho/simplercv/internal/infrastructure/context"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		expectedLevel string
	}{
		{name: "2xx logs as info", statusCode: http.StatusOK, expectedLevel: "INFO"},
		{name: "4xx logs as warn", statusCode: http.StatusBadRequest, expectedLevel: "WARN"},
		{name: "405 logs as warn", statusCode: http.StatusMethodNotAllowed, expectedLevel: "WARN"},
		{name: "5xx logs as error", statusCode: http.StatusInternalServerError, expectedLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(`{}`))
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/simple-rcv", nil)
			req.Header.Set("User-Agent", "test-agent")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, float64(tt.statusCode), entry["status"])
			assert.Equal(t, "/api/simple-rcv", entry["path"])
			assert.Equal(t, "test-agent", entry["user_agent"])
			assert.Equal(t, float64(2), entry["bytes"])
		})
	}
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	var correlationID string
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(log))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		correlationID = ctxutil.GetCorrelationID(r.Context())
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, correlationID)
}
