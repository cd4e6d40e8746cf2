package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type failingResponseWriter struct {
	http.ResponseWriter
}

func (f *failingResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
		log        *slog.Logger
	}{
		{name: "bad request", statusCode: http.StatusBadRequest, message: "Periodo inválido. Formato esperado: YYYY-MM", log: discardLogger()},
		{name: "method not allowed", statusCode: http.StatusMethodNotAllowed, message: "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteError(w, tt.statusCode, tt.message, tt.log)

			if w.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}

			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["error"] != tt.message {
				t.Errorf("expected error %q, got %v", tt.message, body["error"])
			}
			if _, ok := body["success"]; ok {
				t.Error("error responses must not carry a success field")
			}
		})
	}
}

func TestWriteFailure(t *testing.T) {
	w := httptest.NewRecorder()

	WriteFailure(w, http.StatusInternalServerError, "SimpleAPI error 401: invalid key", discardLogger())

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["error"] != "SimpleAPI error 401: invalid key" {
		t.Errorf("unexpected error %v", body["error"])
	}
}

func TestWriteJSON_EncodingFailureDoesNotPanic(t *testing.T) {
	w := &failingResponseWriter{ResponseWriter: httptest.NewRecorder()}

	WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"}, discardLogger())
	WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"}, nil)
}
