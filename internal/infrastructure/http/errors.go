package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of 4xx responses and of auth failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FailureResponse is the body of sync failures that reach the client as 500.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteJSON writes payload as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// The status line is already out; nothing else to send.
		if log != nil {
			log.Error("failed to encode response", "error", err)
		}
	}
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, statusCode int, message string, log *slog.Logger) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message}, log)
}

// WriteFailure writes {"success": false, "error": message}.
func WriteFailure(w http.ResponseWriter, statusCode int, message string, log *slog.Logger) {
	WriteJSON(w, statusCode, FailureResponse{Success: false, Error: message}, log)
}
