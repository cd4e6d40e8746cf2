package rcv

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	apprcv "tho/simplercv/internal/application/rcv"
	"tho/simplercv/internal/core/rcv"
	"tho/simplercv/internal/core/synclog"
	ctxutil "tho/simplercv/internal/infrastructure/context"
	httpinfra "tho/simplercv/internal/infrastructure/http"
)

const maxBodyBytes = 1 << 20

// Handler bridges HTTP traffic with the RCV sync service.
type Handler struct {
	service *apprcv.Service
	log     *slog.Logger
}

func NewHandler(service *apprcv.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// LogsResponse is the body of GET /api/simple-rcv/logs.
type LogsResponse struct {
	Logs []synclog.Entry `json:"logs"`
}

// Sync handles /api/simple-rcv. It answers every method so that OPTIONS
// and the 405 reply stay in the same place as the POST contract.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		httpinfra.WriteError(w, http.StatusMethodNotAllowed, "Método no permitido", h.log)
		return
	}

	var req apprcv.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpinfra.WriteError(w, http.StatusBadRequest, "El cuerpo de la petición no es JSON válido", h.log)
		return
	}
	if req.UserEmail == "" {
		req.UserEmail = ctxutil.GetUserEmail(r.Context())
	}

	result, err := h.service.Sync(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httpinfra.WriteJSON(w, http.StatusOK, result, h.log)
}

// Logs handles GET /api/simple-rcv/logs?periodo=YYYY-MM&limit=N.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpinfra.WriteError(w, http.StatusBadRequest, "limit debe ser un entero positivo", h.log)
			return
		}
		limit = n
	}

	entries, err := h.service.Logs(r.Context(), query.Get("periodo"), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if entries == nil {
		entries = []synclog.Entry{}
	}

	httpinfra.WriteJSON(w, http.StatusOK, LogsResponse{Logs: entries}, h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, rcv.ErrInvalidPeriod) {
		httpinfra.WriteError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	var apiErr *rcv.RemoteAPIError
	if errors.As(err, &apiErr) {
		h.log.ErrorContext(r.Context(), "SimpleAPI rejected the request", "status", apiErr.StatusCode)
	} else {
		h.log.ErrorContext(r.Context(), "Sync request failed", "error", err)
	}
	httpinfra.WriteFailure(w, http.StatusInternalServerError, err.Error(), h.log)
}
