package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/forms"
)

type errorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Field     string   `json:"field,omitempty"`
	Leftovers []string `json:"leftovers,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFailure maps an operation error to its HTTP status.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *core.ValidationError
		aerr    *core.AuthError
		partial *core.PartialWriteError
		qerr    *core.RemoteQueryError
		cerr    *core.RemoteCommandError
	)
	switch {
	case errors.As(err, &verr):
		writeErrorResponse(w, r, errorResponse{Error: verr.Message, Code: "VALIDATION_ERROR", Field: verr.Field}, http.StatusUnprocessableEntity)
	case errors.As(err, &aerr):
		writeError(w, r, aerr.Message, "AUTH_ERROR", http.StatusUnauthorized)
	case errors.Is(err, forms.ErrBusy):
		writeError(w, r, err.Error(), "BUSY", http.StatusConflict)
	case errors.As(err, &partial):
		h.log.Error("partial write", zap.String("request_id", requestIDFromContext(r.Context())), zap.Error(err))
		writeErrorResponse(w, r, errorResponse{Error: partial.Error(), Code: "PARTIAL_WRITE", Leftovers: partial.Leftovers}, http.StatusInternalServerError)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, "not found", "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &qerr):
		h.log.Warn("store query failed", zap.Error(err))
		writeError(w, r, err.Error(), "QUERY_FAILED", http.StatusBadGateway)
	case errors.As(err, &cerr):
		h.log.Warn("store command failed", zap.Error(err))
		writeError(w, r, err.Error(), "COMMAND_FAILED", http.StatusBadGateway)
	default:
		h.log.Error("request failed", zap.String("request_id", requestIDFromContext(r.Context())), zap.Error(err))
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
