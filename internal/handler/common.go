package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/advolink/advolink/internal/broker"
	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/task"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeRaw writes an already-encoded JSON payload untouched, so what a worker
// produced is exactly what the caller receives.
func writeRaw(w http.ResponseWriter, statusCode int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(payload)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// writeDomainError maps a gateway, handler or repository error onto a
// distinguishable HTTP status. A timeout deliberately reads as "may or may
// not have completed": the job can still be queued, running, or lost.
func writeDomainError(w http.ResponseWriter, err error) {
	var f *task.Failure

	switch {
	case errors.As(err, &f):
		switch f.Kind {
		case task.KindNotFound:
			writeError(w, http.StatusNotFound, f.Message)
		case task.KindValidation:
			writeError(w, http.StatusBadRequest, f.Message)
		case task.KindConflict:
			writeError(w, http.StatusConflict, f.Message)
		default:
			writeError(w, http.StatusInternalServerError, f.Message)
		}
	case errors.Is(err, broker.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "the operation timed out and may or may not have completed")
	case errors.Is(err, broker.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "task broker is unavailable")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
