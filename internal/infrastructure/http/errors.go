package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx answer of the API.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteError writes an ErrorResponse. A nil errs is rendered as an empty
// list. Encoding failures are logged when log is set; the status line has
// already been sent by then.
func WriteError(w http.ResponseWriter, statusCode int, message string, errs []string, log *slog.Logger) {
	if errs == nil {
		errs = []string{}
	}
	if err := encodeJSON(w, statusCode, ErrorResponse{Message: message, Errors: errs}); err != nil && log != nil {
		log.Error("failed to encode error response", "status", statusCode, "error", err)
	}
}

// WriteJSON writes payload as a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	_ = encodeJSON(w, statusCode, payload)
}

func encodeJSON(w http.ResponseWriter, statusCode int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(payload)
}
