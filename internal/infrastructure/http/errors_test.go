package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// failingResponseWriter fails every body write.
type failingResponseWriter struct {
	http.ResponseWriter
}

func (f *failingResponseWriter) Write(p []byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		message      string
		errs         []string
		expectedErrs []string
	}{
		{
			name:         "validation error",
			statusCode:   http.StatusBadRequest,
			message:      "Error de Validación",
			errs:         []string{"company_nit: numeric"},
			expectedErrs: []string{"company_nit: numeric"},
		},
		{
			name:         "gateway rejection messages",
			statusCode:   http.StatusUnprocessableEntity,
			message:      "Documento Rechazado",
			errs:         []string{"Regla FAD06", "Regla FAK24"},
			expectedErrs: []string{"Regla FAD06", "Regla FAK24"},
		},
		{
			name:         "nil errors render as empty list",
			statusCode:   http.StatusServiceUnavailable,
			message:      "Catálogo no Disponible",
			errs:         nil,
			expectedErrs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteError(w, tt.statusCode, tt.message, tt.errs, nil)

			if w.Code != tt.statusCode {
				t.Errorf("expected status code %d, got %d", tt.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, response.Message)
			}
			if len(response.Errors) != len(tt.expectedErrs) {
				t.Fatalf("expected %d errors, got %d", len(tt.expectedErrs), len(response.Errors))
			}
			for i, expected := range tt.expectedErrs {
				if response.Errors[i] != expected {
					t.Errorf("expected error[%d] %q, got %q", i, expected, response.Errors[i])
				}
			}
		})
	}

	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadGateway, "Error del Proveedor", nil, nil)
	if !strings.Contains(w.Body.String(), `"errors":[]`) {
		t.Errorf("expected empty errors list, got %s", w.Body.String())
	}
}

func TestWriteError_EncodingFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	WriteError(&failingResponseWriter{ResponseWriter: httptest.NewRecorder()}, http.StatusBadRequest, "Test", []string{"Error"}, log)

	if !strings.Contains(buf.String(), "failed to encode error response") {
		t.Errorf("expected encoding failure to be logged, got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusCreated, map[string]string{"status": "accepted"})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"status":"accepted"}` {
		t.Errorf("unexpected body %s", got)
	}
}
