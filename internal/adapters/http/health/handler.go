package health

import (
	"net/http"

	apphealth "github.com/Darklegion92/backend-DIAN-sub001/internal/application/health"
	corehealth "github.com/Darklegion92/backend-DIAN-sub001/internal/core/health"
	httperrors "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
}

func NewHandler(service *apphealth.Service) *Handler {
	return &Handler{service: service}
}

// Status answers 200 while every dependency is up and 503 otherwise.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response := h.service.Status(r.Context())

	code := http.StatusOK
	if response.Status != corehealth.StatusUp {
		code = http.StatusServiceUnavailable
	}
	httperrors.WriteJSON(w, code, response)
}
