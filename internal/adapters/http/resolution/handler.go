package resolution

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appresolution "github.com/Darklegion92/backend-DIAN-sub001/internal/application/resolution"
	coreresolution "github.com/Darklegion92/backend-DIAN-sub001/internal/core/resolution"
	ctxutil "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/context"
	httperrors "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http"
)

const dateLayout = "2006-01-02"

// Handler bridges HTTP traffic with the resolution application service.
type Handler struct {
	service *appresolution.Service
	log     *slog.Logger
}

// NewHandler creates a new resolution HTTP handler.
func NewHandler(service *appresolution.Service, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// RegisterRequest is the body of POST /api/v1/resolutions.
type RegisterRequest struct {
	TaxpayerID       string `json:"company_nit" validate:"required,numeric,min=5,max=15"`
	TypeDocumentID   int    `json:"type_document_id" validate:"required,gt=0"`
	ResolutionNumber string `json:"resolution_number" validate:"required"`
	ResolutionDate   string `json:"resolution_date" validate:"omitempty,datetime=2006-01-02"`
	Prefix           string `json:"prefix" validate:"max=4"`
	FromNumber       int64  `json:"from_number" validate:"gte=0"`
	ToNumber         int64  `json:"to_number" validate:"gtefield=FromNumber"`
	ValidDateFrom    string `json:"valid_date_from" validate:"omitempty,datetime=2006-01-02"`
	ValidDateTo      string `json:"valid_date_to" validate:"omitempty,datetime=2006-01-02"`
}

func (r RegisterRequest) toResolution() coreresolution.Resolution {
	return coreresolution.Resolution{
		TaxpayerID:       r.TaxpayerID,
		TypeDocumentID:   r.TypeDocumentID,
		ResolutionNumber: r.ResolutionNumber,
		ResolutionDate:   parseDate(r.ResolutionDate),
		Prefix:           r.Prefix,
		FromNumber:       r.FromNumber,
		ToNumber:         r.ToNumber,
		ValidDateFrom:    parseDate(r.ValidDateFrom),
		ValidDateTo:      parseDate(r.ValidDateTo),
	}
}

// parseDate runs after validation, so a failure can only be an empty value.
func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

// GetResolutions handles GET /api/v1/resolutions/{nit} requests.
func (h *Handler) GetResolutions(w http.ResponseWriter, r *http.Request) {
	nit := chi.URLParam(r, "nit")

	resolutions, err := h.service.GetResolutions(r.Context(), nit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	// No resolutions is a valid answer, not a 404.
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"resolutions": resolutions,
	})
}

// Register handles POST /api/v1/resolutions requests.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httperrors.DecodeAndValidate(w, r, &req) {
		return
	}

	res := req.toResolution()
	if err := h.service.Register(r.Context(), res); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log.Info("Resolution registered",
		"taxpayer_id", res.TaxpayerID,
		"resolution", res.ResolutionNumber,
		"correlation_id", ctxutil.GetCorrelationID(r.Context()),
	)
	httperrors.WriteJSON(w, http.StatusCreated, map[string]any{
		"resolution_number": req.ResolutionNumber,
		"taxpayer_id":       req.TaxpayerID,
	})
}

// handleError maps domain errors to appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appresolution.ErrInvalid):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{err.Error()}, h.log)
	default:
		h.log.Error("Resolution request failed",
			"error", err,
			"correlation_id", ctxutil.GetCorrelationID(r.Context()),
		)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
