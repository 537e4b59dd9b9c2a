package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/credential"
	appsubmission "github.com/Darklegion92/backend-DIAN-sub001/internal/application/submission"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/company"
	coredocument "github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/resolution"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
	ctxutil "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/context"
	httperrors "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http"
)

// Service is the part of the submission service this handler drives.
type Service interface {
	Preview(ctx context.Context, req appsubmission.Request) (coredocument.Document, error)
	Submit(ctx context.Context, req appsubmission.Request) (submission.Result, error)
	Batch(ctx context.Context, reqs []appsubmission.Request) appsubmission.BatchReport
	Artifact(ctx context.Context, ref coredocument.Reference) ([]byte, error)
	DocumentType(ctx context.Context, code string) (coredocument.Type, error)
}

// PayloadFunc renders an assembled document as the gateway would receive it.
type PayloadFunc func(doc coredocument.Document) any

// Handler bridges HTTP traffic with the submission service.
type Handler struct {
	service Service
	payload PayloadFunc
	log     *slog.Logger
}

// NewHandler creates a new document HTTP handler.
func NewHandler(service Service, payload PayloadFunc, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		payload: payload,
		log:     log,
	}
}

// BatchRequest is the body of POST /api/v1/documents/batch. A batch holds at
// most 500 documents.
type BatchRequest struct {
	Documents []appsubmission.Request `json:"documents" validate:"required,min=1,max=500,dive"`
}

// PreviewResponse carries the payload that would be sent to the gateway.
type PreviewResponse struct {
	Document string `json:"document"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

// Submit handles POST /api/v1/documents requests.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req appsubmission.Request
	if !httperrors.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log.Info("Document processed",
		"document", result.Document,
		"status", string(result.Status),
		"correlation_id", ctxutil.GetCorrelationID(r.Context()),
	)
	httperrors.WriteJSON(w, ResultStatus(result), result)
}

// Preview handles POST /api/v1/documents/preview requests.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req appsubmission.Request
	if !httperrors.DecodeAndValidate(w, r, &req) {
		return
	}

	doc, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, PreviewResponse{
		Document: doc.Reference().String(),
		Type:     doc.Type.String(),
		Payload:  h.payload(doc),
	})
}

// Batch handles POST /api/v1/documents/batch requests. The answer is 200
// whenever the batch ran; every item carries its own outcome.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !httperrors.DecodeAndValidate(w, r, &req) {
		return
	}

	report := h.service.Batch(r.Context(), req.Documents)
	h.log.Info("Batch processed",
		"batch_id", report.BatchID,
		"total", report.Stats.Total,
		"accepted", report.Stats.Accepted,
		"rejected", report.Stats.Rejected,
		"errors", report.Stats.Errors,
		"correlation_id", ctxutil.GetCorrelationID(r.Context()),
	)
	httperrors.WriteJSON(w, http.StatusOK, report)
}

// DownloadArtifact handles GET /api/v1/documents/{nit}/{type}/{prefix}/{number}/artifact.
// {type} is the legacy document type code.
func (h *Handler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	nit := chi.URLParam(r, "nit")
	number := chi.URLParam(r, "number")
	if _, err := strconv.ParseUint(nit, 10, 64); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El NIT debe ser numérico"}, h.log)
		return
	}
	if number == "" {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El número del documento es requerido"}, h.log)
		return
	}

	docType, err := h.service.DocumentType(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ref := coredocument.Reference{
		TaxpayerID: nit,
		Type:       docType,
		Prefix:     chi.URLParam(r, "prefix"),
		Number:     number,
	}

	pdf, err := h.service.Artifact(r.Context(), ref)
	if err != nil {
		var te *submission.TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
			httperrors.WriteError(w, http.StatusNotFound, "Documento no encontrado", []string{ref.ArtifactName()}, h.log)
			return
		}
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ref.ArtifactName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// ResultStatus maps a submission outcome to an HTTP status code.
func ResultStatus(result submission.Result) int {
	switch result.Status {
	case submission.StatusAccepted, submission.StatusAlreadyKnown:
		return http.StatusOK
	case submission.StatusRejected:
		return http.StatusUnprocessableEntity
	case submission.StatusTransportFailure:
		if result.Failure == nil {
			return http.StatusBadGateway
		}
		return failureStatus(result.Failure.Kind)
	default:
		return http.StatusInternalServerError
	}
}

func failureStatus(kind submission.FailureKind) int {
	switch kind {
	case submission.KindInvalidPayload:
		return http.StatusUnprocessableEntity
	case submission.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// handleError maps pipeline errors to appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	correlationID := ctxutil.GetCorrelationID(r.Context())

	var (
		unsupported *appsubmission.UnsupportedTypeError
		te          *submission.TransportError
	)
	switch {
	case record.IsMalformed(err):
		h.log.Warn("Malformed record", "error", err, "correlation_id", correlationID)
		httperrors.WriteError(w, http.StatusBadRequest, "Registro Mal Formado", []string{err.Error()}, h.log)
	case errors.Is(err, catalog.ErrUnavailable):
		h.log.Error("Catalog unavailable", "error", err, "correlation_id", correlationID)
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Catálogo no Disponible", []string{"Los catálogos no están disponibles, intente más tarde"}, h.log)
	case errors.Is(err, catalog.ErrNotFound):
		h.log.Warn("Catalog code not found", "error", err, "correlation_id", correlationID)
		httperrors.WriteError(w, http.StatusUnprocessableEntity, "Código no Encontrado", []string{err.Error()}, h.log)
	case errors.Is(err, resolution.ErrNotFound):
		h.log.Warn("Resolution not found", "error", err, "correlation_id", correlationID)
		httperrors.WriteError(w, http.StatusUnprocessableEntity, "Resolución no Encontrada", []string{err.Error()}, h.log)
	case errors.As(err, &unsupported):
		httperrors.WriteError(w, http.StatusUnprocessableEntity, "Tipo de Documento no Soportado", []string{err.Error()}, h.log)
	case errors.Is(err, company.ErrNotFound), errors.Is(err, credential.ErrInactive), errors.Is(err, credential.ErrMissingToken):
		h.log.Warn("Company cannot submit", "error", err, "correlation_id", correlationID)
		httperrors.WriteError(w, http.StatusUnprocessableEntity, "Empresa no Habilitada", []string{err.Error()}, h.log)
	case errors.As(err, &te):
		h.log.Error("Gateway call failed", "error", err, "kind", string(te.Kind), "correlation_id", correlationID)
		httperrors.WriteError(w, failureStatus(te.Kind), "Error del Proveedor", []string{te.Detail}, h.log)
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Error("Request timed out", "error", err, "correlation_id", correlationID)
		httperrors.WriteError(w, http.StatusGatewayTimeout, "Tiempo de Espera Agotado", []string{"La operación excedió el tiempo máximo"}, h.log)
	default:
		h.log.Error("Unexpected error", "error", err, "correlation_id", correlationID)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
