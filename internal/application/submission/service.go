// Package submission orchestrates one document from legacy export to the
// tax authority verdict.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/assembler"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/evaluator"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/resolution"
	coresubmission "github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
)

// Request is one document as exported by the legacy system.
type Request struct {
	TaxpayerID   string          `json:"company_nit" validate:"required,numeric,min=5,max=15"`
	DocumentType string          `json:"document_type" validate:"required"`
	Segments     record.Segments `json:"segments" validate:"required"`
}

// CatalogResolver resolves single catalog codes.
type CatalogResolver interface {
	ResolveID(ctx context.Context, code string, name catalog.Name) (int, error)
}

// Credentials hands out gateway tokens per taxpayer.
type Credentials interface {
	Token(ctx context.Context, taxpayerID string) (string, error)
	Invalidate(taxpayerID string)
}

// UnsupportedTypeError is returned when a document type code resolves to a
// type this service cannot submit.
type UnsupportedTypeError struct {
	Code string
	ID   int
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("document type %q (id %d) is not supported", e.Code, e.ID)
}

// Deps groups the collaborators of the service. Archive and Locker are optional.
type Deps struct {
	Catalog     CatalogResolver
	Assembler   *assembler.Assembler
	Resolutions resolution.Repository
	Credentials Credentials
	Documents   document.Store
	Gateway     coresubmission.Gateway
	Artifacts   coresubmission.ArtifactFetcher
	Evaluator   *evaluator.Evaluator
	Archive     coresubmission.ArtifactArchive
	Locker      coresubmission.Locker
}

// Options tunes the service.
type Options struct {
	// LockTTL bounds how long a document stays locked. Defaults to 5 minutes.
	LockTTL time.Duration
	// BatchWorkers is the worker pool size of Batch. Defaults to 10.
	BatchWorkers int
}

// Service orchestrates submissions.
type Service struct {
	Deps
	opts   Options
	logger *slog.Logger
}

// NewService creates a submission service.
func NewService(deps Deps, opts Options, logger *slog.Logger) *Service {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = 10
	}
	return &Service{Deps: deps, opts: opts, logger: logger}
}

// Preview assembles a document without submitting it.
func (s *Service) Preview(ctx context.Context, req Request) (document.Document, error) {
	docType, err := s.documentType(ctx, req.DocumentType)
	if err != nil {
		return document.Document{}, err
	}
	prefix, err := s.resolutionPrefix(ctx, req)
	if err != nil {
		return document.Document{}, err
	}
	return s.Assembler.Assemble(ctx, req.Segments, docType, assembler.Options{
		ResolutionPrefix: prefix,
		TaxpayerID:       req.TaxpayerID,
	})
}

// Submit runs the whole pipeline. Parsing, resolution and duplicate-check
// failures are returned as errors before any gateway call. Gateway outcomes,
// including transport failures, are returned as results.
func (s *Service) Submit(ctx context.Context, req Request) (coresubmission.Result, error) {
	doc, err := s.Preview(ctx, req)
	if err != nil {
		return coresubmission.Result{}, err
	}
	result, err := s.submit(ctx, req, doc)
	if err != nil {
		return coresubmission.Result{}, err
	}
	result.Document = doc.Reference().String()
	result.Type = doc.Type.String()
	return result, nil
}

func (s *Service) submit(ctx context.Context, req Request, doc document.Document) (coresubmission.Result, error) {
	ref := doc.Reference()
	log := s.logger.With("document", ref.String(), "type", doc.Type.String())

	code, found, err := s.Documents.FindFiscalCode(ctx, ref)
	if err != nil {
		return coresubmission.Result{}, fmt.Errorf("check duplicate %s: %w", ref, err)
	}
	if found {
		log.InfoContext(ctx, "Document already accepted, skipping submission")
		return coresubmission.AlreadyKnown(code), nil
	}

	token, err := s.Credentials.Token(ctx, req.TaxpayerID)
	if err != nil {
		return coresubmission.Result{}, fmt.Errorf("load gateway credentials: %w", err)
	}

	release, err := s.lock(ctx, ref, log)
	if err != nil {
		return coresubmission.Failed(&coresubmission.TransportError{
			Kind:   coresubmission.KindTransient,
			Detail: err.Error(),
			Err:    err,
		}), nil
	}
	defer release()

	// Another submission may have finished between the first check and the lock.
	if code, found, err := s.Documents.FindFiscalCode(ctx, ref); err != nil {
		return coresubmission.Result{}, fmt.Errorf("check duplicate %s: %w", ref, err)
	} else if found {
		log.InfoContext(ctx, "Document accepted while waiting for the lock, skipping submission")
		return coresubmission.AlreadyKnown(code), nil
	}

	start := time.Now()
	raw, err := s.Gateway.Submit(ctx, doc, token)
	if err != nil {
		te, ok := coresubmission.AsTransportError(err)
		if !ok {
			return coresubmission.Result{}, fmt.Errorf("submit %s: %w", ref, err)
		}
		if te.Kind == coresubmission.KindBadCredentials {
			s.Credentials.Invalidate(req.TaxpayerID)
		}
		log.WarnContext(ctx, "Gateway call failed",
			"kind", string(te.Kind),
			"status", te.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return coresubmission.Failed(te), nil
	}

	result, err := s.Evaluator.Evaluate(ctx, raw, ref, token)
	if err != nil {
		return coresubmission.Result{}, err
	}
	log.InfoContext(ctx, "Document submitted",
		"status", string(result.Status),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if result.Status == coresubmission.StatusAccepted {
		s.remember(ctx, doc, result.FiscalCode, log)
		result.ArchiveURI = s.archive(ctx, ref, result, log)
	}
	return result, nil
}

// Artifact downloads the PDF of an already accepted document.
func (s *Service) Artifact(ctx context.Context, ref document.Reference) ([]byte, error) {
	token, err := s.Credentials.Token(ctx, ref.TaxpayerID)
	if err != nil {
		return nil, fmt.Errorf("load gateway credentials: %w", err)
	}
	pdf, err := s.Artifacts.FetchArtifact(ctx, ref, token)
	if err != nil {
		if te, ok := coresubmission.AsTransportError(err); ok && te.Kind == coresubmission.KindBadCredentials {
			s.Credentials.Invalidate(ref.TaxpayerID)
		}
		return nil, fmt.Errorf("fetch artifact %s: %w", ref.ArtifactName(), err)
	}
	return pdf, nil
}

// DocumentType resolves a legacy document type code.
func (s *Service) DocumentType(ctx context.Context, code string) (document.Type, error) {
	return s.documentType(ctx, code)
}

func (s *Service) documentType(ctx context.Context, code string) (document.Type, error) {
	id, err := s.Catalog.ResolveID(ctx, code, catalog.TypeDocument)
	if err != nil {
		return 0, fmt.Errorf("resolve document type: %w", err)
	}
	t := document.Type(id)
	if !t.Valid() {
		return 0, &UnsupportedTypeError{Code: code, ID: id}
	}
	return t, nil
}

// resolutionPrefix looks up the numbering resolution named in the header.
// A header without resolution number yields an empty prefix.
func (s *Service) resolutionPrefix(ctx context.Context, req Request) (string, error) {
	header, err := record.ParseHeader(req.Segments.Header)
	if err != nil {
		return "", err
	}
	if header.Resolution == "" {
		return "", nil
	}
	res, err := s.Resolutions.FindByNumber(ctx, req.TaxpayerID, header.Resolution)
	if err != nil {
		return "", fmt.Errorf("find resolution: %w", err)
	}
	return res.Prefix, nil
}

// lock takes the per-document lock. Lock backend failures other than
// contention are logged and the submission continues unlocked.
func (s *Service) lock(ctx context.Context, ref document.Reference, log *slog.Logger) (func(), error) {
	noop := func() {}
	if s.Locker == nil {
		return noop, nil
	}

	key := coresubmission.LockKey(ref)
	release, err := s.Locker.Lock(ctx, key, s.opts.LockTTL)
	switch {
	case errors.Is(err, coresubmission.ErrDocumentLocked):
		log.Warn("Document locked by another submission", "lock", key)
		return nil, err
	case err != nil:
		log.Warn("Lock backend unavailable, submitting without lock", "lock", key, "error", err)
		return noop, nil
	}

	return func() {
		// The caller's context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			log.Warn("Failed to release document lock", "lock", key, "error", err)
		}
	}, nil
}

// remember stores the accepted document so bare gateway answers can be
// reconciled later. Failures are logged.
func (s *Service) remember(ctx context.Context, doc document.Document, fiscalCode string, log *slog.Logger) {
	issuedAt, err := time.Parse("2006-01-02 15:04:05", doc.Date+" "+doc.Time)
	if err != nil {
		issuedAt = time.Time{}
	}
	rec := document.Record{
		Reference:  doc.Reference(),
		FiscalCode: fiscalCode,
		IssuedAt:   issuedAt,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Documents.Save(ctx, rec); err != nil {
		log.Error("Failed to persist accepted document", "error", err)
	}
}

func (s *Service) archive(ctx context.Context, ref document.Reference, result coresubmission.Result, log *slog.Logger) string {
	if s.Archive == nil || !result.HasArtifact() {
		return ""
	}
	uri, err := s.Archive.Store(ctx, ref, result.Artifact)
	if err != nil {
		log.Warn("Failed to archive artifact", "artifact", ref.ArtifactName(), "error", err)
		return ""
	}
	return uri
}
