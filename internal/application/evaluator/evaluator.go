// Package evaluator turns gateway answers into submission results.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
)

// Evaluator interprets a successful gateway call. A bare answer is
// reconciled against the document store.
type Evaluator struct {
	documents document.Store
	artifacts submission.ArtifactFetcher
	logger    *slog.Logger
}

// New creates an evaluator.
func New(documents document.Store, artifacts submission.ArtifactFetcher, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		documents: documents,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Evaluate parses resp once and decides the outcome. The returned error is
// only set when the document store cannot be read.
func (e *Evaluator) Evaluate(ctx context.Context, resp submission.RawResponse, ref document.Reference, bearerToken string) (submission.Result, error) {
	switch parsed := submission.ParseResponse(resp.Body).(type) {
	case submission.EnvelopedResponse:
		return e.enveloped(ctx, parsed, ref, bearerToken), nil
	case submission.BareResponse:
		return e.bare(ctx, ref, bearerToken)
	case submission.MalformedResponse:
		return e.malformed(ref, resp.StatusCode, parsed.Reason), nil
	default:
		return e.malformed(ref, resp.StatusCode, fmt.Sprintf("unexpected response %T", parsed)), nil
	}
}

func (e *Evaluator) enveloped(ctx context.Context, resp submission.EnvelopedResponse, ref document.Reference, bearerToken string) submission.Result {
	if !resp.Valid {
		messages := resp.Messages
		if len(messages) == 0 && resp.Message != "" {
			messages = []string{resp.Message}
		}
		if len(messages) == 0 {
			messages = []string{submission.GenericRejectionMessage}
		}
		e.logger.Info("Document rejected by tax authority",
			"document", ref.String(),
			"messages", len(messages),
		)
		return submission.Rejected(submission.ReasonGateway, messages)
	}

	if resp.FiscalCode == "" {
		return e.malformed(ref, 0, "accepted envelope without fiscal code")
	}
	return submission.Accepted(resp.FiscalCode, e.fetchArtifact(ctx, ref, bearerToken))
}

func (e *Evaluator) bare(ctx context.Context, ref document.Reference, bearerToken string) (submission.Result, error) {
	code, found, err := e.documents.FindFiscalCode(ctx, ref)
	if err != nil {
		return submission.Result{}, fmt.Errorf("find stored document %s: %w", ref, err)
	}
	if !found {
		e.logger.Warn("Gateway returned a fiscal code for an unregistered document",
			"document", ref.String(),
		)
		return submission.Rejected(submission.ReasonIssuedElsewhere, []string{submission.IssuedElsewhereMessage}), nil
	}

	e.logger.Debug("Bare gateway answer reconciled with stored document", "document", ref.String())
	return submission.Accepted(code, e.fetchArtifact(ctx, ref, bearerToken)), nil
}

func (e *Evaluator) malformed(ref document.Reference, status int, reason string) submission.Result {
	e.logger.Error("Malformed gateway response",
		"document", ref.String(),
		"status", status,
		"reason", reason,
	)
	return submission.Failed(&submission.TransportError{
		Kind:       submission.KindUpstream,
		StatusCode: status,
		Detail:     "malformed gateway response: " + reason,
	})
}

// fetchArtifact is best effort; a failure leaves the artifact empty.
func (e *Evaluator) fetchArtifact(ctx context.Context, ref document.Reference, bearerToken string) []byte {
	if e.artifacts == nil {
		return nil
	}
	pdf, err := e.artifacts.FetchArtifact(ctx, ref, bearerToken)
	if err != nil {
		e.logger.Warn("Failed to fetch document artifact",
			"document", ref.String(),
			"artifact", ref.ArtifactName(),
			"error", err,
		)
		return nil
	}
	return pdf
}
