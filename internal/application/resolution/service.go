package resolution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	coreresolution "github.com/Darklegion92/backend-DIAN-sub001/internal/core/resolution"
)

// ErrInvalid marks a resolution rejected before reaching the repository.
var ErrInvalid = errors.New("invalid resolution")

// Service orchestrates resolution-related use cases.
type Service struct {
	repo coreresolution.Repository
}

// NewService creates a new resolution service backed by repo.
func NewService(repo coreresolution.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// GetResolutions retrieves every numbering resolution of a taxpayer.
func (s *Service) GetResolutions(ctx context.Context, nit string) ([]coreresolution.Resolution, error) {
	if err := validateNIT(nit); err != nil {
		return nil, err
	}

	resolutions, err := s.repo.ListByTaxpayer(ctx, nit)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	return resolutions, nil
}

// Register creates or replaces a numbering resolution.
func (s *Service) Register(ctx context.Context, r coreresolution.Resolution) error {
	if err := validateNIT(r.TaxpayerID); err != nil {
		return err
	}
	r.ResolutionNumber = strings.TrimSpace(r.ResolutionNumber)
	r.Prefix = strings.ToUpper(strings.TrimSpace(r.Prefix))

	switch {
	case r.ResolutionNumber == "":
		return fmt.Errorf("%w: resolution number is required", ErrInvalid)
	case r.TypeDocumentID <= 0:
		return fmt.Errorf("%w: type document id is required", ErrInvalid)
	case r.FromNumber < 0 || r.ToNumber < r.FromNumber:
		return fmt.Errorf("%w: range %d-%d is not valid", ErrInvalid, r.FromNumber, r.ToNumber)
	case !r.ValidDateFrom.IsZero() && !r.ValidDateTo.IsZero() && r.ValidDateTo.Before(r.ValidDateFrom):
		return fmt.Errorf("%w: valid_date_to is before valid_date_from", ErrInvalid)
	}

	if err := s.repo.Upsert(ctx, r); err != nil {
		return fmt.Errorf("save resolution: %w", err)
	}
	return nil
}

func validateNIT(nit string) error {
	if nit == "" {
		return fmt.Errorf("%w: nit is required", ErrInvalid)
	}
	if len(nit) < 5 || len(nit) > 15 {
		return fmt.Errorf("%w: invalid nit format: must be between 5 and 15 digits", ErrInvalid)
	}
	for _, c := range nit {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: invalid nit format: must be numeric", ErrInvalid)
		}
	}
	return nil
}
