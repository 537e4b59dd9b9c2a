package testutil

import (
	"context"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/company"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/resolution"
)

// MockCompanyRepository is a mock implementation of company.Repository for testing.
type MockCompanyRepository struct {
	FindByTaxpayerIDFunc func(ctx context.Context, taxpayerID string) (*company.Company, error)
	UpsertFunc           func(ctx context.Context, c company.Company) error
}

// FindByTaxpayerID calls the mock function if set, otherwise returns company.ErrNotFound.
func (m *MockCompanyRepository) FindByTaxpayerID(ctx context.Context, taxpayerID string) (*company.Company, error) {
	if m.FindByTaxpayerIDFunc != nil {
		return m.FindByTaxpayerIDFunc(ctx, taxpayerID)
	}
	return nil, company.ErrNotFound
}

// Upsert calls the mock function if set, otherwise returns nil.
func (m *MockCompanyRepository) Upsert(ctx context.Context, c company.Company) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, c)
	}
	return nil
}

// MockResolutionRepository is a mock implementation of resolution.Repository for testing.
type MockResolutionRepository struct {
	FindByNumberFunc   func(ctx context.Context, taxpayerID, resolutionNumber string) (*resolution.Resolution, error)
	ListByTaxpayerFunc func(ctx context.Context, taxpayerID string) ([]resolution.Resolution, error)
	UpsertFunc         func(ctx context.Context, r resolution.Resolution) error
}

// FindByNumber calls the mock function if set, otherwise returns a not found error.
func (m *MockResolutionRepository) FindByNumber(ctx context.Context, taxpayerID, resolutionNumber string) (*resolution.Resolution, error) {
	if m.FindByNumberFunc != nil {
		return m.FindByNumberFunc(ctx, taxpayerID, resolutionNumber)
	}
	return nil, &resolution.NotFoundError{TaxpayerID: taxpayerID, ResolutionNumber: resolutionNumber}
}

// ListByTaxpayer calls the mock function if set, otherwise returns an empty slice.
func (m *MockResolutionRepository) ListByTaxpayer(ctx context.Context, taxpayerID string) ([]resolution.Resolution, error) {
	if m.ListByTaxpayerFunc != nil {
		return m.ListByTaxpayerFunc(ctx, taxpayerID)
	}
	return []resolution.Resolution{}, nil
}

// Upsert calls the mock function if set, otherwise returns nil.
func (m *MockResolutionRepository) Upsert(ctx context.Context, r resolution.Resolution) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, r)
	}
	return nil
}
