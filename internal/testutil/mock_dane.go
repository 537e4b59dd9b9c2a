package testutil

import (
	"context"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/dane"
)

// MockDANEService is a mock implementation of dane.Service for testing.
type MockDANEService struct {
	GetMunicipalityByCodeFunc func(ctx context.Context, code string) (*dane.Municipality, error)
	ListMunicipalitiesFunc    func(ctx context.Context) ([]dane.Municipality, error)
}

// GetMunicipalityByCode calls the mock function if set, otherwise returns dane.ErrMunicipalityNotFound.
func (m *MockDANEService) GetMunicipalityByCode(ctx context.Context, code string) (*dane.Municipality, error) {
	if m.GetMunicipalityByCodeFunc != nil {
		return m.GetMunicipalityByCodeFunc(ctx, code)
	}
	return nil, dane.ErrMunicipalityNotFound
}

// ListMunicipalities calls the mock function if set, otherwise returns an empty slice.
func (m *MockDANEService) ListMunicipalities(ctx context.Context) ([]dane.Municipality, error) {
	if m.ListMunicipalitiesFunc != nil {
		return m.ListMunicipalitiesFunc(ctx)
	}
	return []dane.Municipality{}, nil
}
