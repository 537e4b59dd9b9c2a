package dane

import (
	"context"
	"errors"
)

// ErrMunicipalityNotFound is returned when DIVIPOLA has no such code.
var ErrMunicipalityNotFound = errors.New("municipality not found in DIVIPOLA")

// Service queries the DANE DIVIPOLA registry of municipalities.
type Service interface {
	// GetMunicipalityByCode looks up a five digit DIVIPOLA code, e.g. "05001".
	GetMunicipalityByCode(ctx context.Context, code string) (*Municipality, error)

	// ListMunicipalities returns the whole registry.
	ListMunicipalities(ctx context.Context) ([]Municipality, error)
}

// Municipality is one DIVIPOLA entry.
type Municipality struct {
	Code           string // five digits, e.g. "05001"
	Name           string
	DepartmentCode string // two digits
	DepartmentName string
}
