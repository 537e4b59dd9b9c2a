package company

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no company is registered for a taxpayer id.
var ErrNotFound = errors.New("company not found")

// Company is a taxpayer allowed to submit documents through the gateway.
type Company struct {
	TaxpayerID string    `json:"taxpayer_id"`
	Name       string    `json:"name"`
	APIToken   string    `json:"-"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository defines the contract for company persistence.
type Repository interface {
	// FindByTaxpayerID returns ErrNotFound when the company is not registered.
	FindByTaxpayerID(ctx context.Context, taxpayerID string) (*Company, error)

	// Upsert creates or updates a company keyed by taxpayer id.
	Upsert(ctx context.Context, c Company) error
}
