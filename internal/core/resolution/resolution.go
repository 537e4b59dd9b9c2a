package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a taxpayer has no such numbering resolution.
var ErrNotFound = errors.New("resolution not found")

// Resolution is a DIAN numbering authorization. Its prefix is used to split
// composite document numbers.
type Resolution struct {
	TaxpayerID       string    `json:"taxpayer_id"`
	TypeDocumentID   int       `json:"type_document_id"`
	ResolutionNumber string    `json:"resolution_number"`
	ResolutionDate   time.Time `json:"resolution_date"`
	Prefix           string    `json:"prefix"`
	FromNumber       int64     `json:"from_number"`
	ToNumber         int64     `json:"to_number"`
	ValidDateFrom    time.Time `json:"valid_date_from"`
	ValidDateTo      time.Time `json:"valid_date_to"`
}

// Covers reports whether number falls inside the authorized range.
func (r Resolution) Covers(number int64) bool {
	return number >= r.FromNumber && number <= r.ToNumber
}

// ActiveAt reports whether the resolution is valid on t. Zero bounds are open.
func (r Resolution) ActiveAt(t time.Time) bool {
	if !r.ValidDateFrom.IsZero() && t.Before(r.ValidDateFrom) {
		return false
	}
	if !r.ValidDateTo.IsZero() && t.After(r.ValidDateTo.Add(24*time.Hour)) {
		return false
	}
	return true
}

// NotFoundError names the missing resolution.
type NotFoundError struct {
	TaxpayerID       string
	ResolutionNumber string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolution %q not found for taxpayer %s", e.ResolutionNumber, e.TaxpayerID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Repository defines the contract for resolution persistence.
type Repository interface {
	// FindByNumber returns a *NotFoundError when the resolution is unknown.
	FindByNumber(ctx context.Context, taxpayerID, resolutionNumber string) (*Resolution, error)

	// ListByTaxpayer returns every resolution of a taxpayer, newest first.
	ListByTaxpayer(ctx context.Context, taxpayerID string) ([]Resolution, error)

	// Upsert creates or updates a resolution keyed by taxpayer and number.
	Upsert(ctx context.Context, r Resolution) error
}
