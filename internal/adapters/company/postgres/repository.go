package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/company"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the company.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL company repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByTaxpayerID retrieves a company by its NIT.
func (r *Repository) FindByTaxpayerID(ctx context.Context, taxpayerID string) (*company.Company, error) {
	query := `
		SELECT taxpayer_id, name, api_token, active, created_at, updated_at
		FROM companies
		WHERE taxpayer_id = $1
	`

	var c company.Company
	err := r.pool.QueryRow(ctx, query, taxpayerID).Scan(
		&c.TaxpayerID,
		&c.Name,
		&c.APIToken,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("taxpayer %s: %w", taxpayerID, company.ErrNotFound)
		}
		return nil, fmt.Errorf("query company: %w", err)
	}

	return &c, nil
}

// Upsert creates or updates a company.
func (r *Repository) Upsert(ctx context.Context, c company.Company) error {
	query := `
		INSERT INTO companies (taxpayer_id, name, api_token, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (taxpayer_id) DO UPDATE SET
			name = EXCLUDED.name,
			api_token = EXCLUDED.api_token,
			active = EXCLUDED.active,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, c.TaxpayerID, c.Name, c.APIToken, c.Active); err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}
