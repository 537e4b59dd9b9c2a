package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/resolution"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the resolution.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL resolution repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectResolution = `
	SELECT taxpayer_id, resolution_number, type_document_id, resolution_date, prefix,
		from_number, to_number, valid_date_from, valid_date_to
	FROM resolutions
`

// FindByNumber retrieves one resolution of a taxpayer.
func (r *Repository) FindByNumber(ctx context.Context, taxpayerID, resolutionNumber string) (*resolution.Resolution, error) {
	query := selectResolution + `WHERE taxpayer_id = $1 AND resolution_number = $2`

	res, err := scanResolution(r.pool.QueryRow(ctx, query, taxpayerID, resolutionNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &resolution.NotFoundError{TaxpayerID: taxpayerID, ResolutionNumber: resolutionNumber}
		}
		return nil, fmt.Errorf("query resolution: %w", err)
	}
	return &res, nil
}

// ListByTaxpayer returns every resolution of a taxpayer, newest first.
func (r *Repository) ListByTaxpayer(ctx context.Context, taxpayerID string) ([]resolution.Resolution, error) {
	query := selectResolution + `WHERE taxpayer_id = $1 ORDER BY resolution_date DESC NULLS LAST, resolution_number`

	rows, err := r.pool.Query(ctx, query, taxpayerID)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := []resolution.Resolution{}
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		resolutions = append(resolutions, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return resolutions, nil
}

// Upsert creates or updates a resolution.
func (r *Repository) Upsert(ctx context.Context, res resolution.Resolution) error {
	query := `
		INSERT INTO resolutions (
			taxpayer_id, resolution_number, type_document_id, resolution_date, prefix,
			from_number, to_number, valid_date_from, valid_date_to
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (taxpayer_id, resolution_number) DO UPDATE SET
			type_document_id = EXCLUDED.type_document_id,
			resolution_date = EXCLUDED.resolution_date,
			prefix = EXCLUDED.prefix,
			from_number = EXCLUDED.from_number,
			to_number = EXCLUDED.to_number,
			valid_date_from = EXCLUDED.valid_date_from,
			valid_date_to = EXCLUDED.valid_date_to
	`

	_, err := r.pool.Exec(ctx, query,
		res.TaxpayerID,
		res.ResolutionNumber,
		res.TypeDocumentID,
		nullableDate(res.ResolutionDate),
		res.Prefix,
		res.FromNumber,
		res.ToNumber,
		nullableDate(res.ValidDateFrom),
		nullableDate(res.ValidDateTo),
	)
	if err != nil {
		return fmt.Errorf("upsert resolution: %w", err)
	}
	return nil
}

func scanResolution(row pgx.Row) (resolution.Resolution, error) {
	var (
		res                      resolution.Resolution
		resolutionDate, from, to *time.Time
	)
	err := row.Scan(
		&res.TaxpayerID,
		&res.ResolutionNumber,
		&res.TypeDocumentID,
		&resolutionDate,
		&res.Prefix,
		&res.FromNumber,
		&res.ToNumber,
		&from,
		&to,
	)
	if err != nil {
		return resolution.Resolution{}, err
	}
	res.ResolutionDate = deref(resolutionDate)
	res.ValidDateFrom = deref(from)
	res.ValidDateTo = deref(to)
	return res, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
