package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements document.Store on the documents table. A document is
// identified by taxpayer, prefix and number regardless of its type.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL document store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// FindFiscalCode returns the fiscal code of an accepted document.
func (s *Store) FindFiscalCode(ctx context.Context, ref document.Reference) (string, bool, error) {
	query := `
		SELECT fiscal_code
		FROM documents
		WHERE taxpayer_id = $1 AND prefix = $2 AND number = $3
	`

	var code string
	err := s.pool.QueryRow(ctx, query, ref.TaxpayerID, ref.Prefix, ref.Number).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query document %s: %w", ref, err)
	}
	return code, true, nil
}

// Save records an accepted document. The first fiscal code wins.
func (s *Store) Save(ctx context.Context, rec document.Record) error {
	query := `
		INSERT INTO documents (taxpayer_id, type_document_id, prefix, number, fiscal_code, issued_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (taxpayer_id, prefix, number) DO NOTHING
	`

	var issuedAt any
	if !rec.IssuedAt.IsZero() {
		issuedAt = rec.IssuedAt
	}

	_, err := s.pool.Exec(ctx, query,
		rec.Reference.TaxpayerID,
		int(rec.Reference.Type),
		rec.Reference.Prefix,
		rec.Reference.Number,
		rec.FiscalCode,
		issuedAt,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w", rec.Reference, err)
	}
	return nil
}
