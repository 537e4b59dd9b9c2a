package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
)

// Store implements catalog.Store and catalog.Writer on the catalog_codes table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL catalog store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// FindIDs returns the ids of the codes that exist in catalog name.
func (s *Store) FindIDs(ctx context.Context, name catalog.Name, codes []string) (map[string]int, error) {
	query := `
		SELECT code, id
		FROM catalog_codes
		WHERE catalog = $1 AND code = ANY($2)
	`

	rows, err := s.pool.Query(ctx, query, string(name), codes)
	if err != nil {
		return nil, fmt.Errorf("query catalog %s: %w", name, err)
	}
	defer rows.Close()

	found := make(map[string]int, len(codes))
	for rows.Next() {
		var (
			code string
			id   int
		)
		if err := rows.Scan(&code, &id); err != nil {
			return nil, fmt.Errorf("scan catalog %s: %w", name, err)
		}
		found[code] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog %s: %w", name, err)
	}

	return found, nil
}

// Upsert inserts or replaces entries in one transaction and returns how many
// rows were written.
func (s *Store) Upsert(ctx context.Context, entries []catalog.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO catalog_codes (catalog, code, id, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (catalog, code) DO UPDATE SET
			id = EXCLUDED.id,
			description = EXCLUDED.description,
			updated_at = NOW()
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin catalog upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, string(e.Catalog), catalog.NormalizeCode(e.Catalog, e.Code), e.ID, e.Description)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upsert %s code %q: %w", entries[i].Catalog, entries[i].Code, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close catalog batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit catalog upsert: %w", err)
	}
	return len(entries), nil
}

// List returns every entry of catalog name ordered by code.
func (s *Store) List(ctx context.Context, name catalog.Name) ([]catalog.Entry, error) {
	query := `
		SELECT catalog, code, id, description
		FROM catalog_codes
		WHERE catalog = $1
		ORDER BY code
	`

	rows, err := s.pool.Query(ctx, query, string(name))
	if err != nil {
		return nil, fmt.Errorf("list catalog %s: %w", name, err)
	}
	defer rows.Close()

	entries := []catalog.Entry{}
	for rows.Next() {
		var (
			e       catalog.Entry
			catName string
		)
		if err := rows.Scan(&catName, &e.Code, &e.ID, &e.Description); err != nil {
			return nil, fmt.Errorf("scan catalog %s: %w", name, err)
		}
		e.Catalog = catalog.Name(catName)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog %s: %w", name, err)
	}

	return entries, nil
}
