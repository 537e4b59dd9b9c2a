package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	corecatalog "github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
)

// Resolver turns legacy codes into internal ids, applying the per-catalog
// fallbacks. It is safe for concurrent use.
type Resolver struct {
	store  corecatalog.Store
	logger *slog.Logger
	wait   time.Duration
}

// NewResolver creates a resolver over store.
func NewResolver(store corecatalog.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
		wait:   time.Millisecond,
	}
}

// ResolveID resolves a single code.
func (r *Resolver) ResolveID(ctx context.Context, code string, name corecatalog.Name) (int, error) {
	lookup := corecatalog.NewLookup(name, code)
	results := r.resolveCatalog(ctx, name, []string{lookup.Code})
	return results[0].Data, results[0].Error
}

// ResolveBatch resolves every lookup of a document in one pass, issuing at
// most one store query per catalog. The first failure in input order is returned.
func (r *Resolver) ResolveBatch(ctx context.Context, lookups []corecatalog.Lookup) (corecatalog.Codes, error) {
	session := r.NewSession()
	return session.ResolveAll(ctx, lookups)
}

// Session caches resolutions for the lifetime of one document.
type Session struct {
	loader *dataloader.Loader[corecatalog.Lookup, int]
}

// NewSession returns a session backed by a batching loader. Sessions must
// not be shared between documents.
func (r *Resolver) NewSession() *Session {
	return &Session{
		loader: dataloader.NewBatchedLoader(r.batch, dataloader.WithWait[corecatalog.Lookup, int](r.wait)),
	}
}

// Resolve resolves one code through the session cache.
func (s *Session) Resolve(ctx context.Context, name corecatalog.Name, code string) (int, error) {
	return s.loader.Load(ctx, corecatalog.NewLookup(name, code))()
}

// ResolveAll resolves lookups concurrently and returns them as a Codes map.
func (s *Session) ResolveAll(ctx context.Context, lookups []corecatalog.Lookup) (corecatalog.Codes, error) {
	keys := make([]corecatalog.Lookup, 0, len(lookups))
	seen := make(map[corecatalog.Lookup]struct{}, len(lookups))
	for _, l := range lookups {
		key := corecatalog.NewLookup(l.Catalog, l.Code)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return corecatalog.Codes{}, nil
	}

	ids, errs := s.loader.LoadMany(ctx, keys)()
	for i := range keys {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
	}

	codes := make(corecatalog.Codes, len(keys))
	for i, key := range keys {
		codes[key] = ids[i]
	}
	return codes, nil
}

// batch groups keys per catalog and answers them in key order.
func (r *Resolver) batch(ctx context.Context, keys []corecatalog.Lookup) []*dataloader.Result[int] {
	byCatalog := make(map[corecatalog.Name][]int)
	order := make([]corecatalog.Name, 0)
	for i, key := range keys {
		if _, ok := byCatalog[key.Catalog]; !ok {
			order = append(order, key.Catalog)
		}
		byCatalog[key.Catalog] = append(byCatalog[key.Catalog], i)
	}

	results := make([]*dataloader.Result[int], len(keys))
	for _, name := range order {
		positions := byCatalog[name]
		codes := make([]string, len(positions))
		for j, pos := range positions {
			codes[j] = keys[pos].Code
		}
		for j, result := range r.resolveCatalog(ctx, name, codes) {
			results[positions[j]] = result
		}
	}
	return results
}

// resolveCatalog resolves already normalized codes of one catalog with a
// single store query. Blank codes never reach the store.
func (r *Resolver) resolveCatalog(ctx context.Context, name corecatalog.Name, codes []string) []*dataloader.Result[int] {
	query := make([]string, 0, len(codes))
	for _, code := range codes {
		if code != "" {
			query = append(query, code)
		}
	}

	var found map[string]int
	if len(query) > 0 {
		var err error
		found, err = r.store.FindIDs(ctx, name, query)
		if err != nil {
			r.logger.Error("catalog lookup failed",
				"catalog", name,
				"codes", len(query),
				"error", err,
			)
			unavailable := &corecatalog.UnavailableError{Catalog: name, Err: err}
			results := make([]*dataloader.Result[int], len(codes))
			for i := range codes {
				results[i] = &dataloader.Result[int]{Error: unavailable}
			}
			return results
		}
	}

	results := make([]*dataloader.Result[int], len(codes))
	for i, code := range codes {
		if id, ok := found[code]; ok && code != "" {
			results[i] = &dataloader.Result[int]{Data: id}
			continue
		}
		if id, ok := corecatalog.Fallback(name); ok {
			r.logger.Debug("catalog fallback applied",
				"catalog", name,
				"code", code,
				"fallback_id", id,
			)
			results[i] = &dataloader.Result[int]{Data: id}
			continue
		}
		results[i] = &dataloader.Result[int]{Error: &corecatalog.NotFoundError{Catalog: name, Code: code}}
	}
	return results
}
