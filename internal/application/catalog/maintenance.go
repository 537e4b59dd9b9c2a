package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	corecatalog "github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/dane"
)

// Invalidator drops cached catalog contents.
type Invalidator interface {
	Invalidate(ctx context.Context, names ...corecatalog.Name) error
}

// Maintainer loads catalog contents and checks them against external
// registries. Cache and registry are optional.
type Maintainer struct {
	writer corecatalog.Writer
	cache  Invalidator
	dane   dane.Service
	logger *slog.Logger
}

// NewMaintainer creates a maintainer.
func NewMaintainer(writer corecatalog.Writer, cache Invalidator, registry dane.Service, logger *slog.Logger) *Maintainer {
	return &Maintainer{writer: writer, cache: cache, dane: registry, logger: logger}
}

// Import upserts entries and invalidates the cache of every catalog touched.
func (m *Maintainer) Import(ctx context.Context, entries []corecatalog.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	written, err := m.writer.Upsert(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("import catalog entries: %w", err)
	}

	touched := touchedCatalogs(entries)
	if m.cache != nil {
		if err := m.cache.Invalidate(ctx, touched...); err != nil {
			m.logger.Warn("Failed to invalidate catalog cache", "catalogs", len(touched), "error", err)
		}
	}

	m.logger.Info("Catalog entries imported", "entries", written, "catalogs", len(touched))
	return written, nil
}

// MunicipalityReport is the outcome of a DIVIPOLA check.
type MunicipalityReport struct {
	Checked int
	Unknown []corecatalog.Entry
}

// VerifyMunicipalities reports municipality codes that DIVIPOLA does not know.
func (m *Maintainer) VerifyMunicipalities(ctx context.Context) (MunicipalityReport, error) {
	if m.dane == nil {
		return MunicipalityReport{}, fmt.Errorf("no municipality registry configured")
	}

	entries, err := m.writer.List(ctx, corecatalog.Municipality)
	if err != nil {
		return MunicipalityReport{}, fmt.Errorf("list municipality catalog: %w", err)
	}
	registry, err := m.dane.ListMunicipalities(ctx)
	if err != nil {
		return MunicipalityReport{}, fmt.Errorf("list DIVIPOLA municipalities: %w", err)
	}

	known := make(map[string]struct{}, len(registry))
	for _, mun := range registry {
		known[mun.Code] = struct{}{}
	}

	report := MunicipalityReport{Checked: len(entries)}
	for _, e := range entries {
		if _, ok := known[corecatalog.NormalizeCode(corecatalog.Municipality, e.Code)]; !ok {
			report.Unknown = append(report.Unknown, e)
		}
	}

	m.logger.Info("Municipality catalog verified", "checked", report.Checked, "unknown", len(report.Unknown))
	return report, nil
}

func touchedCatalogs(entries []corecatalog.Entry) []corecatalog.Name {
	seen := map[corecatalog.Name]struct{}{}
	for _, e := range entries {
		seen[e.Catalog] = struct{}{}
	}
	names := make([]corecatalog.Name, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
