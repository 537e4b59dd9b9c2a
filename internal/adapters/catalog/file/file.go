// Package file loads catalog entries from seed files: a YAML document or a
// workbook with one sheet per catalog.
package file

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
)

// yamlEntry is one row of a YAML seed.
type yamlEntry struct {
	Code        string `yaml:"code"`
	ID          int    `yaml:"id"`
	Description string `yaml:"description"`
}

// LoadYAML reads a seed of the form
//
//	municipality:
//	  - code: "05001"
//	    id: 149
//	    description: Medellín
//
// Unknown catalogs, blank codes and non-positive ids are rejected.
func LoadYAML(r io.Reader) ([]catalog.Entry, error) {
	var doc map[string][]yamlEntry
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	var entries []catalog.Entry
	for _, raw := range names {
		name := catalog.Name(raw)
		if !name.Valid() {
			return nil, fmt.Errorf("unknown catalog %q", raw)
		}
		for i, e := range doc[raw] {
			entry, err := newEntry(name, e.Code, e.ID, e.Description)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", raw, i, err)
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// LoadWorkbook reads an xlsx workbook. Each sheet is named after a catalog
// and holds the columns code, id and description. A first row whose id
// column is not numeric is treated as a header. Sheets that do not name a
// catalog are skipped and reported in skipped.
func LoadWorkbook(r io.Reader) (entries []catalog.Entry, skipped []string, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		name := catalog.Name(strings.TrimSpace(sheet))
		if !name.Valid() {
			skipped = append(skipped, sheet)
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for i, row := range rows {
			if isBlank(row) {
				continue
			}
			code, rawID, description := cell(row, 0), cell(row, 1), cell(row, 2)
			id, convErr := strconv.Atoi(rawID)
			if convErr != nil {
				if i == 0 {
					continue
				}
				return nil, nil, fmt.Errorf("sheet %s row %d: invalid id %q", sheet, i+1, rawID)
			}
			entry, err := newEntry(name, code, id, description)
			if err != nil {
				return nil, nil, fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
			}
			entries = append(entries, entry)
		}
	}
	return entries, skipped, nil
}

func newEntry(name catalog.Name, code string, id int, description string) (catalog.Entry, error) {
	code = catalog.NormalizeCode(name, code)
	if code == "" {
		return catalog.Entry{}, fmt.Errorf("blank code")
	}
	if id <= 0 {
		return catalog.Entry{}, fmt.Errorf("code %q: id must be positive, got %d", code, id)
	}
	return catalog.Entry{
		Catalog:     name,
		Code:        code,
		ID:          id,
		Description: strings.TrimSpace(description),
	}, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
