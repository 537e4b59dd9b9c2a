package file

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
)

func TestLoadYAML(t *testing.T) {
	seed := `
tax:
  - code: "01"
    id: 1
    description: IVA
municipality:
  - code: "5001"
    id: 149
    description: Medellín
`
	entries, err := LoadYAML(strings.NewReader(seed))

	require.NoError(t, err)
	assert.Equal(t, []catalog.Entry{
		{Catalog: catalog.Municipality, Code: "05001", ID: 149, Description: "Medellín"},
		{Catalog: catalog.Tax, Code: "01", ID: 1, Description: "IVA"},
	}, entries)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		seed string
		want string
	}{
		{"unknown catalog", "currency:\n  - code: COP\n    id: 1\n", `unknown catalog "currency"`},
		{"blank code", "tax:\n  - code: \"\"\n    id: 1\n", "tax[0]: blank code"},
		{"zero id", "tax:\n  - code: \"01\"\n", "id must be positive"},
		{"not yaml", "tax: [", "decode catalog seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(tt.seed))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	entries, err := LoadYAML(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cellName, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cellName, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoadWorkbook(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"unit_measure": {
			{"code", "id", "description"},
			{"94", 70, "unidad"},
			{},
			{"KGM", 767, "kilogramo"},
		},
		"notes": {{"anything"}},
	})

	entries, skipped, err := LoadWorkbook(buf)

	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, skipped)
	assert.Equal(t, []catalog.Entry{
		{Catalog: catalog.UnitMeasure, Code: "94", ID: 70, Description: "unidad"},
		{Catalog: catalog.UnitMeasure, Code: "KGM", ID: 767, Description: "kilogramo"},
	}, entries)
}

func TestLoadWorkbook_InvalidID(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"tax": {
			{"01", 1, "IVA"},
			{"04", "x", "INC"},
		},
	})

	_, _, err := LoadWorkbook(buf)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet tax row 2")
}
