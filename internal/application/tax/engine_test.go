package tax

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCodes() catalog.Codes {
	return catalog.Codes{
		catalog.NewLookup(catalog.Tax, "01"):      1,
		catalog.NewLookup(catalog.Tax, "TAB"):     2,
		catalog.NewLookup(catalog.Tax, "06"):      6,
		catalog.NewLookup(catalog.Tax, "05"):      5,
		catalog.NewLookup(catalog.Tax, "22"):      11,
		catalog.NewLookup(catalog.Discount, "01"): 13,
	}
}

func newEngine() *Engine {
	return NewEngine(nil, testutil.NewNullLogger())
}

func TestComputeTaxTotals_SplitsBuckets(t *testing.T) {
	taxes, err := record.ParseTaxes("01|19|1000|190~06|2.5|1000|25~22|0|0|100|50|Bolsas~05|15|190|28.5")
	require.NoError(t, err)

	result, err := newEngine().ComputeTaxTotals(taxes, testCodes())
	require.NoError(t, err)

	require.Len(t, result.Main, 2)
	assert.Equal(t, 1, result.Main[0].TaxID)
	assert.Equal(t, 11, result.Main[1].TaxID)
	assert.True(t, result.Main[1].IsPerUnit())
	assert.True(t, result.Main[1].PerUnitAmount.Decimal.Equal(dec("50")))

	require.Len(t, result.Withholding, 2)
	assert.Equal(t, 6, result.Withholding[0].TaxID)
	assert.Equal(t, 5, result.Withholding[1].TaxID)
}

func TestComputeTaxTotals_TobaccoRename(t *testing.T) {
	taxes, err := record.ParseTaxes("TAB|10|2000|200")
	require.NoError(t, err)

	result, err := newEngine().ComputeTaxTotals(taxes, testCodes())
	require.NoError(t, err)
	require.Len(t, result.Main, 1)
	assert.Equal(t, 15, result.Main[0].TaxID)
	assert.Equal(t, "Impuesto al tabaco", result.Main[0].TaxName)
	assert.Empty(t, result.Withholding)
}

func TestComputeTaxTotals_UnresolvedCode(t *testing.T) {
	taxes, err := record.ParseTaxes("99|19|1000|190")
	require.NoError(t, err)

	_, err = newEngine().ComputeTaxTotals(taxes, testCodes())
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestComputeLineTaxTotals_Plain(t *testing.T) {
	lines, err := record.ParseLines("P1|Producto|94|2|500|1000|999|01|19|190|1000|")
	require.NoError(t, err)

	result, err := newEngine().ComputeLineTaxTotals(lines[0], testCodes())
	require.NoError(t, err)
	require.Len(t, result.TaxTotals, 1)
	assert.True(t, result.TaxTotals[0].TaxAmount.Equal(dec("190")))
	assert.True(t, result.TaxTotals[0].TaxableAmount.Equal(dec("1000")))
	assert.Empty(t, result.AllowanceCharges)
}

func TestComputeLineTaxTotals_DiscountSelectsDiscountedFields(t *testing.T) {
	lines, err := record.ParseLines("P2|Otro|94|1|1000|900|999|01|19|190|1000|DESCUENTO ITEM|100|01|900|171")
	require.NoError(t, err)

	result, err := newEngine().ComputeLineTaxTotals(lines[0], testCodes())
	require.NoError(t, err)

	require.Len(t, result.TaxTotals, 1)
	assert.True(t, result.TaxTotals[0].TaxableAmount.Equal(dec("900")))
	assert.True(t, result.TaxTotals[0].TaxAmount.Equal(dec("171")))

	require.Len(t, result.AllowanceCharges, 1)
	ac := result.AllowanceCharges[0]
	assert.False(t, ac.ChargeIndicator)
	assert.Equal(t, "Descuento", ac.Reason)
	assert.Equal(t, 13, ac.DiscountID)
	assert.True(t, ac.Amount.Equal(dec("100")))
	assert.True(t, ac.BaseAmount.Equal(dec("1000")))
}

func TestComputeLineTaxTotals_BothMarkers(t *testing.T) {
	lines, err := record.ParseLines("P3|Cig|94|1|2000|1900|999|01|19|361|1900|DESCUENTO ITEM|100|01|1900|361|IMPUESTO TABACO|1900|285|15")
	require.NoError(t, err)

	result, err := newEngine().ComputeLineTaxTotals(lines[0], testCodes())
	require.NoError(t, err)

	require.Len(t, result.TaxTotals, 2)
	assert.Equal(t, 1, result.TaxTotals[0].TaxID)
	assert.Equal(t, 15, result.TaxTotals[1].TaxID)
	assert.Equal(t, "Impuesto al tabaco", result.TaxTotals[1].TaxName)
	assert.True(t, result.TaxTotals[1].TaxAmount.Equal(dec("285")))
	assert.Len(t, result.AllowanceCharges, 1)
}

func TestComputeLineTaxTotals_BrokenTobaccoIsBestEffort(t *testing.T) {
	lines, err := record.ParseLines("P3|Cig|94|1|2000|2000|999|01|19|380|2000||||||IMPUESTO TABACO|2000|abc")
	require.NoError(t, err)

	result, err := newEngine().ComputeLineTaxTotals(lines[0], testCodes())
	require.NoError(t, err)
	require.Len(t, result.TaxTotals, 1)
	assert.Equal(t, 1, result.TaxTotals[0].TaxID)
}

func TestComputeLineTaxTotals_PerUnitUsesField8(t *testing.T) {
	lines, err := record.ParseLines("B1|Bolsa|94|3|100|300|999|22|66|198|300|")
	require.NoError(t, err)

	result, err := newEngine().ComputeLineTaxTotals(lines[0], testCodes())
	require.NoError(t, err)
	require.Len(t, result.TaxTotals, 1)

	total := result.TaxTotals[0]
	assert.True(t, total.IsPerUnit())
	assert.True(t, total.PerUnitAmount.Decimal.Equal(dec("66")))
	assert.Equal(t, 70, total.UnitMeasureID)
	assert.False(t, total.Percent.Valid)
}

func TestComputeLineTaxTotals_WithholdingLeavesLine(t *testing.T) {
	lines, err := record.ParseLines("S1|Servicio|94|1|1000|1000|999|06|2.5|25|1000|")
	require.NoError(t, err)

	result, err := newEngine().ComputeLineTaxTotals(lines[0], testCodes())
	require.NoError(t, err)
	assert.Empty(t, result.TaxTotals)
	require.Len(t, result.Withholding, 1)
	assert.Equal(t, 6, result.Withholding[0].TaxID)
}

func TestLookups(t *testing.T) {
	taxes, _ := record.ParseTaxes("01|19|1000|190")
	lines, _ := record.ParseLines("P2|Otro|94|1|1000|900|999|04|8|72|900|DESCUENTO ITEM|100|02|900|72")

	assert.Equal(t, []catalog.Lookup{
		{Catalog: catalog.Tax, Code: "01"},
		{Catalog: catalog.Tax, Code: "04"},
		{Catalog: catalog.Discount, Code: "02"},
	}, Lookups(taxes, lines))
}
