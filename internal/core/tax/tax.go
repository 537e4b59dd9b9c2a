package tax

import "github.com/shopspring/decimal"

// Canonical ids and labels used by the policy table.
const (
	TobaccoTaxID   = 15
	TobaccoTaxName = "Impuesto al tabaco"

	// PerUnitMeasureID is the unit measure reported on per-unit taxes.
	PerUnitMeasureID = 70
)

// TaxTotal is one tax of a document or a line. Exactly one shape is
// populated: Percent for percentage taxes, or PerUnitAmount together with
// UnitMeasureID and BaseUnitMeasure for per-unit taxes.
type TaxTotal struct {
	TaxID           int
	TaxName         string
	Percent         decimal.NullDecimal
	TaxableAmount   decimal.Decimal
	TaxAmount       decimal.Decimal
	UnitMeasureID   int
	PerUnitAmount   decimal.NullDecimal
	BaseUnitMeasure decimal.NullDecimal
}

// IsPerUnit reports whether the total uses the per-unit shape.
func (t TaxTotal) IsPerUnit() bool {
	return t.PerUnitAmount.Valid
}

// AllowanceCharge is a discount (ChargeIndicator false) or a charge.
type AllowanceCharge struct {
	ChargeIndicator bool
	Reason          string
	DiscountID      int
	Amount          decimal.Decimal
	BaseAmount      decimal.Decimal
}

// Result splits document taxes into the main list and the withholding bucket.
type Result struct {
	Main        []TaxTotal
	Withholding []TaxTotal
}

// TotalAmount sums the tax amount of the main list.
func (r Result) TotalAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range r.Main {
		sum = sum.Add(t.TaxAmount)
	}
	return sum
}

// LineResult is the tax outcome of one detail line.
type LineResult struct {
	TaxTotals        []TaxTotal
	AllowanceCharges []AllowanceCharge
	Withholding      []TaxTotal
}

// Input carries the raw amounts of one tax before its policy is applied.
type Input struct {
	Percent       decimal.Decimal
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
	PerUnitAmount decimal.Decimal
	Name          string
}
