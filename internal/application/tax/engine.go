package tax

import (
	"fmt"
	"log/slog"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
	coretax "github.com/Darklegion92/backend-DIAN-sub001/internal/core/tax"
)

// DiscountReason is the label of line-level discounts.
const DiscountReason = "Descuento"

// Engine builds document and line tax totals from one policy table.
type Engine struct {
	policies coretax.PolicyTable
	logger   *slog.Logger
}

// NewEngine creates an engine. A nil table means DefaultPolicies.
func NewEngine(policies coretax.PolicyTable, logger *slog.Logger) *Engine {
	if policies == nil {
		policies = coretax.DefaultPolicies()
	}
	return &Engine{policies: policies, logger: logger}
}

// ComputeTaxTotals applies the policy table to the document taxes segment.
// Output order follows input order within each bucket.
func (e *Engine) ComputeTaxTotals(entries []record.TaxEntry, codes catalog.Codes) (coretax.Result, error) {
	var result coretax.Result
	for i, entry := range entries {
		taxID, err := codes.MustID(catalog.Tax, entry.Code)
		if err != nil {
			return coretax.Result{}, fmt.Errorf("tax entry %d: %w", i, err)
		}
		total, withholding := e.policies.Apply(taxID, coretax.Input{
			Percent:       entry.Percent,
			TaxableAmount: entry.TaxableAmount,
			TaxAmount:     entry.TaxAmount,
			PerUnitAmount: entry.PerUnitAmount,
			Name:          entry.Name,
		})
		if withholding {
			result.Withholding = append(result.Withholding, total)
			continue
		}
		result.Main = append(result.Main, total)
	}
	return result, nil
}

// ComputeLineTaxTotals builds the taxes and allowances of one detail line.
// The discount marker and the tobacco marker are evaluated independently.
func (e *Engine) ComputeLineTaxTotals(line record.Line, codes catalog.Codes) (coretax.LineResult, error) {
	var result coretax.LineResult

	taxable, amount := line.TaxableAmount, line.TaxAmount
	if line.HasDiscount() && line.Discount != nil {
		taxable, amount = line.Discount.TaxableAmount, line.Discount.TaxAmount

		discountID, err := codes.MustID(catalog.Discount, line.Discount.Code)
		if err != nil {
			return coretax.LineResult{}, fmt.Errorf("line %s discount: %w", line.Code, err)
		}
		result.AllowanceCharges = append(result.AllowanceCharges, coretax.AllowanceCharge{
			ChargeIndicator: false,
			Reason:          DiscountReason,
			DiscountID:      discountID,
			Amount:          line.Discount.Amount,
			BaseAmount:      line.LineExtension.Add(line.Discount.Amount),
		})
	}

	if line.TaxCode != "" {
		taxID, err := codes.MustID(catalog.Tax, line.TaxCode)
		if err != nil {
			return coretax.LineResult{}, fmt.Errorf("line %s tax: %w", line.Code, err)
		}
		// Field 8 holds the percent, or the per-unit amount for per-unit taxes.
		total, withholding := e.policies.Apply(taxID, coretax.Input{
			Percent:       line.TaxPercent,
			TaxableAmount: taxable,
			TaxAmount:     amount,
			PerUnitAmount: line.TaxPercent,
		})
		if withholding {
			result.Withholding = append(result.Withholding, total)
		} else {
			result.TaxTotals = append(result.TaxTotals, total)
		}
	}

	switch {
	case line.TobaccoErr != nil:
		e.logger.Warn("tobacco tax block ignored",
			"line_code", line.Code,
			"error", line.TobaccoErr,
		)
	case line.Tobacco != nil:
		result.TaxTotals = append(result.TaxTotals, coretax.Tobacco(
			line.Tobacco.Percent,
			line.Tobacco.TaxableAmount,
			line.Tobacco.TaxAmount,
		))
	}

	return result, nil
}

// Lookups lists the catalog codes needed to compute the taxes of a document.
func Lookups(entries []record.TaxEntry, lines []record.Line) []catalog.Lookup {
	lookups := make([]catalog.Lookup, 0, len(entries)+len(lines))
	for _, entry := range entries {
		lookups = append(lookups, catalog.NewLookup(catalog.Tax, entry.Code))
	}
	for _, line := range lines {
		if line.TaxCode != "" {
			lookups = append(lookups, catalog.NewLookup(catalog.Tax, line.TaxCode))
		}
		if line.HasDiscount() && line.Discount != nil {
			lookups = append(lookups, catalog.NewLookup(catalog.Discount, line.Discount.Code))
		}
	}
	return lookups
}
