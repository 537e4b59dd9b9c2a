package tax

import "github.com/shopspring/decimal"

// PolicyKind selects how a resolved tax id is treated.
type PolicyKind int

const (
	Passthrough PolicyKind = iota
	Rename
	ReplaceWithPerUnit
	RouteToWithholding
)

func (k PolicyKind) String() string {
	switch k {
	case Rename:
		return "rename"
	case ReplaceWithPerUnit:
		return "replace_with_per_unit"
	case RouteToWithholding:
		return "route_to_withholding"
	default:
		return "passthrough"
	}
}

// Policy is one row of the policy table. TaxID and TaxName are only used by Rename.
type Policy struct {
	Kind    PolicyKind
	TaxID   int
	TaxName string
}

// PolicyTable maps resolved tax ids to their policy. Ids without a row pass through.
type PolicyTable map[int]Policy

// DefaultPolicies returns the table used in production.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		2:  {Kind: Rename, TaxID: TobaccoTaxID, TaxName: TobaccoTaxName},
		11: {Kind: ReplaceWithPerUnit},
		5:  {Kind: RouteToWithholding},
		6:  {Kind: RouteToWithholding},
		7:  {Kind: RouteToWithholding},
	}
}

// For returns the policy of taxID.
func (t PolicyTable) For(taxID int) Policy {
	if p, ok := t[taxID]; ok {
		return p
	}
	return Policy{Kind: Passthrough}
}

// Apply builds the TaxTotal for a resolved tax id and reports whether it
// belongs to the withholding bucket.
func (t PolicyTable) Apply(taxID int, in Input) (total TaxTotal, withholding bool) {
	policy := t.For(taxID)
	switch policy.Kind {
	case Rename:
		total = percentTotal(policy.TaxID, in)
		total.TaxName = policy.TaxName
	case ReplaceWithPerUnit:
		total = TaxTotal{
			TaxID:           taxID,
			TaxName:         in.Name,
			TaxableAmount:   in.TaxableAmount,
			TaxAmount:       in.TaxAmount,
			UnitMeasureID:   PerUnitMeasureID,
			PerUnitAmount:   decimal.NewNullDecimal(in.PerUnitAmount),
			BaseUnitMeasure: decimal.NewNullDecimal(decimal.NewFromInt(1)),
		}
	case RouteToWithholding:
		total = percentTotal(taxID, in)
		withholding = true
	default:
		total = percentTotal(taxID, in)
	}
	return total, withholding
}

func percentTotal(taxID int, in Input) TaxTotal {
	return TaxTotal{
		TaxID:         taxID,
		TaxName:       in.Name,
		Percent:       decimal.NewNullDecimal(in.Percent),
		TaxableAmount: in.TaxableAmount,
		TaxAmount:     in.TaxAmount,
	}
}

// Tobacco builds the secondary tobacco total attached to a detail line.
func Tobacco(percent, taxable, amount decimal.Decimal) TaxTotal {
	return TaxTotal{
		TaxID:         TobaccoTaxID,
		TaxName:       TobaccoTaxName,
		Percent:       decimal.NewNullDecimal(percent),
		TaxableAmount: taxable,
		TaxAmount:     amount,
	}
}
