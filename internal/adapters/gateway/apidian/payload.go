package apidian

import (
	"github.com/shopspring/decimal"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/tax"
)

// Payload is the JSON body posted to the gateway. It is built with
// NewPayload and also returned by the preview endpoint.
type Payload map[string]any

type partyPayload struct {
	IdentificationNumber         string `json:"identification_number"`
	DV                           string `json:"dv"`
	Name                         string `json:"name"`
	Phone                        string `json:"phone"`
	Address                      string `json:"address"`
	Email                        string `json:"email"`
	MerchantRegistration         string `json:"merchant_registration"`
	TypeDocumentIdentificationID int    `json:"type_document_identification_id"`
	TypeOrganizationID           int    `json:"type_organization_id"`
	TypeLiabilityID              int    `json:"type_liability_id"`
	MunicipalityID               int    `json:"municipality_id"`
	TypeRegimeID                 int    `json:"type_regime_id"`
}

type paymentFormPayload struct {
	PaymentFormID   int    `json:"payment_form_id"`
	PaymentMethodID int    `json:"payment_method_id"`
	PaymentDueDate  string `json:"payment_due_date,omitempty"`
	DurationMeasure string `json:"duration_measure,omitempty"`
}

type totalsPayload struct {
	LineExtensionAmount  string `json:"line_extension_amount"`
	TaxExclusiveAmount   string `json:"tax_exclusive_amount"`
	TaxInclusiveAmount   string `json:"tax_inclusive_amount"`
	AllowanceTotalAmount string `json:"allowance_total_amount"`
	ChargeTotalAmount    string `json:"charge_total_amount"`
	PayableAmount        string `json:"payable_amount"`
}

type taxTotalPayload struct {
	TaxID           int    `json:"tax_id"`
	TaxName         string `json:"tax_name,omitempty"`
	TaxAmount       string `json:"tax_amount"`
	TaxableAmount   string `json:"taxable_amount"`
	Percent         string `json:"percent,omitempty"`
	UnitMeasureID   int    `json:"unit_measure_id,omitempty"`
	PerUnitAmount   string `json:"per_unit_amount,omitempty"`
	BaseUnitMeasure string `json:"base_unit_measure,omitempty"`
}

type allowanceChargePayload struct {
	DiscountID            int    `json:"discount_id,omitempty"`
	ChargeIndicator       bool   `json:"charge_indicator"`
	AllowanceChargeReason string `json:"allowance_charge_reason"`
	Amount                string `json:"amount"`
	BaseAmount            string `json:"base_amount"`
}

type linePayload struct {
	UnitMeasureID            int                      `json:"unit_measure_id"`
	InvoicedQuantity         string                   `json:"invoiced_quantity"`
	LineExtensionAmount      string                   `json:"line_extension_amount"`
	FreeOfChargeIndicator    bool                     `json:"free_of_charge_indicator"`
	AllowanceCharges         []allowanceChargePayload `json:"allowance_charges,omitempty"`
	TaxTotals                []taxTotalPayload        `json:"tax_totals,omitempty"`
	Description              string                   `json:"description"`
	Code                     string                   `json:"code"`
	TypeItemIdentificationID int                      `json:"type_item_identification_id"`
	PriceAmount              string                   `json:"price_amount"`
	BaseQuantity             string                   `json:"base_quantity"`
}

type billingReferencePayload struct {
	Number    string `json:"number"`
	UUID      string `json:"uuid"`
	IssueDate string `json:"issue_date"`
}

type invoicePeriodPayload struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type orderReferencePayload struct {
	IDOrder string `json:"id_order"`
}

// NewPayload maps an assembled document to the gateway schema.
func NewPayload(doc document.Document) Payload {
	if doc.Type == document.Payroll && doc.Payroll != nil {
		return payrollPayload(doc)
	}

	p := Payload{
		"type_document_id":      int(doc.Type),
		"prefix":                doc.Number.Prefix,
		"number":                doc.Number.Number,
		"date":                  doc.Date,
		"time":                  doc.Time,
		"resolution_number":     doc.ResolutionNumber,
		"type_operation_id":     doc.TypeOperationID,
		"sendmail":              doc.SendMail,
		"legal_monetary_totals": totals(doc.Totals),
		"tax_totals":            taxTotals(doc.TaxTotals),
	}
	if doc.HeadNote != "" {
		p["head_note"] = doc.HeadNote
	}
	if doc.Party != nil {
		p[doc.PartyRole()] = party(*doc.Party)
	}
	if doc.PaymentForm != nil {
		p["payment_form"] = paymentFormPayload{
			PaymentFormID:   doc.PaymentForm.PaymentFormID,
			PaymentMethodID: doc.PaymentForm.PaymentMethodID,
			PaymentDueDate:  doc.PaymentForm.PaymentDueDate,
			DurationMeasure: doc.PaymentForm.DurationMeasure,
		}
	}
	if len(doc.AllowanceCharges) > 0 {
		p["allowance_charges"] = allowanceCharges(doc.AllowanceCharges)
	}
	if len(doc.WithholdingTaxTotals) > 0 {
		p["with_holding_tax_total"] = taxTotals(doc.WithholdingTaxTotals)
	}

	lines := make([]linePayload, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		lines = append(lines, line(l))
	}
	if doc.Type.IsCreditNote() {
		p["credit_note_lines"] = lines
	} else {
		p["invoice_lines"] = lines
	}

	if ref := doc.BillingReference; ref != nil {
		p["billing_reference"] = billingReferencePayload{Number: ref.Number, UUID: ref.UUID, IssueDate: ref.IssueDate}
	}
	if d := doc.DiscrepancyResponse; d != nil {
		p["discrepancyresponsecode"] = d.Code
		p["discrepancyresponsedescription"] = d.Description
	}
	if ip := doc.InvoicePeriod; ip != nil {
		p["invoice_period"] = invoicePeriodPayload{StartDate: ip.StartDate, EndDate: ip.EndDate}
	}
	if or := doc.OrderReference; or != nil {
		p["order_reference"] = orderReferencePayload{IDOrder: or.ID}
	}
	return p
}

func party(pt document.Party) partyPayload {
	return partyPayload{
		IdentificationNumber:         pt.IdentificationNumber,
		DV:                           pt.DV,
		Name:                         pt.Name,
		Phone:                        pt.Phone,
		Address:                      pt.Address,
		Email:                        pt.Email,
		MerchantRegistration:         pt.MerchantRegistration,
		TypeDocumentIdentificationID: pt.TypeDocumentIdentificationID,
		TypeOrganizationID:           pt.TypeOrganizationID,
		TypeLiabilityID:              pt.TypeLiabilityID,
		MunicipalityID:               pt.MunicipalityID,
		TypeRegimeID:                 pt.TypeRegimeID,
	}
}

func totals(t document.MonetaryTotals) totalsPayload {
	return totalsPayload{
		LineExtensionAmount:  amount(t.LineExtension),
		TaxExclusiveAmount:   amount(t.TaxExclusive),
		TaxInclusiveAmount:   amount(t.TaxInclusive),
		AllowanceTotalAmount: amount(t.AllowanceTotal),
		ChargeTotalAmount:    amount(t.ChargeTotal),
		PayableAmount:        amount(t.Payable),
	}
}

func taxTotals(in []tax.TaxTotal) []taxTotalPayload {
	out := make([]taxTotalPayload, 0, len(in))
	for _, t := range in {
		tp := taxTotalPayload{
			TaxID:         t.TaxID,
			TaxName:       t.TaxName,
			TaxAmount:     amount(t.TaxAmount),
			TaxableAmount: amount(t.TaxableAmount),
		}
		if t.IsPerUnit() {
			tp.UnitMeasureID = t.UnitMeasureID
			tp.PerUnitAmount = amount(t.PerUnitAmount.Decimal)
			tp.BaseUnitMeasure = amount(t.BaseUnitMeasure.Decimal)
		} else if t.Percent.Valid {
			tp.Percent = amount(t.Percent.Decimal)
		}
		out = append(out, tp)
	}
	return out
}

func allowanceCharges(in []tax.AllowanceCharge) []allowanceChargePayload {
	out := make([]allowanceChargePayload, 0, len(in))
	for _, a := range in {
		out = append(out, allowanceChargePayload{
			DiscountID:            a.DiscountID,
			ChargeIndicator:       a.ChargeIndicator,
			AllowanceChargeReason: a.Reason,
			Amount:                amount(a.Amount),
			BaseAmount:            amount(a.BaseAmount),
		})
	}
	return out
}

func line(l document.LineItem) linePayload {
	lp := linePayload{
		UnitMeasureID:            l.UnitMeasureID,
		InvoicedQuantity:         amount(l.InvoicedQuantity),
		LineExtensionAmount:      amount(l.LineExtensionAmount),
		FreeOfChargeIndicator:    l.FreeOfChargeIndicator,
		Description:              l.Description,
		Code:                     l.Code,
		TypeItemIdentificationID: l.TypeItemIdentificationID,
		PriceAmount:              amount(l.PriceAmount),
		BaseQuantity:             amount(l.BaseQuantity),
	}
	if len(l.AllowanceCharges) > 0 {
		lp.AllowanceCharges = allowanceCharges(l.AllowanceCharges)
	}
	if len(l.TaxTotals) > 0 {
		lp.TaxTotals = taxTotals(l.TaxTotals)
	}
	return lp
}

// amount renders a decimal with exactly two fraction digits.
func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
