package apidian

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/tax"
)

func TestNewPayload_PartyRole(t *testing.T) {
	tests := []struct {
		docType   document.Type
		wantKey   string
		wantLines string
	}{
		{document.Invoice, "customer", "invoice_lines"},
		{document.CreditNote, "customer", "credit_note_lines"},
		{document.SupportDocument, "seller", "invoice_lines"},
		{document.CreditNoteSupport, "seller", "credit_note_lines"},
	}

	for _, tt := range tests {
		t.Run(tt.docType.String(), func(t *testing.T) {
			p := NewPayload(sampleDocument(tt.docType))

			if _, ok := p[tt.wantKey]; !ok {
				t.Errorf("expected %s key", tt.wantKey)
			}
			if _, ok := p[tt.wantLines]; !ok {
				t.Errorf("expected %s key", tt.wantLines)
			}
			if p["type_document_id"] != int(tt.docType) {
				t.Errorf("expected type_document_id %d, got %v", tt.docType, p["type_document_id"])
			}
		})
	}
}

func TestNewPayload_TaxShapes(t *testing.T) {
	doc := sampleDocument(document.Invoice)
	doc.TaxTotals = append(doc.TaxTotals, tax.TaxTotal{
		TaxID:           10,
		TaxAmount:       decimal.NewFromInt(300),
		TaxableAmount:   decimal.NewFromInt(3),
		UnitMeasureID:   tax.PerUnitMeasureID,
		PerUnitAmount:   decimal.NewNullDecimal(decimal.NewFromInt(100)),
		BaseUnitMeasure: decimal.NewNullDecimal(decimal.NewFromInt(1)),
	})

	data, err := json.Marshal(NewPayload(doc))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		TaxTotals []map[string]any `json:"tax_totals"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.TaxTotals) != 2 {
		t.Fatalf("expected 2 tax totals, got %d", len(decoded.TaxTotals))
	}

	percent := decoded.TaxTotals[0]
	if percent["percent"] != "19.00" {
		t.Errorf("expected percent 19.00, got %v", percent["percent"])
	}
	if _, ok := percent["per_unit_amount"]; ok {
		t.Error("percentage tax must not carry per_unit_amount")
	}

	perUnit := decoded.TaxTotals[1]
	if perUnit["per_unit_amount"] != "100.00" || perUnit["base_unit_measure"] != "1.00" {
		t.Errorf("unexpected per-unit fields: %v", perUnit)
	}
	if _, ok := perUnit["percent"]; ok {
		t.Error("per-unit tax must not carry percent")
	}
}

func TestNewPayload_CreditNoteReferences(t *testing.T) {
	doc := sampleDocument(document.CreditNote)
	doc.BillingReference = &document.BillingReference{Number: "FACT1", UUID: "abc", IssueDate: "2024-01-01"}
	doc.DiscrepancyResponse = &document.DiscrepancyResponse{Code: 2, Description: "Anulación"}

	p := NewPayload(doc)

	if p["discrepancyresponsecode"] != 2 {
		t.Errorf("expected discrepancy code 2, got %v", p["discrepancyresponsecode"])
	}
	ref, ok := p["billing_reference"].(billingReferencePayload)
	if !ok || ref.UUID != "abc" {
		t.Errorf("unexpected billing reference %v", p["billing_reference"])
	}
}

func TestNewPayload_Payroll(t *testing.T) {
	doc := sampleDocument(document.Payroll)
	doc.Payroll = &document.PayrollPayload{
		PayrollPeriodID: 5,
		Worker:          document.Worker{FirstName: "ANA", Salary: decimal.NewFromInt(1300000), IntegralSalary: true},
		PaymentDates:    []string{"2024-01-31"},
	}

	data, err := json.Marshal(NewPayload(doc))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(data, &decoded)

	if decoded["consecutive"] != "0001" {
		t.Errorf("expected consecutive 0001, got %v", decoded["consecutive"])
	}
	if _, ok := decoded["invoice_lines"]; ok {
		t.Error("payroll must not carry invoice lines")
	}
	worker := decoded["worker"].(map[string]any)
	if worker["salary"] != "1300000.00" || worker["integral_salarary"] != true {
		t.Errorf("unexpected worker %v", worker)
	}
	dates := decoded["payment_dates"].([]any)
	if len(dates) != 1 {
		t.Errorf("expected one payment date, got %v", dates)
	}
}
