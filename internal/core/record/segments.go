package record

import (
	"errors"
	"strings"
)

// Segments holds the raw segments of one exported document, keyed by kind.
// Which ones are present depends on the document type.
type Segments struct {
	Header           string `json:"header" validate:"required"`
	Customer         string `json:"customer,omitempty"`
	Totals           string `json:"totals,omitempty"`
	Taxes            string `json:"taxes,omitempty"`
	Lines            string `json:"lines,omitempty"`
	Payment          string `json:"payment,omitempty"`
	Discounts        string `json:"discounts,omitempty"`
	BillingReference string `json:"billing_reference,omitempty"`
	Worker           string `json:"worker,omitempty"`
	Period           string `json:"period,omitempty"`
	Accrued          string `json:"accrued,omitempty"`
	Deductions       string `json:"deductions,omitempty"`
	PayrollPayment   string `json:"payroll_payment,omitempty"`
}

// Invoice is the typed form of an invoice, credit note or support document export.
type Invoice struct {
	Header           Header
	Party            Party
	Totals           Totals
	Taxes            []TaxEntry
	Lines            []Line
	Payment          *Payment
	Discounts        []Discount
	BillingReference *BillingReference
}

// Payroll is the typed form of a payroll export.
type Payroll struct {
	Header     Header
	Worker     Worker
	Period     Period
	Accrued    Accrued
	Deductions Deductions
	Payment    PayrollPayment
}

// ParseInvoice parses every segment of an invoice-like export.
func ParseInvoice(s Segments) (Invoice, error) {
	var (
		doc Invoice
		err error
	)
	if doc.Header, err = ParseHeader(s.Header); err != nil {
		return Invoice{}, err
	}
	if err := requireSegment(KindParty, s.Customer); err != nil {
		return Invoice{}, err
	}
	if doc.Party, err = ParseParty(s.Customer); err != nil {
		return Invoice{}, err
	}
	if err := requireSegment(KindTotals, s.Totals); err != nil {
		return Invoice{}, err
	}
	if doc.Totals, err = ParseTotals(s.Totals); err != nil {
		return Invoice{}, err
	}
	if doc.Taxes, err = ParseTaxes(s.Taxes); err != nil {
		return Invoice{}, err
	}
	if doc.Lines, err = ParseLines(s.Lines); err != nil {
		return Invoice{}, err
	}
	if len(doc.Lines) == 0 {
		return Invoice{}, &MalformedRecordError{Segment: KindLine, Entry: -1, Index: -1, Reason: "at least one line is required"}
	}
	if strings.TrimSpace(s.Payment) != "" {
		payment, err := ParsePayment(s.Payment)
		if err != nil {
			return Invoice{}, err
		}
		doc.Payment = &payment
	}
	if doc.Discounts, err = ParseDiscounts(s.Discounts); err != nil {
		return Invoice{}, err
	}
	if strings.TrimSpace(s.BillingReference) != "" {
		ref, err := ParseBillingReference(s.BillingReference)
		if err != nil {
			return Invoice{}, err
		}
		doc.BillingReference = &ref
	}
	return doc, nil
}

// ParsePayroll parses every segment of a payroll export.
func ParsePayroll(s Segments) (Payroll, error) {
	var (
		doc Payroll
		err error
	)
	if doc.Header, err = ParseHeader(s.Header); err != nil {
		return Payroll{}, err
	}
	required := map[Kind]string{
		KindWorker:         s.Worker,
		KindPeriod:         s.Period,
		KindAccrued:        s.Accrued,
		KindDeductions:     s.Deductions,
		KindPayrollPayment: s.PayrollPayment,
	}
	for _, kind := range []Kind{KindWorker, KindPeriod, KindAccrued, KindDeductions, KindPayrollPayment} {
		if err := requireSegment(kind, required[kind]); err != nil {
			return Payroll{}, err
		}
	}
	if doc.Worker, err = ParseWorker(s.Worker); err != nil {
		return Payroll{}, err
	}
	if doc.Period, err = ParsePeriod(s.Period); err != nil {
		return Payroll{}, err
	}
	if doc.Accrued, err = ParseAccrued(s.Accrued); err != nil {
		return Payroll{}, err
	}
	if doc.Deductions, err = ParseDeductions(s.Deductions); err != nil {
		return Payroll{}, err
	}
	if doc.Payment, err = ParsePayrollPayment(s.PayrollPayment); err != nil {
		return Payroll{}, err
	}
	return doc, nil
}

func requireSegment(kind Kind, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &MalformedRecordError{Segment: kind, Entry: -1, Index: -1, Reason: "segment is missing"}
	}
	return nil
}

// IsMalformed is a shorthand for errors.Is(err, ErrMalformedRecord).
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedRecord)
}
