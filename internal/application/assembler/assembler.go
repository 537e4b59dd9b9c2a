package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	apptax "github.com/Darklegion92/backend-DIAN-sub001/internal/application/tax"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/tax"
)

// PeriodicBillingOperationID is the operation type that carries an invoice period.
const PeriodicBillingOperationID = 12

// Resolver resolves every catalog lookup of one document.
type Resolver interface {
	ResolveBatch(ctx context.Context, lookups []catalog.Lookup) (catalog.Codes, error)
}

// Options carries data that does not come from the export itself.
type Options struct {
	ResolutionPrefix string
	TaxpayerID       string
}

// Assembler turns parsed segments into outbound documents.
type Assembler struct {
	resolver Resolver
	taxes    *apptax.Engine
	logger   *slog.Logger
}

// New creates an assembler.
func New(resolver Resolver, taxes *apptax.Engine, logger *slog.Logger) *Assembler {
	return &Assembler{
		resolver: resolver,
		taxes:    taxes,
		logger:   logger,
	}
}

// Assemble builds the document of type typeCode. It performs no writes; the
// only I/O is catalog resolution.
func (a *Assembler) Assemble(ctx context.Context, segments record.Segments, typeCode document.Type, opts Options) (document.Document, error) {
	if !typeCode.Valid() {
		return document.Document{}, fmt.Errorf("unsupported document type %d", typeCode)
	}
	if typeCode == document.Payroll {
		return a.assemblePayroll(ctx, segments, opts)
	}
	return a.assembleInvoice(ctx, segments, typeCode, opts)
}

func (a *Assembler) assembleInvoice(ctx context.Context, segments record.Segments, typeCode document.Type, opts Options) (document.Document, error) {
	in, err := record.ParseInvoice(segments)
	if err != nil {
		return document.Document{}, err
	}

	doc := document.Document{
		Type:             typeCode,
		TaxpayerID:       opts.TaxpayerID,
		ResolutionNumber: in.Header.Resolution,
		HeadNote:         in.Header.Note,
		SendMail:         shouldSendMail(in.Party, in.Header.SendMail),
	}
	if doc.Number, err = document.SplitNumber(in.Header.Number, opts.ResolutionPrefix); err != nil {
		return document.Document{}, err
	}
	if doc.Date, doc.Time, err = document.SplitTimestamp(in.Header.IssuedAt); err != nil {
		return document.Document{}, err
	}

	codes, err := a.resolver.ResolveBatch(ctx, invoiceLookups(in))
	if err != nil {
		return document.Document{}, fmt.Errorf("resolve catalog codes: %w", err)
	}

	if doc.TypeOperationID, err = codes.MustID(catalog.TypeOperation, in.Header.OperationType); err != nil {
		return document.Document{}, err
	}
	if doc.Party, err = buildParty(in.Party, codes); err != nil {
		return document.Document{}, err
	}
	if doc.PaymentForm, err = buildPaymentForm(in.Payment, codes); err != nil {
		return document.Document{}, err
	}

	taxes, err := a.taxes.ComputeTaxTotals(in.Taxes, codes)
	if err != nil {
		return document.Document{}, err
	}
	doc.TaxTotals = taxes.Main
	doc.WithholdingTaxTotals = taxes.Withholding

	if doc.Lines, err = a.buildLines(in.Lines, codes); err != nil {
		return document.Document{}, err
	}
	if doc.AllowanceCharges, err = buildDiscounts(in.Discounts, codes); err != nil {
		return document.Document{}, err
	}

	doc.Totals = reconcileTotals(in.Totals, taxes)

	if doc.TypeOperationID == PeriodicBillingOperationID {
		if doc.InvoicePeriod, err = buildInvoicePeriod(in.Header); err != nil {
			return document.Document{}, err
		}
	}
	if in.Header.OrderReference != "" {
		doc.OrderReference = &document.OrderReference{ID: in.Header.OrderReference}
	}
	if typeCode.IsCreditNote() && in.BillingReference != nil {
		if err := attachBillingReference(&doc, *in.BillingReference); err != nil {
			return document.Document{}, err
		}
	}
	return doc, nil
}

func invoiceLookups(in record.Invoice) []catalog.Lookup {
	lookups := []catalog.Lookup{catalog.NewLookup(catalog.TypeOperation, in.Header.OperationType)}
	lookups = append(lookups, partyLookups(in.Party)...)

	var form, method string
	if in.Payment != nil {
		form, method = in.Payment.Form, in.Payment.Method
	}
	lookups = append(lookups,
		catalog.NewLookup(catalog.PaymentForm, form),
		catalog.NewLookup(catalog.PaymentMethod, method),
	)

	for _, line := range in.Lines {
		lookups = append(lookups,
			catalog.NewLookup(catalog.UnitMeasure, line.UnitMeasure),
			catalog.NewLookup(catalog.TypeItemIdentification, line.ItemIdentification),
		)
	}
	for _, d := range in.Discounts {
		lookups = append(lookups, catalog.NewLookup(catalog.Discount, d.Code))
	}
	return append(lookups, apptax.Lookups(in.Taxes, in.Lines)...)
}

// buildPaymentForm falls back to cash payment when the segment is absent.
func buildPaymentForm(p *record.Payment, codes catalog.Codes) (*document.PaymentForm, error) {
	var raw record.Payment
	if p != nil {
		raw = *p
	}
	form, err := codes.MustID(catalog.PaymentForm, raw.Form)
	if err != nil {
		return nil, err
	}
	method, err := codes.MustID(catalog.PaymentMethod, raw.Method)
	if err != nil {
		return nil, err
	}
	return &document.PaymentForm{
		PaymentFormID:   form,
		PaymentMethodID: method,
		PaymentDueDate:  raw.DueDate,
		DurationMeasure: raw.Duration,
	}, nil
}

var one = decimal.NewFromInt(1)

func (a *Assembler) buildLines(lines []record.Line, codes catalog.Codes) ([]document.LineItem, error) {
	items := make([]document.LineItem, 0, len(lines))
	for _, line := range lines {
		unit, err := codes.MustID(catalog.UnitMeasure, line.UnitMeasure)
		if err != nil {
			return nil, err
		}
		itemType, err := codes.MustID(catalog.TypeItemIdentification, line.ItemIdentification)
		if err != nil {
			return nil, err
		}
		result, err := a.taxes.ComputeLineTaxTotals(line, codes)
		if err != nil {
			return nil, err
		}
		if len(result.Withholding) > 0 {
			a.logger.Debug("line withholding taxes excluded from line totals",
				"line_code", line.Code,
				"count", len(result.Withholding),
			)
		}

		quantity, base := line.Quantity, line.Quantity
		if quantity.IsZero() {
			quantity, base = one, one
		}
		items = append(items, document.LineItem{
			UnitMeasureID:            unit,
			InvoicedQuantity:         quantity,
			LineExtensionAmount:      line.LineExtension,
			PriceAmount:              line.Price,
			BaseQuantity:             base,
			TypeItemIdentificationID: itemType,
			Code:                     line.Code,
			Description:              line.Description,
			FreeOfChargeIndicator:    line.FreeOfCharge,
			TaxTotals:                result.TaxTotals,
			AllowanceCharges:         result.AllowanceCharges,
		})
	}
	return items, nil
}

func buildDiscounts(discounts []record.Discount, codes catalog.Codes) ([]tax.AllowanceCharge, error) {
	if len(discounts) == 0 {
		return nil, nil
	}
	charges := make([]tax.AllowanceCharge, 0, len(discounts))
	for _, d := range discounts {
		id, err := codes.MustID(catalog.Discount, d.Code)
		if err != nil {
			return nil, err
		}
		charges = append(charges, tax.AllowanceCharge{
			ChargeIndicator: false,
			Reason:          d.Reason,
			DiscountID:      id,
			Amount:          d.Amount,
			BaseAmount:      d.BaseAmount,
		})
	}
	return charges, nil
}

// reconcileTotals re-derives the tax exclusive amount when the export repeats
// the payable amount in it.
func reconcileTotals(t record.Totals, taxes tax.Result) document.MonetaryTotals {
	totals := document.MonetaryTotals{
		LineExtension:  t.LineExtension,
		TaxExclusive:   t.TaxExclusive,
		TaxInclusive:   t.TaxInclusive,
		Payable:        t.Payable,
		AllowanceTotal: t.AllowanceTotal,
		ChargeTotal:    t.ChargeTotal,
	}
	if totals.Payable.Equal(totals.TaxExclusive) {
		totals.TaxExclusive = totals.TaxExclusive.Sub(taxes.TotalAmount())
	}
	return totals
}

func buildInvoicePeriod(h record.Header) (*document.InvoicePeriod, error) {
	missing := func(index int) error {
		return &record.MalformedRecordError{
			Segment: record.KindHeader,
			Entry:   -1,
			Index:   index,
			Reason:  "invoice period is required for periodic billing",
		}
	}
	if h.PeriodStart == "" {
		return nil, missing(9)
	}
	if h.PeriodEnd == "" {
		return nil, missing(10)
	}
	return &document.InvoicePeriod{StartDate: h.PeriodStart, EndDate: h.PeriodEnd}, nil
}

func attachBillingReference(doc *document.Document, ref record.BillingReference) error {
	code, err := strconv.Atoi(ref.DiscrepancyCode)
	if err != nil {
		return &record.MalformedRecordError{
			Segment: record.KindBillingReference,
			Entry:   -1,
			Index:   3,
			Reason:  fmt.Sprintf("invalid discrepancy code %q", ref.DiscrepancyCode),
		}
	}
	doc.BillingReference = &document.BillingReference{
		Number:    ref.Number,
		UUID:      ref.UUID,
		IssueDate: ref.IssueDate,
	}
	doc.DiscrepancyResponse = &document.DiscrepancyResponse{
		Code:        code,
		Description: ref.DiscrepancyDescription,
	}
	return nil
}
