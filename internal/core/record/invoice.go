package record

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Header field offsets.
const (
	headerSeller = iota
	headerBranch
	headerOperationType
	headerNumber
	headerIssuedAt
	headerResolution
	headerNote
	headerSendMail
	headerOrderReference
	headerPeriodStart
	headerPeriodEnd

	headerRequired = headerResolution + 1
)

// Header is the first segment of every document.
type Header struct {
	SellerID       string
	Branch         string
	OperationType  string
	Number         string // composite: resolution prefix + consecutive
	IssuedAt       string // "YYYY-MM-DD HH:MM:SS"
	Resolution     string
	Note           string
	SendMail       string
	OrderReference string
	PeriodStart    string
	PeriodEnd      string
}

// ParseHeader tokenizes the header segment.
func ParseHeader(segment string) (Header, error) {
	f := newFields(KindHeader, -1, segment, FieldSeparator)
	if err := f.require(headerRequired); err != nil {
		return Header{}, err
	}
	return Header{
		SellerID:       f.at(headerSeller),
		Branch:         f.at(headerBranch),
		OperationType:  f.at(headerOperationType),
		Number:         f.at(headerNumber),
		IssuedAt:       f.at(headerIssuedAt),
		Resolution:     f.at(headerResolution),
		Note:           f.optional(headerNote),
		SendMail:       f.optional(headerSendMail),
		OrderReference: f.optional(headerOrderReference),
		PeriodStart:    f.optional(headerPeriodStart),
		PeriodEnd:      f.optional(headerPeriodEnd),
	}, nil
}

// Party field offsets; fields from partyAddress on fall back to defaults when blank.
const (
	partyIdentification = iota
	partyDV
	partyName
	partyDocumentType
	partyOrganization
	partyRegime
	partyLiability
	partyMunicipality
	partyAddress
	partyPhone
	partyEmail
	partyMerchantRegistration

	partyRequired = partyMunicipality + 1
)

// Party is a customer or seller segment.
type Party struct {
	Identification       string
	DV                   string
	Name                 string
	DocumentType         string
	OrganizationType     string
	Regime               string
	Liability            string
	Municipality         string
	Address              string
	Phone                string
	Email                string
	MerchantRegistration string
}

// ParseParty tokenizes a customer or seller segment.
func ParseParty(segment string) (Party, error) {
	f := newFields(KindParty, -1, segment, FieldSeparator)
	if err := f.require(partyRequired); err != nil {
		return Party{}, err
	}
	return Party{
		Identification:       f.at(partyIdentification),
		DV:                   f.at(partyDV),
		Name:                 f.at(partyName),
		DocumentType:         f.at(partyDocumentType),
		OrganizationType:     f.at(partyOrganization),
		Regime:               f.at(partyRegime),
		Liability:            f.at(partyLiability),
		Municipality:         f.at(partyMunicipality),
		Address:              f.optional(partyAddress),
		Phone:                f.optional(partyPhone),
		Email:                f.optional(partyEmail),
		MerchantRegistration: f.optional(partyMerchantRegistration),
	}, nil
}

const (
	totalsLineExtension = iota
	totalsTaxExclusive
	totalsTaxInclusive
	totalsPayable
	totalsAllowance
	totalsCharge

	totalsRequired = totalsPayable + 1
)

// Totals carries the document monetary totals as exported.
type Totals struct {
	LineExtension  decimal.Decimal
	TaxExclusive   decimal.Decimal
	TaxInclusive   decimal.Decimal
	Payable        decimal.Decimal
	AllowanceTotal decimal.Decimal
	ChargeTotal    decimal.Decimal
}

// ParseTotals tokenizes the totals segment.
func ParseTotals(segment string) (Totals, error) {
	f := newFields(KindTotals, -1, segment, FieldSeparator)
	if err := f.require(totalsRequired); err != nil {
		return Totals{}, err
	}
	var (
		t   Totals
		err error
	)
	targets := []*decimal.Decimal{&t.LineExtension, &t.TaxExclusive, &t.TaxInclusive, &t.Payable, &t.AllowanceTotal, &t.ChargeTotal}
	for i, target := range targets {
		if *target, err = f.amount(i); err != nil {
			return Totals{}, err
		}
	}
	return t, nil
}

const (
	taxCode = iota
	taxPercent
	taxTaxable
	taxAmount
	taxPerUnit
	taxName

	taxRequired = taxAmount + 1
)

// TaxEntry is one document-level tax.
type TaxEntry struct {
	Code          string
	Percent       decimal.Decimal
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
	PerUnitAmount decimal.Decimal
	Name          string
}

// ParseTaxes tokenizes the taxes segment, one entry per TaxEntrySeparator.
func ParseTaxes(segment string) ([]TaxEntry, error) {
	entries := Entries(segment, TaxEntrySeparator)
	taxes := make([]TaxEntry, 0, len(entries))
	for i, entry := range entries {
		f := newFields(KindTax, i, entry, FieldSeparator)
		if err := f.require(taxRequired); err != nil {
			return nil, err
		}
		t := TaxEntry{Code: f.at(taxCode), Name: f.optional(taxName)}
		var err error
		if t.Percent, err = f.amount(taxPercent); err != nil {
			return nil, err
		}
		if t.TaxableAmount, err = f.amount(taxTaxable); err != nil {
			return nil, err
		}
		if t.TaxAmount, err = f.amount(taxAmount); err != nil {
			return nil, err
		}
		if t.PerUnitAmount, err = f.amount(taxPerUnit); err != nil {
			return nil, err
		}
		taxes = append(taxes, t)
	}
	return taxes, nil
}

// Markers found in detail lines.
const (
	DiscountMarker = "DESCUENTO ITEM"
	TobaccoMarker  = "IMPUESTO TABACO"
)

const (
	lineCode = iota
	lineDescription
	lineUnitMeasure
	lineQuantity
	linePrice
	lineExtension
	lineItemIdentification
	lineTaxCode
	lineTaxPercent
	lineTaxAmount
	lineTaxable
	lineMarker
	lineDiscountAmount
	lineDiscountCode
	lineDiscountedTaxable
	lineDiscountedTaxAmount
	lineTobaccoMarker
	lineTobaccoTaxable
	lineTobaccoAmount
	lineTobaccoPercent
	lineFreeOfCharge

	lineRequired         = lineMarker + 1
	lineDiscountRequired = lineDiscountedTaxAmount + 1
)

// Line is one detail line.
type Line struct {
	Code               string
	Description        string
	UnitMeasure        string
	Quantity           decimal.Decimal
	Price              decimal.Decimal
	LineExtension      decimal.Decimal
	ItemIdentification string
	TaxCode            string
	TaxPercent         decimal.Decimal // per-unit amount when the tax is per-unit
	TaxAmount          decimal.Decimal
	TaxableAmount      decimal.Decimal
	Marker             string
	FreeOfCharge       bool

	// Set only when Marker is DiscountMarker.
	Discount *LineDiscount

	// Set when the second marker carries TobaccoMarker. TobaccoErr holds a
	// parse failure of that block, which must not abort the line.
	Tobacco    *LineTobacco
	TobaccoErr error
}

// LineDiscount is the discount block of a line.
type LineDiscount struct {
	Amount        decimal.Decimal
	Code          string
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
}

// LineTobacco is the optional second tax block of a line.
type LineTobacco struct {
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
	Percent       decimal.Decimal
}

// HasDiscount reports whether the line is marked as discounted.
func (l Line) HasDiscount() bool {
	return strings.EqualFold(strings.TrimSpace(l.Marker), DiscountMarker)
}

// ParseLines tokenizes the detail segment, one line per LineSeparator.
func ParseLines(segment string) ([]Line, error) {
	entries := Entries(segment, LineSeparator)
	lines := make([]Line, 0, len(entries))
	for i, entry := range entries {
		line, err := parseLine(newFields(KindLine, i, entry, FieldSeparator))
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseLine(f fields) (Line, error) {
	if err := f.require(lineRequired); err != nil {
		return Line{}, err
	}
	l := Line{
		Code:               f.at(lineCode),
		Description:        f.at(lineDescription),
		UnitMeasure:        f.at(lineUnitMeasure),
		ItemIdentification: f.at(lineItemIdentification),
		TaxCode:            f.at(lineTaxCode),
		Marker:             f.at(lineMarker),
		FreeOfCharge:       IsAffirmative(f.optional(lineFreeOfCharge)),
	}
	amounts := []struct {
		index  int
		target *decimal.Decimal
	}{
		{lineQuantity, &l.Quantity},
		{linePrice, &l.Price},
		{lineExtension, &l.LineExtension},
		{lineTaxPercent, &l.TaxPercent},
		{lineTaxAmount, &l.TaxAmount},
		{lineTaxable, &l.TaxableAmount},
	}
	for _, a := range amounts {
		value, err := f.amount(a.index)
		if err != nil {
			return Line{}, err
		}
		*a.target = value
	}

	if l.HasDiscount() {
		if err := f.require(lineDiscountRequired); err != nil {
			return Line{}, err
		}
		d := &LineDiscount{Code: f.at(lineDiscountCode)}
		var err error
		if d.Amount, err = f.amount(lineDiscountAmount); err != nil {
			return Line{}, err
		}
		if d.TaxableAmount, err = f.amount(lineDiscountedTaxable); err != nil {
			return Line{}, err
		}
		if d.TaxAmount, err = f.amount(lineDiscountedTaxAmount); err != nil {
			return Line{}, err
		}
		l.Discount = d
	}

	if strings.EqualFold(f.optional(lineTobaccoMarker), TobaccoMarker) {
		l.Tobacco, l.TobaccoErr = parseTobacco(f)
	}
	return l, nil
}

func parseTobacco(f fields) (*LineTobacco, error) {
	if !f.has(lineTobaccoAmount) {
		return nil, f.malformed(lineTobaccoAmount, "")
	}
	t := &LineTobacco{}
	var err error
	if t.TaxableAmount, err = f.amount(lineTobaccoTaxable); err != nil {
		return nil, err
	}
	if t.TaxAmount, err = f.amount(lineTobaccoAmount); err != nil {
		return nil, err
	}
	if t.Percent, err = f.amount(lineTobaccoPercent); err != nil {
		return nil, err
	}
	return t, nil
}

const (
	paymentForm = iota
	paymentMethod
	paymentDueDate
	paymentDuration

	paymentRequired = paymentMethod + 1
)

// Payment is the invoice payment segment (PaymentFieldSeparator).
type Payment struct {
	Form     string
	Method   string
	DueDate  string
	Duration string
}

// ParsePayment tokenizes the payment segment.
func ParsePayment(segment string) (Payment, error) {
	f := newFields(KindPayment, -1, segment, PaymentFieldSeparator)
	if err := f.require(paymentRequired); err != nil {
		return Payment{}, err
	}
	return Payment{
		Form:     f.at(paymentForm),
		Method:   f.at(paymentMethod),
		DueDate:  f.optional(paymentDueDate),
		Duration: f.optional(paymentDuration),
	}, nil
}

const (
	discountReason = iota
	discountCode
	discountAmount
	discountBase

	discountRequired = discountBase + 1
)

// Discount is a document-level allowance.
type Discount struct {
	Reason     string
	Code       string
	Amount     decimal.Decimal
	BaseAmount decimal.Decimal
}

// ParseDiscounts tokenizes the document discounts segment.
func ParseDiscounts(segment string) ([]Discount, error) {
	entries := Entries(segment, TaxEntrySeparator)
	discounts := make([]Discount, 0, len(entries))
	for i, entry := range entries {
		f := newFields(KindDiscount, i, entry, FieldSeparator)
		if err := f.require(discountRequired); err != nil {
			return nil, err
		}
		d := Discount{Reason: f.at(discountReason), Code: f.at(discountCode)}
		var err error
		if d.Amount, err = f.amount(discountAmount); err != nil {
			return nil, err
		}
		if d.BaseAmount, err = f.amount(discountBase); err != nil {
			return nil, err
		}
		discounts = append(discounts, d)
	}
	return discounts, nil
}

const (
	referenceNumber = iota
	referenceUUID
	referenceIssueDate
	referenceDiscrepancyCode
	referenceDiscrepancyDescription

	referenceRequired = referenceDiscrepancyCode + 1
)

// BillingReference points a credit note to the document it corrects.
type BillingReference struct {
	Number                 string
	UUID                   string
	IssueDate              string
	DiscrepancyCode        string
	DiscrepancyDescription string
}

// ParseBillingReference tokenizes the billing reference segment.
func ParseBillingReference(segment string) (BillingReference, error) {
	f := newFields(KindBillingReference, -1, segment, FieldSeparator)
	if err := f.require(referenceRequired); err != nil {
		return BillingReference{}, err
	}
	return BillingReference{
		Number:                 f.at(referenceNumber),
		UUID:                   f.at(referenceUUID),
		IssueDate:              f.at(referenceIssueDate),
		DiscrepancyCode:        f.at(referenceDiscrepancyCode),
		DiscrepancyDescription: f.optional(referenceDiscrepancyDescription),
	}, nil
}
