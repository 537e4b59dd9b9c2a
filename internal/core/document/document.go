package document

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/tax"
)

// Type is the gateway document type id.
type Type int

const (
	Invoice           Type = 1
	CreditNote        Type = 4
	Payroll           Type = 9
	SupportDocument   Type = 11
	CreditNoteSupport Type = 13
)

// Valid reports whether t is a type this service can submit.
func (t Type) Valid() bool {
	switch t {
	case Invoice, CreditNote, Payroll, SupportDocument, CreditNoteSupport:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t {
	case Invoice:
		return "invoice"
	case CreditNote:
		return "credit_note"
	case Payroll:
		return "payroll"
	case SupportDocument:
		return "support_document"
	case CreditNoteSupport:
		return "credit_note_support"
	default:
		return fmt.Sprintf("type_%d", int(t))
	}
}

// IsCreditNote reports whether the type corrects another document.
func (t Type) IsCreditNote() bool {
	return t == CreditNote || t == CreditNoteSupport
}

// IsSupport reports whether the type belongs to the support-document family.
func (t Type) IsSupport() bool {
	return t == SupportDocument || t == CreditNoteSupport
}

// ArtifactPrefix is the file prefix of the rendered PDF.
func (t Type) ArtifactPrefix() string {
	switch t {
	case CreditNote:
		return "NCS"
	case SupportDocument:
		return "DSS"
	case CreditNoteSupport:
		return "NAS"
	case Payroll:
		return "NIS"
	default:
		return "FES"
	}
}

// Party is a resolved customer or seller.
type Party struct {
	IdentificationNumber         string
	DV                           string
	Name                         string
	TypeDocumentIdentificationID int
	TypeOrganizationID           int
	TypeRegimeID                 int
	TypeLiabilityID              int
	MunicipalityID               int
	Address                      string
	Phone                        string
	Email                        string
	MerchantRegistration         string
}

// MonetaryTotals are the legal monetary totals of a document.
type MonetaryTotals struct {
	LineExtension  decimal.Decimal
	TaxExclusive   decimal.Decimal
	TaxInclusive   decimal.Decimal
	Payable        decimal.Decimal
	AllowanceTotal decimal.Decimal
	ChargeTotal    decimal.Decimal
}

// LineItem is one assembled detail line.
type LineItem struct {
	UnitMeasureID            int
	InvoicedQuantity         decimal.Decimal
	LineExtensionAmount      decimal.Decimal
	PriceAmount              decimal.Decimal
	BaseQuantity             decimal.Decimal
	TypeItemIdentificationID int
	Code                     string
	Description              string
	FreeOfChargeIndicator    bool
	TaxTotals                []tax.TaxTotal
	AllowanceCharges         []tax.AllowanceCharge
}

// PaymentForm describes how the document is paid.
type PaymentForm struct {
	PaymentFormID   int
	PaymentMethodID int
	PaymentDueDate  string
	DurationMeasure string
}

// BillingReference points to the corrected document.
type BillingReference struct {
	Number    string
	UUID      string
	IssueDate string
}

// DiscrepancyResponse explains a correction.
type DiscrepancyResponse struct {
	Code        int
	Description string
}

// InvoicePeriod is attached to periodic billing only.
type InvoicePeriod struct {
	StartDate string
	EndDate   string
}

// OrderReference is the purchase order of the buyer.
type OrderReference struct {
	ID string
}

// Document is one assembled outbound document. It is not modified after assembly.
type Document struct {
	Type             Type
	TypeOperationID  int
	TaxpayerID       string
	Number           Number
	Date             string
	Time             string
	ResolutionNumber string
	HeadNote         string
	SendMail         bool

	// Party is the customer for invoices and credit notes, the seller for support documents.
	Party *Party

	PaymentForm          *PaymentForm
	Totals               MonetaryTotals
	AllowanceCharges     []tax.AllowanceCharge
	TaxTotals            []tax.TaxTotal
	WithholdingTaxTotals []tax.TaxTotal
	Lines                []LineItem
	BillingReference     *BillingReference
	DiscrepancyResponse  *DiscrepancyResponse
	InvoicePeriod        *InvoicePeriod
	OrderReference       *OrderReference

	// Payroll is set only for Payroll documents.
	Payroll *PayrollPayload
}

// PartyRole is the payload key of the document party.
func (d Document) PartyRole() string {
	if d.Type.IsSupport() {
		return "seller"
	}
	return "customer"
}

// Reference identifies the document in stores and artifact paths.
func (d Document) Reference() Reference {
	return Reference{
		TaxpayerID: d.TaxpayerID,
		Type:       d.Type,
		Prefix:     d.Number.Prefix,
		Number:     d.Number.Number,
	}
}

// Reference is the identifying tuple of a submitted document.
type Reference struct {
	TaxpayerID string
	Type       Type
	Prefix     string
	Number     string
}

func (r Reference) String() string {
	return fmt.Sprintf("%s:%s%s", r.TaxpayerID, r.Prefix, r.Number)
}

// ArtifactName is the PDF file name served by the gateway.
func (r Reference) ArtifactName() string {
	return fmt.Sprintf("%s-%s%s.pdf", r.Type.ArtifactPrefix(), r.Prefix, r.Number)
}

// Record is a document accepted by the tax authority.
type Record struct {
	Reference  Reference
	FiscalCode string
	IssuedAt   time.Time
	CreatedAt  time.Time
}

// Store persists accepted documents.
type Store interface {
	// FindFiscalCode looks a document up by taxpayer, prefix and number.
	FindFiscalCode(ctx context.Context, ref Reference) (code string, found bool, err error)

	// Save stores an accepted document. Saving an existing reference updates its fiscal code.
	Save(ctx context.Context, rec Record) error
}
