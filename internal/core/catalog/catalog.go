package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Name identifies a reference table mapping legacy codes to internal ids.
type Name string

const (
	TypeDocument                      Name = "type_document"
	TypeOperation                     Name = "type_operation"
	Tax                               Name = "tax"
	Municipality                      Name = "municipality"
	UnitMeasure                       Name = "unit_measure"
	PaymentForm                       Name = "payment_form"
	PaymentMethod                     Name = "payment_method"
	TypeItemIdentification            Name = "type_item_identification"
	Discount                          Name = "discount"
	TypeDocumentIdentification        Name = "type_document_identification"
	TypeOrganization                  Name = "type_organization"
	TypeRegime                        Name = "type_regime"
	TypeLiability                     Name = "type_liability"
	PayrollTypeDocumentIdentification Name = "payroll_type_document_identification"
	TypeWorker                        Name = "type_worker"
	SubTypeWorker                     Name = "sub_type_worker"
	TypeContract                      Name = "type_contract"
	PayrollPeriod                     Name = "payroll_period"
	TypeLawDeduction                  Name = "type_law_deduction"
)

// Names lists every known catalog.
var Names = []Name{
	TypeDocument, TypeOperation, Tax, Municipality, UnitMeasure, PaymentForm, PaymentMethod,
	TypeItemIdentification, Discount, TypeDocumentIdentification, TypeOrganization, TypeRegime,
	TypeLiability, PayrollTypeDocumentIdentification, TypeWorker, SubTypeWorker, TypeContract,
	PayrollPeriod, TypeLawDeduction,
}

// Valid reports whether n is a known catalog.
func (n Name) Valid() bool {
	for _, known := range Names {
		if n == known {
			return true
		}
	}
	return false
}

// Fallback ids used when a code is blank or missing from the store.
var fallbacks = map[Name]int{
	TypeLiability:          117, // R-99-PN "No aplica"
	TypeRegime:             2,   // no responsable de IVA
	PaymentForm:            1,   // contado
	PaymentMethod:          10,  // efectivo
	UnitMeasure:            70,  // unidad
	TypeItemIdentification: 4,   // estándar del contribuyente
}

// Fallback returns the default id of a catalog, if it has one.
func Fallback(name Name) (int, bool) {
	id, ok := fallbacks[name]
	return id, ok
}

// municipalityCodeLength is the length of a DIVIPOLA code.
const municipalityCodeLength = 5

// NormalizeCode trims the code and, for municipalities only, left pads a
// four character code with one zero.
func NormalizeCode(name Name, code string) string {
	code = strings.TrimSpace(code)
	if name == Municipality && len(code) == municipalityCodeLength-1 {
		return "0" + code
	}
	return code
}

// Lookup is one code to resolve against one catalog.
type Lookup struct {
	Catalog Name
	Code    string
}

// NewLookup builds a normalized lookup.
func NewLookup(name Name, code string) Lookup {
	return Lookup{Catalog: name, Code: NormalizeCode(name, code)}
}

func (l Lookup) String() string {
	return fmt.Sprintf("%s:%s", l.Catalog, l.Code)
}

// Codes holds resolved ids for one document.
type Codes map[Lookup]int

// ID returns the resolved id of code in catalog name.
func (c Codes) ID(name Name, code string) (int, bool) {
	id, ok := c[NewLookup(name, code)]
	return id, ok
}

// MustID returns the resolved id or a NotFoundError when the lookup was never resolved.
func (c Codes) MustID(name Name, code string) (int, error) {
	if id, ok := c.ID(name, code); ok {
		return id, nil
	}
	return 0, &NotFoundError{Catalog: name, Code: NormalizeCode(name, code)}
}

// Entry is one row of a catalog.
type Entry struct {
	Catalog     Name   `json:"catalog" yaml:"catalog"`
	Code        string `json:"code" yaml:"code"`
	ID          int    `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Store reads catalog ids. Codes missing from the result do not exist;
// an error means the store could not be queried.
type Store interface {
	FindIDs(ctx context.Context, name Name, codes []string) (map[string]int, error)
}

// Writer maintains catalog contents.
type Writer interface {
	Upsert(ctx context.Context, entries []Entry) (int, error)
	List(ctx context.Context, name Name) ([]Entry, error)
}

var (
	ErrNotFound    = errors.New("catalog code not found")
	ErrUnavailable = errors.New("catalog store unavailable")
)

// NotFoundError reports a code without an id and without a fallback.
type NotFoundError struct {
	Catalog Name
	Code    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog %s: code %q not found", e.Catalog, e.Code)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnavailableError reports a store failure while resolving a catalog.
type UnavailableError struct {
	Catalog Name
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("catalog %s unavailable: %v", e.Catalog, e.Err)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }
