package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Delimiters used by the point-of-sale export format.
const (
	FieldSeparator        = "|"
	TaxEntrySeparator     = "~"
	LineSeparator         = "^"
	PaymentFieldSeparator = ";"
)

// Kind names a segment of the flat export.
type Kind string

const (
	KindHeader           Kind = "header"
	KindParty            Kind = "party"
	KindTotals           Kind = "totals"
	KindTax              Kind = "taxes"
	KindLine             Kind = "lines"
	KindPayment          Kind = "payment"
	KindDiscount         Kind = "discounts"
	KindBillingReference Kind = "billing_reference"
	KindWorker           Kind = "worker"
	KindPeriod           Kind = "period"
	KindAccrued          Kind = "accrued"
	KindDeductions       Kind = "deductions"
	KindPayrollPayment   Kind = "payroll_payment"
)

// ErrMalformedRecord is matched by every parsing failure of this package.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports a missing or unparsable field.
type MalformedRecordError struct {
	Segment Kind
	Entry   int // position of the sub-record inside the segment, -1 for single-record segments
	Index   int // -1 when the whole segment is at fault
	Fields  int
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	where := string(e.Segment)
	if e.Entry >= 0 {
		where = fmt.Sprintf("%s[%d]", e.Segment, e.Entry)
	}
	if e.Index < 0 {
		return fmt.Sprintf("malformed record: %s: %s", where, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("malformed record: %s field %d: %s", where, e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed record: %s field %d missing (%d fields)", where, e.Index, e.Fields)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Tokenize splits a segment on delimiter. There is no escaping and trailing
// empty fields are preserved, since meaning is positional.
func Tokenize(segment, delimiter string) []string {
	return strings.Split(segment, delimiter)
}

// Entries splits a segment holding repeated sub-records. Blank entries, such
// as the one produced by a trailing separator, are dropped.
func Entries(segment, separator string) []string {
	if strings.TrimSpace(segment) == "" {
		return nil
	}
	parts := strings.Split(segment, separator)
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		entries = append(entries, part)
	}
	return entries
}

// fields is a tokenized record with bounds-checked accessors.
type fields struct {
	kind   Kind
	entry  int
	values []string
}

func newFields(kind Kind, entry int, segment, delimiter string) fields {
	return fields{kind: kind, entry: entry, values: Tokenize(segment, delimiter)}
}

func (f fields) malformed(index int, reason string) *MalformedRecordError {
	return &MalformedRecordError{
		Segment: f.kind,
		Entry:   f.entry,
		Index:   index,
		Fields:  len(f.values),
		Reason:  reason,
	}
}

// require fails unless the record has at least n fields.
func (f fields) require(n int) error {
	if len(f.values) < n {
		return f.malformed(n-1, "")
	}
	return nil
}

func (f fields) at(i int) string {
	return strings.TrimSpace(f.values[i])
}

// optional returns "" for fields past the end of the record.
func (f fields) optional(i int) string {
	if i >= len(f.values) {
		return ""
	}
	return strings.TrimSpace(f.values[i])
}

func (f fields) has(i int) bool {
	return i < len(f.values)
}

// ErrAmbiguousAmount is returned for a lone comma followed by exactly three
// digits, which reads as either a thousands separator or a decimal mark.
var ErrAmbiguousAmount = errors.New("ambiguous decimal separator")

// ParseAmount parses a monetary or quantity field. Blank means zero. The
// export writes a dot as decimal mark; a lone comma is accepted as one too
// ("1500,50"), except when three digits follow it ("1,000").
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	if !strings.Contains(raw, ".") && strings.Count(raw, ",") == 1 {
		if i := strings.IndexByte(raw, ','); len(raw)-i-1 == 3 {
			return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrAmbiguousAmount)
		}
		raw = strings.Replace(raw, ",", ".", 1)
	}
	return decimal.NewFromString(raw)
}

// amount parses field i, reporting failures as malformed records.
func (f fields) amount(i int) (decimal.Decimal, error) {
	value, err := ParseAmount(f.optional(i))
	if err != nil {
		return decimal.Zero, f.malformed(i, fmt.Sprintf("invalid amount %q", f.optional(i)))
	}
	return value, nil
}

// IsAffirmative reports whether a flag token means yes.
func IsAffirmative(token string) bool {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "S", "SI", "SÍ", "1", "TRUE", "Y", "YES":
		return true
	default:
		return false
	}
}
