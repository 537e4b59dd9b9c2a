package document

import (
	"strings"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
)

// Number is a document number split into its resolution prefix and consecutive.
// Separator holds the "-" or " " found between them, if any.
type Number struct {
	Prefix    string
	Separator string
	Number    string
}

// String rebuilds the composite number exactly as exported.
func (n Number) String() string {
	return n.Prefix + n.Separator + n.Number
}

// Compact returns prefix and number without the separator, the form used in gateway paths.
func (n Number) Compact() string {
	return n.Prefix + n.Number
}

// SplitNumber strips the resolution prefix from a composite number. With an
// empty prefix the split happens at the first digit.
func SplitNumber(composite, prefix string) (Number, error) {
	composite = strings.TrimSpace(composite)
	prefix = strings.TrimSpace(prefix)

	if prefix == "" {
		return splitAtFirstDigit(composite)
	}
	if !strings.HasPrefix(composite, prefix) {
		return Number{}, numberError("does not start with resolution prefix " + prefix)
	}
	n := Number{Prefix: prefix}
	rest := composite[len(prefix):]
	if strings.HasPrefix(rest, "-") || strings.HasPrefix(rest, " ") {
		n.Separator, rest = rest[:1], rest[1:]
	}
	if rest == "" {
		return Number{}, numberError("has no consecutive after the prefix")
	}
	n.Number = rest
	return n, nil
}

func splitAtFirstDigit(composite string) (Number, error) {
	i := strings.IndexFunc(composite, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return Number{}, numberError("has no numeric consecutive")
	}
	n := Number{Prefix: composite[:i], Number: composite[i:]}
	if strings.HasSuffix(n.Prefix, "-") || strings.HasSuffix(n.Prefix, " ") {
		last := len(n.Prefix) - 1
		n.Prefix, n.Separator = n.Prefix[:last], n.Prefix[last:]
	}
	return n, nil
}

// SplitTimestamp splits "YYYY-MM-DD HH:MM:SS" on its first space.
func SplitTimestamp(ts string) (date, clock string, err error) {
	date, clock, ok := strings.Cut(strings.TrimSpace(ts), " ")
	if !ok || date == "" || strings.TrimSpace(clock) == "" {
		return "", "", &record.MalformedRecordError{
			Segment: record.KindHeader,
			Entry:   -1,
			Index:   4,
			Reason:  "timestamp must be \"YYYY-MM-DD HH:MM:SS\"",
		}
	}
	return date, strings.TrimSpace(clock), nil
}

func numberError(reason string) error {
	return &record.MalformedRecordError{
		Segment: record.KindHeader,
		Entry:   -1,
		Index:   3,
		Reason:  "document number " + reason,
	}
}
