// Package security scrubs credentials and personal data from gateway
// traffic before it is logged or written to the audit trail.
package security

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// Credential-like keys, matched as substrings of the lowercased key.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"key",
	"authorization",
	"credential",
	"auth",
}

// Personal data of customers, sellers and workers. Masked in logs and
// audit rows, kept in the outbound payload.
var personalFields = []string{
	"email",
	"phone",
	"address",
	"salary",
}

const (
	redactedValue = "[REDACTED]"
	maskedValue   = "[PII]"
)

// SanitizeHeaders flattens headers, redacting credentials.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody returns a JSON rendering of body that is safe to store.
// Gzip bodies are inflated first. Binary content such as rendered PDFs is
// described, never copied. Bodies over maxSize (when positive) are
// truncated to a preview. JSON is walked and scrubbed; other text is
// wrapped as-is.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if isGzip(body) {
		inflated, err := gunzip(body)
		if err != nil {
			return describeBinary(body, "gzip-compressed (decompression failed)")
		}
		body = inflated
	}

	if !utf8.Valid(body) {
		return describeBinary(body, "binary (non-UTF8)")
	}

	if maxSize > 0 && len(body) > maxSize {
		return marshal(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(body[:maxSize]),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return marshal(map[string]any{
			"_raw":    string(body),
			"_format": "text",
		})
	}
	return marshal(scrub(data))
}

func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func describeBinary(data []byte, format string) json.RawMessage {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		format = "pdf"
	}
	return marshal(map[string]any{
		"_binary": true,
		"_format": format,
		"_size":   len(data),
	})
}

func marshal(v any) json.RawMessage {
	out, err := json.Marshal(v)
	if err != nil {
		// Only reachable with values json.Unmarshal could not have produced.
		return json.RawMessage(`{"_format":"unserializable"}`)
	}
	return out
}

// scrub walks a decoded JSON value. Personal keys holding objects are
// descended into so that nested names survive.
func scrub(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			lower := strings.ToLower(key)
			_, nested := value.(map[string]any)
			switch {
			case containsAny(lower, sensitiveFields):
				out[key] = redactedValue
			case containsAny(lower, personalFields) && !nested:
				out[key] = maskedValue
			default:
				out[key] = scrub(value)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, value := range val {
			out[i] = scrub(value)
		}
		return out
	default:
		return val
	}
}

func containsAny(key string, fields []string) bool {
	for _, field := range fields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}

// SanitizeURL redacts the values of credential-like query parameters. The
// parameter order and the rest of the URL are kept.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	params := strings.Split(u.RawQuery, "&")
	changed := false
	for i, param := range params {
		name, _, found := strings.Cut(param, "=")
		if !found {
			continue
		}
		key, err := url.QueryUnescape(name)
		if err != nil {
			key = name
		}
		if containsAny(strings.ToLower(key), sensitiveFields) {
			params[i] = name + "=" + redactedValue
			changed = true
		}
	}
	if !changed {
		return raw
	}

	query := strings.Join(params, "&")
	base, _, _ := strings.Cut(raw, "?")
	if u.Fragment != "" {
		return base + "?" + query + "#" + u.EscapedFragment()
	}
	return base + "?" + query
}
