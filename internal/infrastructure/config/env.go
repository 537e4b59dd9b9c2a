package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed environment variables. Unset or empty variables
// yield the fallback; set but malformed ones also yield the fallback and
// are recorded so Load can reject them.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func newEnvReader() *envReader {
	return &envReader{lookup: os.LookupEnv}
}

func (r *envReader) raw(key string) (string, bool) {
	value, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (r *envReader) fail(key, value, kind string) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q is not a valid %s", key, value, kind))
}

// String returns the variable verbatim when set, even if empty.
func (r *envReader) String(key, fallback string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return fallback
}

// Trimmed returns the variable without surrounding blanks, or "".
func (r *envReader) Trimmed(key string) string {
	value, _ := r.raw(key)
	return value
}

func (r *envReader) Bool(key string, fallback bool) bool {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, "boolean")
		return fallback
	}
	return parsed
}

func (r *envReader) Int(key string, fallback int) int {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, "integer")
		return fallback
	}
	return parsed
}

func (r *envReader) Float(key string, fallback float64) float64 {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, value, "number")
		return fallback
	}
	return parsed
}

func (r *envReader) Duration(key string, fallback time.Duration) time.Duration {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, "duration")
		return fallback
	}
	return parsed
}

// List splits a comma separated variable, dropping blank items. An empty
// result yields the fallback.
func (r *envReader) List(key string, fallback []string) []string {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func (r *envReader) Errors() []error {
	return r.errs
}
