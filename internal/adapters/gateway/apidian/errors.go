package apidian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"syscall"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
)

// maxDetailLength caps raw response text copied into error details.
const maxDetailLength = 512

// validationBody is the shape of a 422 answer.
type validationBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// classifyStatus maps a non-2xx answer to a transport error.
func classifyStatus(status int, body []byte) *submission.TransportError {
	te := &submission.TransportError{StatusCode: status}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		te.Kind = submission.KindInvalidPayload
		te.Detail = validationDetail(body)
	case http.StatusUnauthorized:
		te.Kind = submission.KindBadCredentials
		te.Detail = "gateway rejected the api token"
	case http.StatusRequestTimeout, http.StatusServiceUnavailable:
		te.Kind = submission.KindTransient
		te.Detail = snippet(body)
	default:
		te.Kind = submission.KindUpstream
		te.Detail = snippet(body)
	}
	if te.Detail == "" {
		te.Detail = http.StatusText(status)
	}
	return te
}

// validationDetail flattens {"message", "errors": {field: [msg]}} into one line.
// Fields are sorted so the detail is stable.
func validationDetail(body []byte) string {
	var v validationBody
	if err := json.Unmarshal(body, &v); err != nil || (v.Message == "" && len(v.Errors) == 0) {
		return snippet(body)
	}

	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(v.Errors[field], ", ")))
	}
	if len(parts) == 0 {
		return v.Message
	}
	if v.Message == "" {
		return strings.Join(parts, "; ")
	}
	return v.Message + " " + strings.Join(parts, "; ")
}

// classifyNetwork maps a failed round trip to a transport error.
func classifyNetwork(err error) *submission.TransportError {
	te := &submission.TransportError{Kind: submission.KindUpstream, Detail: err.Error(), Err: err}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		te.Kind = submission.KindTransient
		te.Detail = "gateway call timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		te.Kind = submission.KindTransient
		te.Detail = "gateway call timed out"
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		te.Kind = submission.KindTransient
	case errors.Is(err, context.Canceled):
		te.Kind = submission.KindTransient
		te.Detail = "gateway call cancelled"
	}
	return te
}

// tripsBreaker reports whether err says something about the gateway's health.
// Rejected payloads and credentials are the caller's problem.
func tripsBreaker(err error) bool {
	te, ok := submission.AsTransportError(err)
	if !ok {
		return err != nil
	}
	return te.Kind == submission.KindTransient || te.Kind == submission.KindUpstream
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetailLength {
		s = s[:maxDetailLength] + "..."
	}
	return s
}
