package submission

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(isValid, errorMessage string) string {
	return fmt.Sprintf(`{"ResponseDian":{"Envelope":{"Body":{"SendBillSyncResponse":{"SendBillSyncResult":{"IsValid":%s,"ErrorMessage":%s}}}}},"cufe":"ABC123"}`, isValid, errorMessage)
}

func TestParseResponse_EnvelopedValid(t *testing.T) {
	resp := ParseResponse([]byte(envelope(`"true"`, `{}`)))

	env, ok := resp.(EnvelopedResponse)
	require.True(t, ok, "got %T", resp)
	assert.True(t, env.Valid)
	assert.Equal(t, "ABC123", env.FiscalCode)
	assert.Empty(t, env.Messages)
}

func TestParseResponse_EnvelopedInvalidWithList(t *testing.T) {
	resp := ParseResponse([]byte(envelope(`"false"`, `{"strings":["err1","err2"]}`)))

	env, ok := resp.(EnvelopedResponse)
	require.True(t, ok)
	assert.False(t, env.Valid)
	assert.Equal(t, []string{"err1", "err2"}, env.Messages)
}

func TestParseResponse_ErrorMessageShapes(t *testing.T) {
	tests := []struct {
		name         string
		errorMessage string
		wantMessage  string
		wantMessages []string
	}{
		{"single string", `{"string":"Regla: FAD06, Rechazo"}`, "Regla: FAD06, Rechazo", nil},
		{"string holding a list", `{"string":["a","b"]}`, "", []string{"a", "b"}},
		{"string holding one element list", `{"string":["solo"]}`, "solo", nil},
		{"blank entries dropped", `{"strings":["", " x "]}`, "", []string{"x"}},
		{"null", `null`, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := ParseResponse([]byte(envelope(`"false"`, tt.errorMessage))).(EnvelopedResponse)
			require.True(t, ok)
			assert.Equal(t, tt.wantMessage, env.Message)
			assert.Equal(t, tt.wantMessages, env.Messages)
		})
	}
}

func TestParseResponse_BooleanFlag(t *testing.T) {
	env, ok := ParseResponse([]byte(envelope(`true`, `{}`))).(EnvelopedResponse)
	require.True(t, ok)
	assert.True(t, env.Valid)
}

func TestParseResponse_PayrollEnvelope(t *testing.T) {
	body := `{"ResponseDian":{"Envelope":{"Body":{"SendNominaSyncResponse":{"SendNominaSyncResult":{"IsValid":"true","XmlDocumentKey":"CUNE9"}}}}}}`

	env, ok := ParseResponse([]byte(body)).(EnvelopedResponse)
	require.True(t, ok)
	assert.Equal(t, "CUNE9", env.FiscalCode)
}

func TestParseResponse_Bare(t *testing.T) {
	for _, key := range []string{"cufe", "cude", "cune"} {
		resp := ParseResponse([]byte(fmt.Sprintf(`{"%s":"XYZ","message":"ok"}`, key)))
		assert.Equal(t, BareResponse{FiscalCode: "XYZ"}, resp, key)
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{}`,
		`{"message":"Unauthenticated."}`,
		`{"ResponseDian":{"Envelope":{}}}`,
		`{"ResponseDian":{"Envelope":{"Body":{"SendBillSyncResponse":{"SendBillSyncResult":{"IsValid":"maybe"}}}}}}`,
	}
	for _, body := range bodies {
		_, ok := ParseResponse([]byte(body)).(MalformedResponse)
		assert.True(t, ok, body)
	}
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&TransportError{Kind: KindTransient, Detail: "dial", Err: cause})

	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, cause))

	te, ok := AsTransportError(fmt.Errorf("submit: %w", err))
	require.True(t, ok)
	assert.True(t, te.Kind.Retryable())
	assert.False(t, KindBadCredentials.Retryable())

	result := Failed(te)
	assert.Equal(t, StatusTransportFailure, result.Status)
	assert.Equal(t, KindTransient, result.Failure.Kind)
}
