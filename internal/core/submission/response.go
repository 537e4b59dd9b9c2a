package submission

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawResponse is the unparsed body of a successful gateway call.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// GatewayResponse is one of EnvelopedResponse, BareResponse or MalformedResponse.
type GatewayResponse interface {
	gatewayResponse()
}

// EnvelopedResponse carries the verdict of the tax authority.
type EnvelopedResponse struct {
	Valid      bool
	Message    string
	Messages   []string
	FiscalCode string
}

// BareResponse only carries a fiscal code, without a verdict.
type BareResponse struct {
	FiscalCode string
}

// MalformedResponse is anything else.
type MalformedResponse struct {
	Reason string
}

func (EnvelopedResponse) gatewayResponse() {}
func (BareResponse) gatewayResponse()      {}
func (MalformedResponse) gatewayResponse() {}

type wireResponse struct {
	ResponseDian json.RawMessage `json:"ResponseDian"`
	Cufe         string          `json:"cufe"`
	Cude         string          `json:"cude"`
	Cune         string          `json:"cune"`
}

type wireEnvelope struct {
	Envelope struct {
		Body struct {
			SendBillSyncResponse   *wireSyncResponse `json:"SendBillSyncResponse"`
			SendNominaSyncResponse *wireSyncResponse `json:"SendNominaSyncResponse"`
		} `json:"Body"`
	} `json:"Envelope"`
}

type wireSyncResponse struct {
	SendBillSyncResult   *wireResult `json:"SendBillSyncResult"`
	SendNominaSyncResult *wireResult `json:"SendNominaSyncResult"`
}

type wireResult struct {
	IsValid        json.RawMessage `json:"IsValid"`
	XMLDocumentKey string          `json:"XmlDocumentKey"`
	ErrorMessage   struct {
		String  json.RawMessage `json:"string"`
		Strings json.RawMessage `json:"strings"`
	} `json:"ErrorMessage"`
}

// ParseResponse classifies a gateway body once.
func ParseResponse(body []byte) GatewayResponse {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return MalformedResponse{Reason: "invalid json: " + err.Error()}
	}
	fiscalCode := firstNonEmpty(wire.Cufe, wire.Cude, wire.Cune)

	if len(wire.ResponseDian) == 0 || bytes.Equal(bytes.TrimSpace(wire.ResponseDian), []byte("null")) {
		if fiscalCode == "" {
			return MalformedResponse{Reason: "response has neither ResponseDian nor a fiscal code"}
		}
		return BareResponse{FiscalCode: fiscalCode}
	}

	var envelope wireEnvelope
	if err := json.Unmarshal(wire.ResponseDian, &envelope); err != nil {
		return MalformedResponse{Reason: "invalid ResponseDian: " + err.Error()}
	}
	result := envelope.result()
	if result == nil {
		return MalformedResponse{Reason: "ResponseDian without sync result"}
	}

	valid, ok := parseFlag(result.IsValid)
	if !ok {
		return MalformedResponse{Reason: "ResponseDian without IsValid flag"}
	}
	resp := EnvelopedResponse{
		Valid:      valid,
		FiscalCode: firstNonEmpty(fiscalCode, result.XMLDocumentKey),
	}
	single := stringList(result.ErrorMessage.String)
	if len(single) == 1 {
		resp.Message = single[0]
	} else {
		resp.Messages = single
	}
	resp.Messages = append(resp.Messages, stringList(result.ErrorMessage.Strings)...)
	return resp
}

func (e wireEnvelope) result() *wireResult {
	for _, sync := range []*wireSyncResponse{e.Envelope.Body.SendBillSyncResponse, e.Envelope.Body.SendNominaSyncResponse} {
		if sync == nil {
			continue
		}
		if sync.SendBillSyncResult != nil {
			return sync.SendBillSyncResult
		}
		if sync.SendNominaSyncResult != nil {
			return sync.SendNominaSyncResult
		}
	}
	return nil
}

// parseFlag accepts "true"/"false" as strings or booleans.
func parseFlag(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return false, false
		}
		return b, true
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// stringList decodes a string or a list of strings, dropping blanks.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		list = []string{s}
	}
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
