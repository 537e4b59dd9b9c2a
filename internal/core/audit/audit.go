package audit

import (
	"context"
	"encoding/json"
	"time"
)

// GatewayAuditLog is the trace of one outbound call to the tax-authority
// gateway or another external service. Bodies and headers are sanitized
// before they reach this struct.
type GatewayAuditLog struct {
	ID              int64
	CorrelationID   string
	Provider        string
	Operation       string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Repository defines the contract for persisting and retrieving audit logs.
type Repository interface {
	Save(ctx context.Context, log GatewayAuditLog) error

	// FindByCorrelationID returns every call made while serving one request,
	// newest first.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]GatewayAuditLog, error)
}
