package context

import "context"

// OperationKey is the context key naming the outbound operation being traced.
const OperationKey contextKey = "operation"

// WithOperation names the outbound call made with ctx, e.g. "submit_invoice".
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, OperationKey, operation)
}

// GetOperation returns the operation name, or an empty string.
func GetOperation(ctx context.Context) string {
	if op, ok := ctx.Value(OperationKey).(string); ok {
		return op
	}
	return ""
}
