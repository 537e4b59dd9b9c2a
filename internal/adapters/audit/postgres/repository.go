package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/audit"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL audit repository. log may be nil.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Save persists an audit log entry to gateway_audit_log.
func (r *Repository) Save(ctx context.Context, entry audit.GatewayAuditLog) error {
	query := `
		INSERT INTO gateway_audit_log (
			correlation_id, provider, operation, request_method, request_url,
			request_headers, request_body, response_status, response_headers,
			response_body, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	requestHeadersJSON, err := json.Marshal(entry.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeadersJSON, err := json.Marshal(entry.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		entry.CorrelationID,
		entry.Provider,
		entry.Operation,
		entry.RequestMethod,
		entry.RequestURL,
		requestHeadersJSON,
		nullableBody(entry.RequestBody),
		entry.ResponseStatus,
		responseHeadersJSON,
		nullableBody(entry.ResponseBody),
		entry.DurationMs,
		entry.ErrorMessage,
	)
	if err != nil {
		err = fmt.Errorf("insert audit log: %w", err)
		if r.log != nil {
			r.log.Error("Failed to insert audit log into database",
				"correlation_id", entry.CorrelationID,
				"provider", entry.Provider,
				"operation", entry.Operation,
				"response_status", entry.ResponseStatus,
				"error", err,
			)
		}
		return err
	}

	if r.log != nil {
		r.log.Debug("Audit log saved",
			"correlation_id", entry.CorrelationID,
			"provider", entry.Provider,
			"operation", entry.Operation,
			"duration_ms", entry.DurationMs,
		)
	}
	return nil
}

// FindByCorrelationID retrieves all audit logs with the given correlation ID.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.GatewayAuditLog, error) {
	query := `
		SELECT id, correlation_id, provider, operation, request_method, request_url,
		       request_headers, COALESCE(request_body, ''), response_status, response_headers,
		       COALESCE(response_body, ''), duration_ms, error_message, created_at
		FROM gateway_audit_log
		WHERE correlation_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []audit.GatewayAuditLog
	for rows.Next() {
		var entry audit.GatewayAuditLog
		var requestHeadersJSON, responseHeadersJSON []byte
		var requestBody, responseBody string

		err := rows.Scan(
			&entry.ID,
			&entry.CorrelationID,
			&entry.Provider,
			&entry.Operation,
			&entry.RequestMethod,
			&entry.RequestURL,
			&requestHeadersJSON,
			&requestBody,
			&entry.ResponseStatus,
			&responseHeadersJSON,
			&responseBody,
			&entry.DurationMs,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if err := unmarshalHeaders(requestHeadersJSON, &entry.RequestHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal request headers: %w", err)
		}
		if err := unmarshalHeaders(responseHeadersJSON, &entry.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}
		if requestBody != "" {
			entry.RequestBody = json.RawMessage(requestBody)
		}
		if responseBody != "" {
			entry.ResponseBody = json.RawMessage(responseBody)
		}

		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return logs, nil
}

// nullableBody stores empty bodies as NULL.
func nullableBody(body json.RawMessage) any {
	if len(body) == 0 {
		return nil
	}
	return string(body)
}

func unmarshalHeaders(data []byte, dst *map[string]string) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
