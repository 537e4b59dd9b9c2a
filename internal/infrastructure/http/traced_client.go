package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/audit"
	ctxutil "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/context"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/security"
)

// CorrelationIDHeader carries the correlation id across service boundaries.
const CorrelationIDHeader = "X-Correlation-ID"

const (
	defaultAuditBodySize   = 100 << 10
	defaultMaxConnsPerHost = 50
	// Support documents may take minutes before the first header arrives.
	minResponseHeaderWait = time.Minute
	auditSaveTimeout      = 10 * time.Second
)

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	// Timeout is the hard ceiling of one call. Per-operation bounds are
	// applied by callers through the request context.
	Timeout         time.Duration
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
}

// TracedClient logs every outbound gateway call and, when enabled, stores a
// sanitized audit record of it in the background.
type TracedClient struct {
	cfg      TracedClientConfig
	client   *http.Client
	log      *slog.Logger
	repo     audit.Repository
	provider string
	pending  sync.WaitGroup
}

// NewTracedClient creates a traced client with its own pooled transport.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, repo audit.Repository, provider string) *TracedClient {
	c := *cfg
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultAuditBodySize
	}
	if c.MaxConnsPerHost <= 0 {
		c.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	if repo == nil {
		c.AuditEnabled = false
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = c.MaxConnsPerHost
	transport.MaxConnsPerHost = c.MaxConnsPerHost
	transport.ResponseHeaderTimeout = max(c.Timeout, minResponseHeaderWait)

	return &TracedClient{
		cfg:      c,
		client:   &http.Client{Timeout: c.Timeout, Transport: transport},
		log:      log.With("provider", provider),
		repo:     repo,
		provider: provider,
	}
}

// exchange is one request/response pair as seen by the client.
type exchange struct {
	correlationID string
	operation     string
	method        string
	url           string
	requestBody   []byte
	responseBody  []byte
	resp          *http.Response
	err           error
	readErr       error
	duration      time.Duration
}

// failingReader returns err once the buffered part of a body is consumed.
type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

// Do sends req. Both bodies are buffered; the caller reads the response
// body as usual, including any error that interrupted it.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	x := &exchange{
		correlationID: ctxutil.GetCorrelationID(ctx),
		operation:     ctxutil.GetOperation(ctx),
		method:        req.Method,
		url:           security.SanitizeURL(req.URL.String()),
	}
	if x.correlationID == "" {
		x.correlationID = ctxutil.NewCorrelationID()
	}
	if x.operation == "" {
		x.operation = operationFromPath(req.Method, req.URL.Path, c.provider)
	}
	req.Header.Set(CorrelationIDHeader, x.correlationID)

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			c.log.Error("Failed to buffer request body", "error", err, "correlation_id", x.correlationID)
		}
		x.requestBody = body
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	c.logRequest(x)

	start := time.Now()
	x.resp, x.err = c.client.Do(req)
	x.duration = time.Since(start)

	if x.resp != nil && x.resp.Body != nil {
		x.responseBody, x.readErr = io.ReadAll(x.resp.Body)
		x.resp.Body.Close()
		// A body cut short replays what arrived and then fails like the
		// original read did.
		replay := io.Reader(bytes.NewReader(x.responseBody))
		if x.readErr != nil {
			replay = io.MultiReader(replay, failingReader{x.readErr})
		}
		x.resp.Body = io.NopCloser(replay)
	}
	c.logResponse(x)

	if c.cfg.AuditEnabled {
		c.persist(c.auditEntry(req.Header, x))
	}
	return x.resp, x.err
}

// Flush waits for in-flight audit writes or for ctx to end.
func (c *TracedClient) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *TracedClient) persist(entry audit.GatewayAuditLog) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("Panic while saving audit log", "panic", r, "correlation_id", entry.CorrelationID)
			}
		}()

		// Detached from the request: the caller is usually gone by now.
		ctx, cancel := context.WithTimeout(context.Background(), auditSaveTimeout)
		defer cancel()
		if err := c.repo.Save(ctx, entry); err != nil {
			c.log.Error("Failed to save audit log",
				"error", err,
				"correlation_id", entry.CorrelationID,
				"operation", entry.Operation,
			)
		}
	}()
}

func (c *TracedClient) attrs(x *exchange) []any {
	return []any{
		"correlation_id", x.correlationID,
		"operation", x.operation,
		"method", x.method,
		"url", x.url,
	}
}

func (c *TracedClient) logRequest(x *exchange) {
	attrs := c.attrs(x)
	if c.cfg.LogRequestBody && len(x.requestBody) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(x.requestBody, c.cfg.MaxBodySize)))
	}
	c.log.Info("gateway_request", attrs...)
}

func (c *TracedClient) logResponse(x *exchange) {
	attrs := append(c.attrs(x), "duration_ms", x.duration.Milliseconds())
	if x.err != nil {
		c.log.Error("gateway_request_failed", append(attrs, "error", x.err.Error())...)
		return
	}

	attrs = append(attrs, "status", x.resp.StatusCode, "response_size_bytes", len(x.responseBody))
	if x.readErr != nil {
		c.log.Error("gateway_response_interrupted", append(attrs, "error", x.readErr.Error())...)
		return
	}
	if c.cfg.LogResponseBody && len(x.responseBody) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(x.responseBody, c.cfg.MaxBodySize)))
	}

	level := slog.LevelInfo
	switch {
	case x.resp.StatusCode >= 500:
		level = slog.LevelError
	case x.resp.StatusCode >= 400:
		level = slog.LevelWarn
	}
	c.log.Log(context.Background(), level, "gateway_response", attrs...)
}

func (c *TracedClient) auditEntry(reqHeader http.Header, x *exchange) audit.GatewayAuditLog {
	entry := audit.GatewayAuditLog{
		CorrelationID:  x.correlationID,
		Provider:       c.provider,
		Operation:      x.operation,
		RequestMethod:  x.method,
		RequestURL:     x.url,
		RequestHeaders: security.SanitizeHeaders(reqHeader),
		RequestBody:    security.SanitizeBody(x.requestBody, c.cfg.MaxBodySize),
		DurationMs:     x.duration.Milliseconds(),
	}
	if x.resp != nil {
		status := x.resp.StatusCode
		entry.ResponseStatus = &status
		entry.ResponseHeaders = security.SanitizeHeaders(x.resp.Header)
		entry.ResponseBody = security.SanitizeBody(x.responseBody, c.cfg.MaxBodySize)
	}
	switch {
	case x.err != nil:
		entry.ErrorMessage = x.err.Error()
	case x.readErr != nil:
		entry.ErrorMessage = "read response body: " + x.readErr.Error()
	}
	return entry
}

// operationFromPath names a call after the last path segment in snake
// case, or after the method and provider for a bare path.
func operationFromPath(method, path, provider string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return strings.ToLower(method) + "_" + provider
	}
	return strings.ToLower(strings.ReplaceAll(path, "-", "_"))
}
