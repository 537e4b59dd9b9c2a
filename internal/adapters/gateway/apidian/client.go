// Package apidian submits documents to the APIDIAN gateway, which signs them
// and forwards them to the tax authority.
package apidian

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
	ctxutil "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/context"
)

// HTTPClient allows using both standard and traced HTTP clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var endpoints = map[document.Type]string{
	document.Invoice:           "/api/ubl2.1/invoice",
	document.CreditNote:        "/api/ubl2.1/credit-note",
	document.SupportDocument:   "/api/ubl2.1/support-document",
	document.CreditNoteSupport: "/api/ubl2.1/sd-credit-note",
	document.Payroll:           "/api/ubl2.1/payroll",
}

// Endpoint returns the submission path of a document type.
func Endpoint(t document.Type) (string, bool) {
	path, ok := endpoints[t]
	return path, ok
}

// Config holds the gateway client settings.
type Config struct {
	BaseURL string

	// Timeout bounds invoices, credit notes and payroll. SupportTimeout
	// bounds support documents and their credit notes.
	Timeout         time.Duration
	SupportTimeout  time.Duration
	ArtifactTimeout time.Duration

	MaxConcurrent     int
	RequestsPerSecond float64
	Burst             int

	BreakerMaxFailures int
	BreakerFailureRate float64
	BreakerCooldown    time.Duration
}

// Client implements submission.Gateway and submission.ArtifactFetcher.
type Client struct {
	cfg     Config
	client  HTTPClient
	limiter *Limiter
	breaker *CircuitBreaker
	log     *slog.Logger
}

var (
	_ submission.Gateway         = (*Client)(nil)
	_ submission.ArtifactFetcher = (*Client)(nil)
)

// NewClient creates a gateway client.
func NewClient(cfg Config, httpClient HTTPClient, log *slog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.SupportTimeout <= 0 {
		cfg.SupportTimeout = 180 * time.Second
	}
	if cfg.ArtifactTimeout <= 0 {
		cfg.ArtifactTimeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		client:  httpClient,
		limiter: NewLimiter(cfg.MaxConcurrent, cfg.RequestsPerSecond, cfg.Burst),
		breaker: NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerFailureRate, cfg.BreakerCooldown),
		log:     log,
	}
}

// Submit posts one document. It never retries; every failure is a
// *submission.TransportError.
func (c *Client) Submit(ctx context.Context, doc document.Document, bearerToken string) (submission.RawResponse, error) {
	path, ok := Endpoint(doc.Type)
	if !ok {
		return submission.RawResponse{}, &submission.TransportError{
			Kind:   submission.KindInvalidPayload,
			Detail: fmt.Sprintf("unsupported document type %d", int(doc.Type)),
		}
	}

	body, err := json.Marshal(NewPayload(doc))
	if err != nil {
		return submission.RawResponse{}, &submission.TransportError{
			Kind:   submission.KindInvalidPayload,
			Detail: "marshal payload: " + err.Error(),
			Err:    err,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.TimeoutFor(doc.Type))
	defer cancel()
	ctx = ctxutil.WithOperation(ctx, "submit_"+doc.Type.String())

	c.log.Debug("Submitting document to gateway",
		"document", doc.Reference().String(),
		"type", doc.Type.String(),
		"endpoint", path,
	)

	return c.call(ctx, http.MethodPost, c.cfg.BaseURL+path, body, bearerToken)
}

// FetchArtifact downloads the rendered PDF of an accepted document.
func (c *Client) FetchArtifact(ctx context.Context, ref document.Reference, bearerToken string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ArtifactTimeout)
	defer cancel()
	ctx = ctxutil.WithOperation(ctx, "fetch_artifact")

	endpoint := fmt.Sprintf("%s/api/invoice/%s/%s", c.cfg.BaseURL, url.PathEscape(ref.TaxpayerID), url.PathEscape(ref.ArtifactName()))
	raw, err := c.call(ctx, http.MethodGet, endpoint, nil, bearerToken)
	if err != nil {
		return nil, err
	}
	if len(raw.Body) == 0 {
		return nil, &submission.TransportError{Kind: submission.KindUpstream, StatusCode: raw.StatusCode, Detail: "empty artifact"}
	}
	return raw.Body, nil
}

// TimeoutFor returns the bound applied to a submission of type t.
func (c *Client) TimeoutFor(t document.Type) time.Duration {
	if t.IsSupport() {
		return c.cfg.SupportTimeout
	}
	return c.cfg.Timeout
}

// BreakerStats exposes the circuit breaker for health reporting.
func (c *Client) BreakerStats() BreakerStats {
	return c.breaker.Stats()
}

// LimiterStats exposes the limiter for health reporting.
func (c *Client) LimiterStats() LimiterStats {
	return c.limiter.Stats()
}

// GatewayHealth is the gateway section of the health report.
type GatewayHealth struct {
	Breaker BreakerStats `json:"breaker"`
	Limiter LimiterStats `json:"limiter"`
}

// Check reports the breaker and limiter. It fails while the breaker is open.
func (c *Client) Check(_ context.Context) (any, error) {
	h := GatewayHealth{Breaker: c.BreakerStats(), Limiter: c.LimiterStats()}
	if c.breaker.State() == BreakerOpen {
		return h, ErrBreakerOpen
	}
	return h, nil
}

// call runs one request through the limiter and the circuit breaker.
func (c *Client) call(ctx context.Context, method, endpoint string, body []byte, bearerToken string) (submission.RawResponse, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return submission.RawResponse{}, &submission.TransportError{
			Kind:   submission.KindTransient,
			Detail: "gateway busy: " + err.Error(),
			Err:    err,
		}
	}
	defer c.limiter.Release()

	var (
		raw     submission.RawResponse
		callErr error
	)
	err := c.breaker.Execute(func() error {
		raw, callErr = c.do(ctx, method, endpoint, body, bearerToken)
		if tripsBreaker(callErr) {
			return callErr
		}
		return nil
	})
	if errors.Is(err, ErrBreakerOpen) {
		c.log.Warn("Gateway circuit breaker open, failing fast", "endpoint", endpoint)
		return submission.RawResponse{}, &submission.TransportError{
			Kind:   submission.KindTransient,
			Detail: err.Error(),
			Err:    err,
		}
	}
	return raw, callErr
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, bearerToken string) (submission.RawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return submission.RawResponse{}, &submission.TransportError{
			Kind:   submission.KindInvalidPayload,
			Detail: "create request: " + err.Error(),
			Err:    err,
		}
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return submission.RawResponse{}, classifyNetwork(err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		te := classifyNetwork(err)
		te.StatusCode = resp.StatusCode
		return submission.RawResponse{}, te
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		te := classifyStatus(resp.StatusCode, data)
		c.log.Warn("Gateway returned error status",
			"status", resp.StatusCode,
			"kind", string(te.Kind),
			"detail", te.Detail,
		)
		return submission.RawResponse{}, te
	}

	return submission.RawResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// readBody reads the response, decoding gzip when the gateway compressed it.
func readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}
