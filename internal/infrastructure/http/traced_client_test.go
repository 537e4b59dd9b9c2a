package http

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/audit"
	ctxutil "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/context"
)

// mockAuditRepo is a mock implementation of audit.Repository for testing.
type mockAuditRepo struct {
	mu        sync.Mutex
	saved     []audit.GatewayAuditLog
	savedChan chan audit.GatewayAuditLog
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{savedChan: make(chan audit.GatewayAuditLog, 4)}
}

func (m *mockAuditRepo) Save(ctx context.Context, log audit.GatewayAuditLog) error {
	m.mu.Lock()
	m.saved = append(m.saved, log)
	m.mu.Unlock()
	select {
	case m.savedChan <- log:
	default:
	}
	return nil
}

func (m *mockAuditRepo) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.GatewayAuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []audit.GatewayAuditLog
	for _, log := range m.saved {
		if log.CorrelationID == correlationID {
			results = append(results, log)
		}
	}
	return results, nil
}

func (m *mockAuditRepo) wait(t *testing.T) audit.GatewayAuditLog {
	t.Helper()
	select {
	case log := <-m.savedChan:
		return log
	case <-time.After(3 * time.Second):
		t.Fatal("audit log was not saved within timeout")
		return audit.GatewayAuditLog{}
	}
}

func newTracedClient(repo audit.Repository, auditEnabled bool) *TracedClient {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTracedClient(&TracedClientConfig{
		Timeout:         5 * time.Second,
		AuditEnabled:    auditEnabled,
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodySize:     4096,
	}, log, repo, "apidian")
}

func TestTracedClient_PropagatesCorrelationID(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get("X-Correlation-ID")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTracedClient(nil, false)
	ctx := ctxutil.WithCorrelationID(context.Background(), "corr-123")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if received != "corr-123" {
		t.Errorf("expected corr-123, got %q", received)
	}
}

func TestTracedClient_GeneratesFallbackCorrelationID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	repo := newMockAuditRepo()
	client := newTracedClient(repo, true)
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	saved := repo.wait(t)
	if len(saved.CorrelationID) != 36 {
		t.Errorf("expected a uuid correlation id, got %q", saved.CorrelationID)
	}
}

func TestTracedClient_AuditsSanitizedCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "compras@acme.co") {
			t.Error("request body must reach the gateway unmasked")
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`{"cufe":"ABC"}`))
		gz.Close()
	}))
	defer server.Close()

	repo := newMockAuditRepo()
	client := newTracedClient(repo, true)

	ctx := ctxutil.WithCorrelationID(context.Background(), "corr-audit")
	ctx = ctxutil.WithOperation(ctx, "submit_invoice")
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/api/ubl2.1/invoice",
		strings.NewReader(`{"customer":{"email":"compras@acme.co"},"prefix":"FACT"}`))
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	saved := repo.wait(t)
	if saved.Operation != "submit_invoice" {
		t.Errorf("expected operation submit_invoice, got %s", saved.Operation)
	}
	if saved.RequestHeaders["Authorization"] != "[REDACTED]" {
		t.Errorf("authorization header not redacted: %v", saved.RequestHeaders)
	}
	if strings.Contains(string(saved.RequestBody), "compras@acme.co") {
		t.Errorf("email leaked into audit: %s", saved.RequestBody)
	}

	var respBody map[string]any
	if err := json.Unmarshal(saved.ResponseBody, &respBody); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	if respBody["cufe"] != "ABC" {
		t.Errorf("expected decompressed response in audit, got %s", saved.ResponseBody)
	}
}

func TestTracedClient_CallerReadsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	client := newTracedClient(nil, false)
	req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(`{"a":1}`))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"received":true}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestTracedClient_AuditSurvivesCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	repo := newMockAuditRepo()
	client := newTracedClient(repo, true)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxutil.WithCorrelationID(ctx, "corr-cancel")
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, strings.NewReader(`{}`))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	cancel()

	saved := repo.wait(t)
	if saved.CorrelationID != "corr-cancel" {
		t.Errorf("expected corr-cancel, got %s", saved.CorrelationID)
	}
	if saved.ResponseStatus == nil || *saved.ResponseStatus != http.StatusOK {
		t.Error("expected response status 200")
	}
}

func TestTracedClient_AuditsTransportError(t *testing.T) {
	repo := newMockAuditRepo()
	client := newTracedClient(repo, true)

	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/api/invoice/900123456/FES-FACT1.pdf", nil)
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected connection error")
	}

	saved := repo.wait(t)
	if saved.ResponseStatus != nil {
		t.Errorf("expected no status, got %v", *saved.ResponseStatus)
	}
	if saved.ErrorMessage == "" {
		t.Error("expected error message")
	}
	if saved.Operation != "fes_fact1.pdf" {
		t.Errorf("unexpected operation %s", saved.Operation)
	}
}

func TestOperationFromPath(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{"last path segment", "POST", "/api/ubl2.1/credit-note", "credit_note"},
		{"trailing slash", "POST", "/api/ubl2.1/invoice/", "invoice"},
		{"single segment", "GET", "municipios", "municipios"},
		{"falls back to method", "DELETE", "/", "delete_apidian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := operationFromPath(tt.method, tt.path, "apidian"); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// blockingAuditRepo holds every Save until release is closed.
type blockingAuditRepo struct {
	*mockAuditRepo
	release chan struct{}
}

func (b *blockingAuditRepo) Save(ctx context.Context, log audit.GatewayAuditLog) error {
	<-b.release
	return b.mockAuditRepo.Save(ctx, log)
}

func TestTracedClient_Flush(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	repo := &blockingAuditRepo{mockAuditRepo: newMockAuditRepo(), release: make(chan struct{})}
	client := newTracedClient(repo, true)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/status", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := client.Flush(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline while audit write is blocked, got %v", err)
	}

	close(repo.release)
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if saved := repo.wait(t); saved.Operation != "status" {
		t.Errorf("expected operation status, got %s", saved.Operation)
	}
}

func TestTracedClient_AuditNeedsRepository(t *testing.T) {
	client := newTracedClient(nil, true)
	if client.cfg.AuditEnabled {
		t.Error("audit must be disabled without a repository")
	}
	if client.cfg.MaxConnsPerHost != 50 {
		t.Errorf("expected default of 50 connections per host, got %d", client.cfg.MaxConnsPerHost)
	}
}

func TestTracedClient_InterruptedBodyKeepsError(t *testing.T) {
	partial := `{"ResponseDian":{"Envelope":`
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte(partial))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	repo := newMockAuditRepo()
	client := newTracedClient(repo, true)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/api/ubl2.1/invoice", strings.NewReader(`{}`))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("headers arrived, expected no error from Do, got %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()

	if err == nil {
		t.Fatal("expected the interrupted read to surface an error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if string(body) != partial {
		t.Errorf("expected the partial body to be replayed, got %q", body)
	}

	saved := repo.wait(t)
	if !strings.HasPrefix(saved.ErrorMessage, "read response body: ") {
		t.Errorf("expected interrupted read in audit, got %q", saved.ErrorMessage)
	}
}
