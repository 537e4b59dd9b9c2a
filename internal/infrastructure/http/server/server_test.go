package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/config"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/testutil"
)

type stubDocuments struct{ hits map[string]int }

func (s *stubDocuments) record(name string, w http.ResponseWriter) {
	s.hits[name]++
	w.WriteHeader(http.StatusOK)
}

func (s *stubDocuments) Submit(w http.ResponseWriter, r *http.Request)  { s.record("submit", w) }
func (s *stubDocuments) Preview(w http.ResponseWriter, r *http.Request) { s.record("preview", w) }
func (s *stubDocuments) Batch(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Deadline(); !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	s.record("batch", w)
}
func (s *stubDocuments) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	s.record("artifact", w)
}

type stubResolutions struct{ hits map[string]int }

func (s *stubResolutions) GetResolutions(w http.ResponseWriter, r *http.Request) {
	s.hits["list"]++
	w.WriteHeader(http.StatusOK)
}

func (s *stubResolutions) Register(w http.ResponseWriter, r *http.Request) {
	s.hits["register"]++
	w.WriteHeader(http.StatusCreated)
}

func testConfig() config.AppConfig {
	return config.AppConfig{
		HTTP: config.HTTPSettings{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			BatchTimeout:    time.Minute,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthSettings{
			Enabled: false,
		},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNew_NilLogger(t *testing.T) {
	_, err := New(Options{
		Config:        testConfig(),
		Logger:        nil,
		HealthHandler: okHandler(),
	})

	if err == nil {
		t.Fatal("expected error for nil logger")
	}

	if err.Error() != "logger is required" {
		t.Errorf("expected error 'logger is required', got %q", err.Error())
	}
}

func TestNew_NilHealthHandler(t *testing.T) {
	_, err := New(Options{
		Config: testConfig(),
		Logger: testutil.NewTestLogger(),
	})

	if err == nil {
		t.Fatal("expected error for nil health handler")
	}

	if err.Error() != "health handler is required" {
		t.Errorf("expected error 'health handler is required', got %q", err.Error())
	}
}

func TestNew_ValidOptions(t *testing.T) {
	server, err := New(Options{
		Config:        testConfig(),
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if server.httpServer.Addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", server.httpServer.Addr)
	}
	if server.httpServer.WriteTimeout != 10*time.Second {
		t.Errorf("expected write timeout 10s, got %s", server.httpServer.WriteTimeout)
	}
}

func TestNew_DefaultTimeouts(t *testing.T) {
	server, err := New(Options{
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if server.httpServer.WriteTimeout != 5*time.Minute {
		t.Errorf("expected default write timeout 5m, got %s", server.httpServer.WriteTimeout)
	}
	if server.shutdownTimeout != 30*time.Second {
		t.Errorf("expected default shutdown timeout 30s, got %s", server.shutdownTimeout)
	}
}

func TestServer_Routes(t *testing.T) {
	docs := &stubDocuments{hits: map[string]int{}}
	res := &stubResolutions{hits: map[string]int{}}

	server, err := New(Options{
		Config:        testConfig(),
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
		Documents:     docs,
		Resolutions:   res,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/v1/documents", http.StatusOK},
		{http.MethodPost, "/api/v1/documents/preview", http.StatusOK},
		{http.MethodPost, "/api/v1/documents/batch", http.StatusOK},
		{http.MethodGet, "/api/v1/documents/900123456/01/FACT/0001/artifact", http.StatusOK},
		{http.MethodGet, "/api/v1/resolutions/900123456", http.StatusOK},
		{http.MethodPost, "/api/v1/resolutions", http.StatusCreated},
		{http.MethodGet, "/api/v1/documents", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}

	for _, name := range []string{"submit", "preview", "batch", "artifact"} {
		if docs.hits[name] != 1 {
			t.Errorf("expected one %s call, got %d", name, docs.hits[name])
		}
	}
	if res.hits["list"] != 1 || res.hits["register"] != 1 {
		t.Errorf("unexpected resolution calls: %v", res.hits)
	}
}

func TestServer_MissingRouteGroups(t *testing.T) {
	server, err := New(Options{
		Config:        testConfig(),
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, path := range []string{"/api/v1/documents", "/api/v1/documents/preview", "/api/v1/resolutions/900123456"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))

			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("expected status 503, got %d", w.Code)
			}
		})
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	healthHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	server, err := New(Options{
		Config:        testConfig(),
		Logger:        testutil.NewTestLogger(),
		HealthHandler: healthHandler,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "healthy" {
		t.Errorf("expected body 'healthy', got %q", w.Body.String())
	}
	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected correlation id header")
	}
}

func TestServer_Close(t *testing.T) {
	server, err := New(Options{
		Config:        testConfig(),
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should not panic
	server.Close()
}

func TestServer_Run_ContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Port = 0

	server, err := New(Options{
		Config:        cfg,
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
