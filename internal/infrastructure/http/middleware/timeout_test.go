package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/config"
)

func TestExtendedTimeout_SetsDeadline(t *testing.T) {
	var (
		deadline time.Time
		ok       bool
	)
	handler := ExtendedTimeout(config.HTTPSettings{BatchTimeout: time.Minute})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	start := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/documents/batch", nil))

	if !ok {
		t.Fatal("expected a context deadline")
	}
	if d := deadline.Sub(start); d < 59*time.Second || d > time.Minute+time.Second {
		t.Errorf("expected deadline about one minute away, got %v", d)
	}
}
