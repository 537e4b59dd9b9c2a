package http

import (
	"net/http"
	"time"
)

// DefaultUserAgent identifies the service to third-party APIs.
const DefaultUserAgent = "backend-dian/1"

// ClientConfig configures plain outbound clients such as the DANE registry.
// Gateway traffic goes through TracedClient instead.
type ClientConfig struct {
	Timeout   time.Duration // 30s when zero
	Transport http.RoundTripper
	UserAgent string // DefaultUserAgent when empty
}

// NewClient returns an http.Client that sets a User-Agent on every request
// that does not carry one.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: base, userAgent: ua},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
