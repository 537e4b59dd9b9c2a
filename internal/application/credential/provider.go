// Package credential hands out gateway API tokens per taxpayer.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/company"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/cache"
)

// ErrInactive is returned for companies that may not submit documents.
var ErrInactive = errors.New("company is inactive")

// ErrMissingToken is returned when a company has no API token configured.
var ErrMissingToken = errors.New("company has no api token")

// Provider looks tokens up in the company repository and caches them.
type Provider struct {
	companies company.Repository
	cache     *cache.TTL[string, string]
	loads     singleflight.Group
	ttl       time.Duration
	log       *slog.Logger
}

// NewProvider creates a credential provider. A non-positive ttl defaults to 10 minutes.
func NewProvider(companies company.Repository, ttl time.Duration, log *slog.Logger) *Provider {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Provider{
		companies: companies,
		cache:     cache.NewTTL[string, string](),
		ttl:       ttl,
		log:       log,
	}
}

// Token returns the bearer token of a taxpayer. Concurrent misses for the
// same taxpayer share one repository lookup, which outlives the caller that
// started it; a caller whose ctx ends stops waiting without failing the rest.
func (p *Provider) Token(ctx context.Context, taxpayerID string) (string, error) {
	if token, ok := p.cache.Get(taxpayerID); ok {
		return token, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := p.loads.DoChan(taxpayerID, func() (any, error) {
		if token, ok := p.cache.Get(taxpayerID); ok {
			return token, nil
		}
		return p.load(shared, taxpayerID)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (p *Provider) load(ctx context.Context, taxpayerID string) (string, error) {
	c, err := p.companies.FindByTaxpayerID(ctx, taxpayerID)
	if err != nil {
		return "", fmt.Errorf("find company %s: %w", taxpayerID, err)
	}
	if !c.Active {
		return "", fmt.Errorf("company %s: %w", taxpayerID, ErrInactive)
	}
	if c.APIToken == "" {
		return "", fmt.Errorf("company %s: %w", taxpayerID, ErrMissingToken)
	}

	p.cache.Set(taxpayerID, c.APIToken, p.ttl)
	p.log.Debug("Gateway token cached", "taxpayer_id", taxpayerID, "ttl", p.ttl)
	return c.APIToken, nil
}

// Invalidate drops the cached token, forcing a reload on the next call.
func (p *Provider) Invalidate(taxpayerID string) {
	p.cache.Delete(taxpayerID)
	p.log.Info("Gateway token invalidated", "taxpayer_id", taxpayerID)
}
