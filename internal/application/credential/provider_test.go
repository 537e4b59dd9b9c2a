package credential

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/company"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/testutil"
)

func TestProvider_TokenCaching(t *testing.T) {
	calls := 0
	repo := &testutil.MockCompanyRepository{
		FindByTaxpayerIDFunc: func(ctx context.Context, taxpayerID string) (*company.Company, error) {
			calls++
			return &company.Company{TaxpayerID: taxpayerID, APIToken: "tok-" + taxpayerID, Active: true}, nil
		},
	}
	p := NewProvider(repo, time.Hour, testutil.NewNullLogger())

	for i := 0; i < 3; i++ {
		token, err := p.Token(context.Background(), "900123456")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "tok-900123456" {
			t.Errorf("unexpected token %q", token)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}

	p.Invalidate("900123456")
	if _, err := p.Token(context.Background(), "900123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected reload after invalidation, got %d calls", calls)
	}
}

func TestProvider_TokenErrors(t *testing.T) {
	tests := []struct {
		name    string
		company *company.Company
		err     error
		want    error
	}{
		{"not found", nil, company.ErrNotFound, company.ErrNotFound},
		{"inactive", &company.Company{APIToken: "x"}, nil, ErrInactive},
		{"missing token", &company.Company{Active: true}, nil, ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &testutil.MockCompanyRepository{
				FindByTaxpayerIDFunc: func(ctx context.Context, taxpayerID string) (*company.Company, error) {
					return tt.company, tt.err
				},
			}
			p := NewProvider(repo, 0, testutil.NewNullLogger())

			_, err := p.Token(context.Background(), "900123456")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestProvider_ConcurrentMissesShareLookup(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	repo := &testutil.MockCompanyRepository{
		FindByTaxpayerIDFunc: func(ctx context.Context, taxpayerID string) (*company.Company, error) {
			calls.Add(1)
			<-release
			return &company.Company{TaxpayerID: taxpayerID, APIToken: "tok", Active: true}, nil
		},
	}
	p := NewProvider(repo, time.Hour, testutil.NewNullLogger())

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _ = p.Token(context.Background(), "900123456")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected one repository lookup, got %d", n)
	}
	for i, tok := range tokens {
		if tok != "tok" {
			t.Errorf("caller %d got %q", i, tok)
		}
	}
}

func TestProvider_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &testutil.MockCompanyRepository{
		FindByTaxpayerIDFunc: func(ctx context.Context, taxpayerID string) (*company.Company, error) {
			calls.Add(1)
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return &company.Company{TaxpayerID: taxpayerID, APIToken: "tok", Active: true}, nil
		},
	}
	p := NewProvider(repo, time.Hour, testutil.NewNullLogger())

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Token(firstCtx, "900123456")
		firstErr <- err
	}()
	<-started

	waiter := make(chan string, 1)
	go func() {
		tok, _ := p.Token(context.Background(), "900123456")
		waiter <- tok
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected the cancelled caller to get context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared lookup")
	}

	close(release)
	select {
	case tok := <-waiter:
		if tok != "tok" {
			t.Errorf("expected waiter to get the token, got %q", tok)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never got the token")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected one repository lookup, got %d", n)
	}
}
