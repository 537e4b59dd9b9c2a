package health

import (
	"context"
	"sync"
	"time"

	corehealth "github.com/Darklegion92/backend-DIAN-sub001/internal/core/health"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Checker checks one dependency. Details are reported as-is.
type Checker interface {
	Check(ctx context.Context) (any, error)
}

// CheckFunc adapts a plain ping function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) (any, error) {
	return nil, f(ctx)
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	names     []string
	checks    map[string]Checker
}

func NewService(meta Metadata) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checks:    make(map[string]Checker),
	}
}

// Register adds a dependency check. Registering a name twice replaces it.
func (s *Service) Register(name string, c Checker) {
	if _, ok := s.checks[name]; !ok {
		s.names = append(s.names, name)
	}
	s.checks[name] = c
}

// Status returns the current availability snapshot. Checks run concurrently;
// any failing check degrades the service.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}
	if len(s.names) == 0 {
		return status
	}

	deps := make([]corehealth.Dependency, len(s.names))
	var wg sync.WaitGroup
	for i, name := range s.names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			deps[i] = s.check(ctx, name, s.checks[name])
		}(i, name)
	}
	wg.Wait()

	for _, d := range deps {
		if d.Status != corehealth.StatusUp {
			status.Status = corehealth.StatusDegraded
		}
	}
	status.Dependencies = deps
	return status
}

func (s *Service) check(ctx context.Context, name string, c Checker) corehealth.Dependency {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	details, err := c.Check(ctx)
	dep := corehealth.Dependency{
		Name:      name,
		Status:    corehealth.StatusUp,
		LatencyMs: time.Since(start).Milliseconds(),
		Details:   details,
	}
	if err != nil {
		dep.Status = corehealth.StatusDown
		dep.Error = err.Error()
	}
	return dep
}
