package health

import (
	"context"
	"time"

	corehealth "tho/simplercv/internal/core/health"
)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Pinger is a backing service that can be checked. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type check struct {
	name   string
	pinger Pinger
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checks    []check
	timeout   time.Duration
}

func NewService(meta Metadata) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		timeout:   DefaultCheckTimeout,
	}
}

// WithDependency registers a check reported under name.
func (s *Service) WithDependency(name string, p Pinger) *Service {
	s.checks = append(s.checks, check{name: name, pinger: p})
	return s
}

// Status returns the current availability snapshot. Any failing dependency
// turns the service DEGRADED.
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

	for _, c := range s.checks {
		dep := s.checkDependency(ctx, c)
		if dep.Status != corehealth.StatusUp {
			status.Status = corehealth.StatusDegraded
		}
		status.Dependencies = append(status.Dependencies, dep)
	}
	return status
}

func (s *Service) checkDependency(ctx context.Context, c check) corehealth.Dependency {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := c.pinger.Ping(ctx)
	dep := corehealth.Dependency{
		Name:      c.name,
		Status:    corehealth.StatusUp,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		dep.Status = "DOWN"
		dep.Error = err.Error()
	}
	return dep
}
