package health

import (
	"context"
	"errors"
	"testing"
	"time"

	corehealth "tho/simplercv/internal/core/health"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestNewService(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)

	if service == nil {
		t.Fatal("expected service to be created, got nil")
	}

	if service.meta != meta {
		t.Error("expected service to have the provided metadata")
	}

	if service.startedAt.IsZero() {
		t.Error("expected startedAt to be set")
	}
}

func TestService_Status(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)
	startTime := service.startedAt

	time.Sleep(10 * time.Millisecond)

	status := service.Status(context.Background())

	if status.Service != meta.Service {
		t.Errorf("expected service %q, got %q", meta.Service, status.Service)
	}

	if status.Version != meta.Version {
		t.Errorf("expected version %q, got %q", meta.Version, status.Version)
	}

	if status.Environment != meta.Environment {
		t.Errorf("expected environment %q, got %q", meta.Environment, status.Environment)
	}

	if status.Status != corehealth.StatusUp {
		t.Errorf("expected status 'UP', got %q", status.Status)
	}

	if !status.StartedAt.Equal(startTime) {
		t.Errorf("expected startedAt to match service start time")
	}

	if status.UptimeSecs < 0 {
		t.Errorf("expected uptimeSecs to be non-negative, got %d", status.UptimeSecs)
	}

	if status.Uptime == "" {
		t.Error("expected uptime to be set")
	}

	if len(status.Dependencies) != 0 {
		t.Errorf("expected no dependencies, got %d", len(status.Dependencies))
	}
}

func TestService_Status_Dependencies(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus string
		expectedDep    string
	}{
		{name: "healthy datastore", expectedStatus: corehealth.StatusUp, expectedDep: "UP"},
		{name: "datastore down", err: errors.New("connection refused"), expectedStatus: corehealth.StatusDegraded, expectedDep: "DOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(Metadata{Service: "simplercv"}).
				WithDependency("postgres", pingerFunc(func(context.Context) error { return tt.err }))

			status := service.Status(context.Background())

			if status.Status != tt.expectedStatus {
				t.Errorf("expected status %q, got %q", tt.expectedStatus, status.Status)
			}
			if len(status.Dependencies) != 1 {
				t.Fatalf("expected 1 dependency, got %d", len(status.Dependencies))
			}
			dep := status.Dependencies[0]
			if dep.Name != "postgres" {
				t.Errorf("expected dependency name postgres, got %q", dep.Name)
			}
			if dep.Status != tt.expectedDep {
				t.Errorf("expected dependency status %q, got %q", tt.expectedDep, dep.Status)
			}
			if tt.err != nil && dep.Error != tt.err.Error() {
				t.Errorf("expected error %q, got %q", tt.err.Error(), dep.Error)
			}
		})
	}
}

func TestService_Status_CheckTimeout(t *testing.T) {
	service := NewService(Metadata{}).
		WithDependency("slow", pingerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
	service.timeout = 20 * time.Millisecond

	status := service.Status(context.Background())

	if status.Status != corehealth.StatusDegraded {
		t.Errorf("expected DEGRADED, got %q", status.Status)
	}
}
