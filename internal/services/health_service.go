package services

import (
	"context"
	"sync"
	"time"

	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
)

const defaultCheckTimeout = 3 * time.Second

type (
	HealthService struct {
		checkers  []ports.HealthChecker
		startedAt time.Time
		timeout   time.Duration
		now       func() time.Time
	}

	dependencyCheck struct {
		name     string
		critical bool
		check    func(ctx context.Context) error
	}
)

var _ ports.HealthService = (*HealthService)(nil)

func NewHealthService(checkers ...ports.HealthChecker) *HealthService {
	return &HealthService{
		checkers:  checkers,
		startedAt: time.Now(),
		timeout:   defaultCheckTimeout,
		now:       time.Now,
	}
}

// NewDependencyCheck adapts a ping function into a named health checker.
func NewDependencyCheck(name string, critical bool, check func(ctx context.Context) error) ports.HealthChecker {
	return dependencyCheck{name: name, critical: critical, check: check}
}

func (d dependencyCheck) Name() string                    { return d.name }
func (d dependencyCheck) Critical() bool                  { return d.critical }
func (d dependencyCheck) Check(ctx context.Context) error { return d.check(ctx) }

// Liveness only reports that the process is serving.
func (s *HealthService) Liveness(_ context.Context) (*model.LivenessReport, error) {
	return &model.LivenessReport{
		Status:    model.HealthStatusOK,
		Timestamp: s.now().UTC(),
		Version:   config.ServiceVersion,
	}, nil
}

func (s *HealthService) Readiness(ctx context.Context) (*model.ReadinessReport, error) {
	checks, status := s.runChecks(ctx)

	return &model.ReadinessReport{
		Status:    status,
		Timestamp: s.now().UTC(),
		Checks:    checks,
	}, nil
}

func (s *HealthService) Health(ctx context.Context) (*model.HealthReport, error) {
	checks, status := s.runChecks(ctx)

	return &model.HealthReport{
		Status:    status,
		Timestamp: s.now().UTC(),
		Version:   config.ServiceVersion,
		Uptime:    s.now().Sub(s.startedAt),
		Checks:    checks,
	}, nil
}

// runChecks probes every dependency concurrently.
func (s *HealthService) runChecks(ctx context.Context) (map[string]model.DependencyCheck, model.HealthStatus) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		checks   = make(map[string]model.DependencyCheck, len(s.checkers))
		critical = make(map[string]bool, len(s.checkers))
	)

	for _, checker := range s.checkers {
		critical[checker.Name()] = checker.Critical()

		wg.Add(1)

		go func(checker ports.HealthChecker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			err := checker.Check(checkCtx)

			result := model.DependencyCheck{
				Status:    model.DependencyStatusUp,
				LatencyMs: uint64(time.Since(start).Milliseconds()),
				Message:   "ok",
			}

			if err != nil {
				result.Status = model.DependencyStatusDown
				result.Message = err.Error()
			}

			mu.Lock()
			checks[checker.Name()] = result
			mu.Unlock()
		}(checker)
	}

	wg.Wait()

	return checks, model.OverallStatus(checks, critical)
}
