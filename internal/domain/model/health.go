package model

import "time"

type (
	HealthStatus string

	DependencyStatus string

	DependencyCheck struct {
		Status    DependencyStatus
		LatencyMs uint64
		Message   string
	}

	LivenessReport struct {
		Status    HealthStatus
		Timestamp time.Time
		Version   string
	}

	ReadinessReport struct {
		Status    HealthStatus
		Timestamp time.Time
		Checks    map[string]DependencyCheck
	}

	HealthReport struct {
		Status    HealthStatus
		Timestamp time.Time
		Version   string
		Uptime    time.Duration
		Checks    map[string]DependencyCheck
	}
)

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"

	DependencyStatusUp   DependencyStatus = "up"
	DependencyStatusDown DependencyStatus = "down"
)

// OverallStatus folds dependency checks into one status. Critical dependencies
// being down make the service down, others only degrade it.
func OverallStatus(checks map[string]DependencyCheck, critical map[string]bool) HealthStatus {
	status := HealthStatusOK

	for name, check := range checks {
		if check.Status == DependencyStatusUp {
			continue
		}

		if critical[name] {
			return HealthStatusDown
		}

		status = HealthStatusDegraded
	}

	return status
}
