package ports

import (
	"context"
)

type (
	// HealthChecker reports on one dependency.
	HealthChecker interface {
		Name() string
		// Critical dependencies take the whole service down when they fail.
		Critical() bool
		Check(ctx context.Context) error
	}

	// DatabaseHealthChecker defines the interface for database health checks.
	DatabaseHealthChecker interface {
		// Ping checks if the database connection is alive.
		Ping(ctx context.Context) error
	}
)
