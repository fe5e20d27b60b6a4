package circuitbreaker

import "time"

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// Enabled determines whether the breaker is active.
	// When false, New returns nil and Execute passes through directly.
	Enabled bool

	// MaxRequests is the number of probe requests allowed while half-open.
	// Zero means one.
	MaxRequests uint

	// Interval clears the failure counts while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint

	// IsSuccessful reports whether err should count as a success, for example
	// a cache miss. Nil counts only a nil error as success.
	IsSuccessful func(err error) bool

	// OnStateChange is invoked on every transition.
	OnStateChange func(name string, from, to State)
}
