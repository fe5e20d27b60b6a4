package runtime

import (
	"os"

	"github.com/architeacher/gateways/internal/config"
)

type ServiceOption func(*ServiceCtx)

func WithServiceTermination(ch chan os.Signal) ServiceOption {
	return func(s *ServiceCtx) {
		s.shutdownChannel = ch
	}
}

func WithWaitingForServer() ServiceOption {
	return func(s *ServiceCtx) {
		s.serverReady = make(chan struct{})
	}
}

// WithServiceConfig skips reading the environment and runs with cfg.
func WithServiceConfig(cfg *config.ServiceConfig) ServiceOption {
	return func(s *ServiceCtx) {
		s.config = cfg
	}
}

// WithDependencyOptions appends opts after the default wiring, letting callers
// replace a component.
func WithDependencyOptions(opts ...DependencyOption) ServiceOption {
	return func(s *ServiceCtx) {
		s.dependencyOptions = append(s.dependencyOptions, opts...)
	}
}
