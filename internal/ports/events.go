package ports

import (
	"context"

	"github.com/architeacher/gateways/internal/domain/model"
)

// EventPublisher announces committed attachment changes.
type EventPublisher interface {
	Publish(ctx context.Context, event model.DeviceEvent) error
}
