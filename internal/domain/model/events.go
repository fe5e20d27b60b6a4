package model

import "time"

type EventType string

const (
	EventDeviceAttached EventType = "attached"
	EventDeviceDetached EventType = "detached"
)

// DeviceEvent records a committed change to a device's gateway link.
type DeviceEvent struct {
	Type       EventType `json:"event"`
	GatewayID  string    `json:"gatewayId"`
	DeviceID   string    `json:"deviceId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewDeviceEvent(eventType EventType, gatewayID GatewayID, deviceID DeviceID, now time.Time) DeviceEvent {
	return DeviceEvent{
		Type:       eventType,
		GatewayID:  gatewayID.String(),
		DeviceID:   deviceID.String(),
		OccurredAt: now.UTC(),
	}
}
