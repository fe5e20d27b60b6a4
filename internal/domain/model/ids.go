package model

import (
	"github.com/google/uuid"
)

type (
	GatewayID struct {
		uuid.UUID
	}

	DeviceID struct {
		uuid.UUID
	}
)

func NewGatewayID() GatewayID {
	return GatewayID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseGatewayID(s string) (GatewayID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return GatewayID{}, err
	}

	return GatewayID{UUID: id}, nil
}

func (g GatewayID) String() string {
	return g.UUID.String()
}

func (g GatewayID) IsZero() bool {
	return g.UUID == uuid.Nil
}

func NewDeviceID() DeviceID {
	return DeviceID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseDeviceID(s string) (DeviceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DeviceID{}, err
	}

	return DeviceID{UUID: id}, nil
}

func (d DeviceID) String() string {
	return d.UUID.String()
}

func (d DeviceID) IsZero() bool {
	return d.UUID == uuid.Nil
}
