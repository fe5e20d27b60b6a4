package model

import "strings"

const (
	MsgSerialRequired   = "Serial number is required"
	MsgIPRequired       = "IP Address is required"
	MsgIPInvalid        = "Invalid IP address"
	MsgIPNotValid       = "Provided IP address is not valid"
	MsgSerialDuplicated = "A gateway with the specified serial number already exists"
)

type (
	Gateway struct {
		ID           GatewayID
		SerialNumber string
		Name         string
		IPAddress    string
		// Devices is derived from the devices referencing this gateway and is never stored.
		Devices []*Device
	}

	GatewayInput struct {
		SerialNumber string
		Name         string
		IPAddress    string
	}
)

// Validate checks the input field by field and returns *ValidationErrors or nil.
func (in GatewayInput) Validate() error {
	errs := NewValidationErrors()

	if strings.TrimSpace(in.SerialNumber) == "" {
		errs.Add("serialNumber", MsgSerialRequired, "required")
	}

	switch {
	case strings.TrimSpace(in.IPAddress) == "":
		errs.Add("ipAddress", MsgIPRequired, "required")
	case !IsValidIPv4(in.IPAddress):
		errs.Add("ipAddress", MsgIPInvalid, "invalid")
	}

	return errs.OrNil()
}

// Check is the service-side guard. It reports the first problem as a GatewayInvalid domain error.
func (in GatewayInput) Check() error {
	if strings.TrimSpace(in.SerialNumber) == "" {
		return NewDomainError(ErrGatewayInvalid, MsgSerialRequired)
	}

	if !IsValidIPv4(in.IPAddress) {
		return NewDomainError(ErrGatewayInvalid, MsgIPNotValid)
	}

	return nil
}

func NewGateway(in GatewayInput) (*Gateway, error) {
	if err := in.Check(); err != nil {
		return nil, err
	}

	return &Gateway{
		ID:           NewGatewayID(),
		SerialNumber: in.SerialNumber,
		Name:         in.Name,
		IPAddress:    in.IPAddress,
		Devices:      make([]*Device, 0),
	}, nil
}

func (g *Gateway) Apply(in GatewayInput) error {
	if err := in.Check(); err != nil {
		return err
	}

	g.SerialNumber = in.SerialNumber
	g.Name = in.Name
	g.IPAddress = in.IPAddress

	return nil
}

func (g *Gateway) HasDevice(id DeviceID) bool {
	for _, d := range g.Devices {
		if d.ID == id {
			return true
		}
	}

	return false
}

// Clone copies the stored fields. The derived device view is not copied.
func (g *Gateway) Clone() *Gateway {
	if g == nil {
		return nil
	}

	clone := *g
	clone.Devices = nil

	return &clone
}
