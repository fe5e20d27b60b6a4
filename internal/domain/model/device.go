package model

import (
	"time"
)

const (
	MsgUIDRequired   = "UID must be specified"
	MsgStatusInvalid = "Status must be one of ONLINE, OFFLINE"
)

type (
	Device struct {
		ID        DeviceID
		UID       int64
		Vendor    string
		CreatedAt time.Time
		Status    Status
		GatewayID *GatewayID
	}

	// DeviceInput is the caller-supplied part of a device on create and update.
	DeviceInput struct {
		UID       *int64
		Vendor    string
		CreatedAt *time.Time
		Status    string
	}
)

// Validate checks the input field by field and returns *ValidationErrors or nil.
func (in DeviceInput) Validate() error {
	errs := NewValidationErrors()

	if in.UID == nil {
		errs.Add("uid", MsgUIDRequired, "required")
	}

	if _, err := ParseStatus(in.Status); err != nil {
		errs.Add("status", MsgStatusInvalid, "invalid")
	}

	return errs.OrNil()
}

// NewDevice builds an unattached device, defaulting the creation time and status.
func NewDevice(in DeviceInput, now time.Time) (*Device, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	status, _ := ParseStatus(in.Status)

	createdAt := now.UTC()
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		createdAt = in.CreatedAt.UTC()
	}

	return &Device{
		ID:        NewDeviceID(),
		UID:       *in.UID,
		Vendor:    in.Vendor,
		CreatedAt: createdAt,
		Status:    status,
	}, nil
}

// Apply overwrites the caller-owned fields. CreatedAt only changes when supplied.
func (d *Device) Apply(in DeviceInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	status, _ := ParseStatus(in.Status)

	d.UID = *in.UID
	d.Vendor = in.Vendor
	d.Status = status

	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		d.CreatedAt = in.CreatedAt.UTC()
	}

	return nil
}

func (d *Device) IsAttached() bool {
	return d.GatewayID != nil && !d.GatewayID.IsZero()
}

func (d *Device) IsAttachedTo(id GatewayID) bool {
	return d.IsAttached() && *d.GatewayID == id
}

func (d *Device) AttachTo(id GatewayID) {
	d.GatewayID = &id
}

func (d *Device) Detach() {
	d.GatewayID = nil
}

// Clone returns a deep copy so stored records never alias caller state.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	clone := *d

	if d.GatewayID != nil {
		gatewayID := *d.GatewayID
		clone.GatewayID = &gatewayID
	}

	return &clone
}
