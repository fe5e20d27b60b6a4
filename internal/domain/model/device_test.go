package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func uid(v int64) *int64 {
	return &v
}

func TestDeviceInputValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		input      model.DeviceInput
		wantFields map[string]string
	}{
		{
			name:  "valid with defaults",
			input: model.DeviceInput{UID: uid(1)},
		},
		{
			name:       "missing uid",
			input:      model.DeviceInput{Vendor: "Sony"},
			wantFields: map[string]string{"uid": model.MsgUIDRequired},
		},
		{
			name:  "missing uid and bad status",
			input: model.DeviceInput{Status: "sleeping"},
			wantFields: map[string]string{
				"uid":    model.MsgUIDRequired,
				"status": model.MsgStatusInvalid,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.input.Validate()
			if tc.wantFields == nil {
				require.NoError(t, err)

				return
			}

			var validationErrs *model.ValidationErrors
			require.True(t, errors.As(err, &validationErrs))
			require.Equal(t, tc.wantFields, validationErrs.Fields())
		})
	}
}

func TestNewDeviceDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	device, err := model.NewDevice(model.DeviceInput{UID: uid(7), Vendor: "Cisco"}, now)
	require.NoError(t, err)

	require.False(t, device.ID.IsZero())
	require.Equal(t, int64(7), device.UID)
	require.Equal(t, "Cisco", device.Vendor)
	require.Equal(t, now, device.CreatedAt)
	require.Equal(t, model.StatusOnline, device.Status)
	require.False(t, device.IsAttached())
}

func TestNewDeviceKeepsSuppliedCreatedAt(t *testing.T) {
	t.Parallel()

	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	device, err := model.NewDevice(model.DeviceInput{UID: uid(7), CreatedAt: &created, Status: "offline"}, time.Now())
	require.NoError(t, err)
	require.Equal(t, created, device.CreatedAt)
	require.Equal(t, model.StatusOffline, device.Status)
}

func TestDeviceApply(t *testing.T) {
	t.Parallel()

	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	device := &model.Device{ID: model.NewDeviceID(), UID: 1, Vendor: "Sony", CreatedAt: created, Status: model.StatusOnline}

	require.NoError(t, device.Apply(model.DeviceInput{UID: uid(2), Vendor: "Apple", Status: "OFFLINE"}))
	require.Equal(t, int64(2), device.UID)
	require.Equal(t, "Apple", device.Vendor)
	require.Equal(t, model.StatusOffline, device.Status)
	require.Equal(t, created, device.CreatedAt, "created at only changes when supplied")

	later := created.Add(time.Hour)
	require.NoError(t, device.Apply(model.DeviceInput{UID: uid(2), CreatedAt: &later}))
	require.Equal(t, later, device.CreatedAt)

	require.Error(t, device.Apply(model.DeviceInput{}))
	require.Equal(t, int64(2), device.UID)
}

func TestDeviceAttachment(t *testing.T) {
	t.Parallel()

	gw0 := model.NewGatewayID()
	gw1 := model.NewGatewayID()
	device := &model.Device{ID: model.NewDeviceID(), UID: 1}

	require.False(t, device.IsAttachedTo(gw0))

	device.AttachTo(gw0)
	require.True(t, device.IsAttached())
	require.True(t, device.IsAttachedTo(gw0))
	require.False(t, device.IsAttachedTo(gw1))

	clone := device.Clone()
	device.AttachTo(gw1)
	require.True(t, clone.IsAttachedTo(gw0), "clone must not alias the gateway reference")

	device.Detach()
	require.False(t, device.IsAttached())
}
