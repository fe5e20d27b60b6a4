package model_test

import (
	"errors"
	"testing"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func TestGatewayInputValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		input      model.GatewayInput
		wantFields map[string]string
	}{
		{
			name:  "valid",
			input: model.GatewayInput{SerialNumber: "gw0", Name: "gateway0", IPAddress: "10.8.6.50"},
		},
		{
			name:  "name is optional",
			input: model.GatewayInput{SerialNumber: "gw0", IPAddress: "10.8.6.50"},
		},
		{
			name:  "everything missing",
			input: model.GatewayInput{},
			wantFields: map[string]string{
				"serialNumber": model.MsgSerialRequired,
				"ipAddress":    model.MsgIPRequired,
			},
		},
		{
			name:       "malformed ip",
			input:      model.GatewayInput{SerialNumber: "gw0", IPAddress: "256.0.0.255"},
			wantFields: map[string]string{"ipAddress": model.MsgIPInvalid},
		},
		{
			name:       "blank serial",
			input:      model.GatewayInput{SerialNumber: "   ", IPAddress: "10.8.6.50"},
			wantFields: map[string]string{"serialNumber": model.MsgSerialRequired},
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

func TestNewGatewayRejectsInvalidIP(t *testing.T) {
	t.Parallel()

	_, err := model.NewGateway(model.GatewayInput{SerialNumber: "gw0", IPAddress: "not.valid.ip.address"})

	require.ErrorIs(t, err, model.ErrGatewayInvalid)
	require.ErrorIs(t, err, model.ErrInvalid)
	require.Equal(t, model.MsgIPNotValid, model.ErrorMessage(err))
}

func TestGatewayApply(t *testing.T) {
	t.Parallel()

	gw, err := model.NewGateway(model.GatewayInput{SerialNumber: "gw0", Name: "gateway0", IPAddress: "10.8.6.50"})
	require.NoError(t, err)
	require.Empty(t, gw.Devices)

	require.NoError(t, gw.Apply(model.GatewayInput{SerialNumber: "gw9", Name: "edge", IPAddress: "10.0.0.1"}))
	require.Equal(t, "gw9", gw.SerialNumber)
	require.Equal(t, "edge", gw.Name)
	require.Equal(t, "10.0.0.1", gw.IPAddress)

	err = gw.Apply(model.GatewayInput{SerialNumber: "gw9", IPAddress: "10.0.0.300"})
	require.ErrorIs(t, err, model.ErrGatewayInvalid)
	require.Equal(t, "10.0.0.1", gw.IPAddress)
}

func TestGatewayHasDevice(t *testing.T) {
	t.Parallel()

	device := &model.Device{ID: model.NewDeviceID()}
	gw := &model.Gateway{ID: model.NewGatewayID(), Devices: []*model.Device{device}}

	require.True(t, gw.HasDevice(device.ID))
	require.False(t, gw.HasDevice(model.NewDeviceID()))
	require.Nil(t, gw.Clone().Devices)
}
