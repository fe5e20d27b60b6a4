package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		kind string
		is   error
	}{
		{
			name: "gateway not found",
			err:  model.NewDomainError(model.ErrGatewayNotFound, "Gateway not found with ID: x"),
			kind: model.KindGatewayNotFound,
			is:   model.ErrNotFound,
		},
		{
			name: "device not attached is a not found",
			err:  model.NewDomainError(model.ErrDeviceNotAttached, "not attached"),
			kind: model.KindDeviceNotAttached,
			is:   model.ErrNotFound,
		},
		{
			name: "limit exceeded",
			err:  model.NewDomainError(model.ErrDeviceLimitExceeded, "limit"),
			kind: model.KindDeviceLimitExceeded,
			is:   model.ErrDeviceLimitExceeded,
		},
		{
			name: "wrapped device invalid",
			err:  fmt.Errorf("creating device: %w", model.NewDomainError(model.ErrDeviceInvalid, "dup")),
			kind: model.KindDeviceInvalid,
			is:   model.ErrInvalid,
		},
		{
			name: "infrastructure error has no kind",
			err:  fmt.Errorf("%w: timeout", model.ErrDatabaseQuery),
			kind: "",
			is:   model.ErrDatabaseQuery,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.kind, model.ErrorKind(tc.err))
			require.ErrorIs(t, tc.err, tc.is)
		})
	}
}

func TestDeviceNotAttachedIsNotDeviceNotFound(t *testing.T) {
	t.Parallel()

	require.False(t, errors.Is(model.ErrDeviceNotAttached, model.ErrDeviceNotFound))
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", model.NewDomainError(model.ErrDeviceNotFound, "Device of id: %s could not be found", "abc"))
	require.Equal(t, "Device of id: abc could not be found", model.ErrorMessage(err))
	require.Equal(t, "plain", model.ErrorMessage(errors.New("plain")))
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	errs := model.NewValidationErrors()
	require.False(t, errs.HasErrors())
	require.NoError(t, errs.OrNil())
	require.Equal(t, "validation failed", errs.Error())

	errs.Add("ipAddress", model.MsgIPInvalid, "invalid")
	errs.Add("ipAddress", "second", "invalid")
	errs.Add("serialNumber", model.MsgSerialRequired, "required")

	require.True(t, errs.HasErrors())
	require.Error(t, errs.OrNil())
	require.Equal(t, model.MsgIPInvalid, errs.Error())
	require.Equal(t, map[string]string{
		"ipAddress":    model.MsgIPInvalid,
		"serialNumber": model.MsgSerialRequired,
	}, errs.Fields())
}

func TestOverallStatus(t *testing.T) {
	t.Parallel()

	critical := map[string]bool{"postgres": true}

	require.Equal(t, model.HealthStatusOK, model.OverallStatus(map[string]model.DependencyCheck{
		"postgres": {Status: model.DependencyStatusUp},
	}, critical))

	require.Equal(t, model.HealthStatusDegraded, model.OverallStatus(map[string]model.DependencyCheck{
		"postgres": {Status: model.DependencyStatusUp},
		"cache":    {Status: model.DependencyStatusDown},
	}, critical))

	require.Equal(t, model.HealthStatusDown, model.OverallStatus(map[string]model.DependencyCheck{
		"postgres": {Status: model.DependencyStatusDown},
	}, critical))
}
