package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/architeacher/gateways/internal/adapters/repos/memory"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/stretchr/testify/require"
)

func newGateway(serial string) *model.Gateway {
	return &model.Gateway{
		ID:           model.NewGatewayID(),
		SerialNumber: serial,
		IPAddress:    "10.0.0.1",
	}
}

func newDevice(uid int64) *model.Device {
	return &model.Device{
		ID:        model.NewDeviceID(),
		UID:       uid,
		CreatedAt: time.Now().UTC(),
		Status:    model.StatusOnline,
	}
}

func TestGatewayRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := memory.NewStore().Repositories()

	gateway := newGateway("gw0")
	require.NoError(t, repos.Gateways.Create(ctx, gateway))
	require.ErrorIs(t, repos.Gateways.Create(ctx, newGateway("gw0")), model.ErrDuplicate)

	fetched, err := repos.Gateways.FetchBySerialNumber(ctx, "gw0")
	require.NoError(t, err)
	require.Equal(t, gateway.ID, fetched.ID)

	fetched.Name = "changed"
	stored, err := repos.Gateways.FetchByID(ctx, gateway.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Name, "returned records must not alias the store")

	_, err = repos.Gateways.FetchByID(ctx, model.NewGatewayID())
	require.ErrorIs(t, err, model.ErrGatewayNotFound)

	require.ErrorIs(t, repos.Gateways.Update(ctx, newGateway("gw9")), model.ErrGatewayNotFound)
}

func TestDeviceRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := memory.NewStore().Repositories()

	gateway := newGateway("gw0")
	require.NoError(t, repos.Gateways.Create(ctx, gateway))

	first := newDevice(1)
	second := newDevice(2)
	require.NoError(t, repos.Devices.Create(ctx, first))
	require.NoError(t, repos.Devices.Create(ctx, second))
	require.ErrorIs(t, repos.Devices.Create(ctx, newDevice(1)), model.ErrDuplicate)

	first.AttachTo(gateway.ID)
	require.NoError(t, repos.Devices.Update(ctx, first))

	count, err := repos.Devices.CountByGateway(ctx, gateway.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	attached, err := repos.Devices.ListByGateway(ctx, gateway.ID)
	require.NoError(t, err)
	require.Len(t, attached, 1)
	require.Equal(t, first.ID, attached[0].ID)

	second.UID = 1
	require.ErrorIs(t, repos.Devices.Update(ctx, second), model.ErrDuplicate)

	dangling := newDevice(3)
	require.NoError(t, repos.Devices.Create(ctx, dangling))
	dangling.AttachTo(model.NewGatewayID())
	require.ErrorIs(t, repos.Devices.Update(ctx, dangling), model.ErrGatewayNotFound)

	removed, err := repos.Gateways.Delete(ctx, gateway.ID)
	require.NoError(t, err)
	require.True(t, removed)

	released, err := repos.Devices.FetchByID(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, released.IsAttached())

	removed, err = repos.Devices.Delete(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repos.Devices.Delete(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestStore_WithinGateway(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	called := false
	err := store.WithinGateway(ctx, model.NewGatewayID(), func(context.Context, ports.Store) error {
		called = true

		return nil
	})
	require.ErrorIs(t, err, model.ErrGatewayNotFound)
	require.False(t, called)

	gateway := newGateway("gw0")
	require.NoError(t, store.Repositories().Gateways.Create(ctx, gateway))

	err = store.WithinGateway(ctx, gateway.ID, func(ctx context.Context, repos ports.Store) error {
		called = true

		_, err := repos.Gateways.FetchByID(ctx, gateway.ID)

		return err
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestDeviceRepository_UpdateDetails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := memory.NewStore().Repositories()

	gateway := newGateway("gw0")
	require.NoError(t, repos.Gateways.Create(ctx, gateway))

	device := newDevice(1)
	require.NoError(t, repos.Devices.Create(ctx, device))
	require.NoError(t, repos.Devices.Create(ctx, newDevice(2)))

	stale := device.Clone()

	device.AttachTo(gateway.ID)
	require.NoError(t, repos.Devices.Update(ctx, device))

	stale.Vendor = "renamed"
	require.NoError(t, repos.Devices.UpdateDetails(ctx, stale))

	stored, err := repos.Devices.FetchByID(ctx, device.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", stored.Vendor)
	require.True(t, stored.IsAttachedTo(gateway.ID), "a details write must keep the current gateway link")

	stale.UID = 2
	require.ErrorIs(t, repos.Devices.UpdateDetails(ctx, stale), model.ErrDuplicate)
	require.ErrorIs(t, repos.Devices.UpdateDetails(ctx, newDevice(3)), model.ErrDeviceNotFound)
}

func TestStore_DeleteGatewayDropsLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()

	for _, serial := range []string{"gw0", "gw1", "gw2"} {
		gateway := newGateway(serial)
		require.NoError(t, repos.Gateways.Create(ctx, gateway))
		require.NoError(t, store.WithinGateway(ctx, gateway.ID, func(context.Context, ports.Store) error { return nil }))

		removed, err := repos.Gateways.Delete(ctx, gateway.ID)
		require.NoError(t, err)
		require.True(t, removed)
	}

	require.ErrorIs(t, store.WithinGateway(ctx, model.NewGatewayID(), func(context.Context, ports.Store) error { return nil }), model.ErrGatewayNotFound)
	require.Zero(t, memory.LockCount(store))
}
