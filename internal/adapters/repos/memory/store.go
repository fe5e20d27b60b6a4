// Package memory keeps gateways and devices in process memory. It backs
// DATABASE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
)

type Store struct {
	mu       sync.RWMutex
	gateways map[model.GatewayID]*model.Gateway
	devices  map[model.DeviceID]*model.Device

	locksMu sync.Mutex
	locks   map[model.GatewayID]*sync.Mutex
}

var _ ports.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		gateways: make(map[model.GatewayID]*model.Gateway),
		devices:  make(map[model.DeviceID]*model.Device),
		locks:    make(map[model.GatewayID]*sync.Mutex),
	}
}

// Repositories returns the repository pair backed by this store.
func (s *Store) Repositories() ports.Store {
	return ports.Store{
		Gateways: &gatewayRepository{store: s},
		Devices:  &deviceRepository{store: s},
	}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	return fn(ctx, s.Repositories())
}

// WithinGateway serializes fn against every other call for the same gateway.
func (s *Store) WithinGateway(ctx context.Context, id model.GatewayID, fn func(ctx context.Context, store ports.Store) error) error {
	// Unknown ids never get a lock entry.
	if !s.hasGateway(id) {
		return model.ErrGatewayNotFound
	}

	lock := s.gatewayLock(id)

	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	// Deleted while waiting.
	if !s.hasGateway(id) {
		s.dropGatewayLock(id)

		return model.ErrGatewayNotFound
	}

	return fn(ctx, s.Repositories())
}

func (s *Store) hasGateway(id model.GatewayID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.gateways[id]

	return ok
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) gatewayLock(id model.GatewayID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}

	return lock
}

// dropGatewayLock forgets the lock of a deleted gateway. Holders of the old
// mutex find the gateway gone once they acquire it.
func (s *Store) dropGatewayLock(id model.GatewayID) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	delete(s.locks, id)
}

type gatewayRepository struct {
	store *Store
}

func (r *gatewayRepository) Create(_ context.Context, gateway *model.Gateway) error {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gateways[gateway.ID]; ok {
		return model.ErrDuplicate
	}

	if s.serialTaken(gateway) {
		return model.ErrDuplicate
	}

	s.gateways[gateway.ID] = gateway.Clone()

	return nil
}

func (r *gatewayRepository) Update(_ context.Context, gateway *model.Gateway) error {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gateways[gateway.ID]; !ok {
		return model.ErrGatewayNotFound
	}

	if s.serialTaken(gateway) {
		return model.ErrDuplicate
	}

	s.gateways[gateway.ID] = gateway.Clone()

	return nil
}

func (r *gatewayRepository) Delete(_ context.Context, id model.GatewayID) (bool, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gateways[id]; !ok {
		return false, nil
	}

	delete(s.gateways, id)
	s.dropGatewayLock(id)

	for _, device := range s.devices {
		if device.IsAttachedTo(id) {
			device.Detach()
		}
	}

	return true, nil
}

func (r *gatewayRepository) FetchByID(_ context.Context, id model.GatewayID) (*model.Gateway, error) {
	s := r.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	gateway, ok := s.gateways[id]
	if !ok {
		return nil, model.ErrGatewayNotFound
	}

	return gateway.Clone(), nil
}

func (r *gatewayRepository) FetchBySerialNumber(_ context.Context, serial string) (*model.Gateway, error) {
	s := r.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, gateway := range s.gateways {
		if gateway.SerialNumber == serial {
			return gateway.Clone(), nil
		}
	}

	return nil, model.ErrGatewayNotFound
}

func (r *gatewayRepository) List(context.Context) ([]*model.Gateway, error) {
	s := r.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	gateways := make([]*model.Gateway, 0, len(s.gateways))
	for _, gateway := range s.gateways {
		gateways = append(gateways, gateway.Clone())
	}

	sort.Slice(gateways, func(i, j int) bool {
		return gateways[i].SerialNumber < gateways[j].SerialNumber
	})

	return gateways, nil
}

// serialTaken reports whether another gateway holds the serial number. Callers hold mu.
func (s *Store) serialTaken(gateway *model.Gateway) bool {
	for id, existing := range s.gateways {
		if id != gateway.ID && existing.SerialNumber == gateway.SerialNumber {
			return true
		}
	}

	return false
}

type deviceRepository struct {
	store *Store
}

func (r *deviceRepository) Create(_ context.Context, device *model.Device) error {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[device.ID]; ok {
		return model.ErrDuplicate
	}

	if s.uidTaken(device) {
		return model.ErrDuplicate
	}

	if device.IsAttached() && s.gateways[*device.GatewayID] == nil {
		return model.ErrGatewayNotFound
	}

	s.devices[device.ID] = device.Clone()

	return nil
}

func (r *deviceRepository) Update(_ context.Context, device *model.Device) error {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[device.ID]; !ok {
		return model.ErrDeviceNotFound
	}

	if s.uidTaken(device) {
		return model.ErrDuplicate
	}

	if device.IsAttached() && s.gateways[*device.GatewayID] == nil {
		return model.ErrGatewayNotFound
	}

	s.devices[device.ID] = device.Clone()

	return nil
}

func (r *deviceRepository) UpdateDetails(_ context.Context, device *model.Device) error {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.devices[device.ID]
	if !ok {
		return model.ErrDeviceNotFound
	}

	if s.uidTaken(device) {
		return model.ErrDuplicate
	}

	updated := device.Clone()
	if stored.IsAttached() {
		updated.AttachTo(*stored.GatewayID)
	} else {
		updated.Detach()
	}

	s.devices[device.ID] = updated

	return nil
}

func (r *deviceRepository) Delete(_ context.Context, id model.DeviceID) (bool, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[id]; !ok {
		return false, nil
	}

	delete(s.devices, id)

	return true, nil
}

func (r *deviceRepository) FetchByID(_ context.Context, id model.DeviceID) (*model.Device, error) {
	s := r.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	device, ok := s.devices[id]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}

	return device.Clone(), nil
}

func (r *deviceRepository) FetchByUID(_ context.Context, uid int64) (*model.Device, error) {
	s := r.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, device := range s.devices {
		if device.UID == uid {
			return device.Clone(), nil
		}
	}

	return nil, model.ErrDeviceNotFound
}

func (r *deviceRepository) List(context.Context) ([]*model.Device, error) {
	return r.store.collect(func(*model.Device) bool { return true }), nil
}

func (r *deviceRepository) ListByGateway(_ context.Context, id model.GatewayID) ([]*model.Device, error) {
	return r.store.collect(func(d *model.Device) bool { return d.IsAttachedTo(id) }), nil
}

func (r *deviceRepository) CountByGateway(_ context.Context, id model.GatewayID) (int, error) {
	s := r.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, device := range s.devices {
		if device.IsAttachedTo(id) {
			count++
		}
	}

	return count, nil
}

func (s *Store) collect(keep func(*model.Device) bool) []*model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]*model.Device, 0, len(s.devices))
	for _, device := range s.devices {
		if keep(device) {
			devices = append(devices, device.Clone())
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].CreatedAt.Equal(devices[j].CreatedAt) {
			return devices[i].UID < devices[j].UID
		}

		return devices[i].CreatedAt.Before(devices[j].CreatedAt)
	})

	return devices
}

// uidTaken reports whether another device holds the uid. Callers hold mu.
func (s *Store) uidTaken(device *model.Device) bool {
	for id, existing := range s.devices {
		if id != device.ID && existing.UID == device.UID {
			return true
		}
	}

	return false
}
