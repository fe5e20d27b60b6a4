package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/internal/usecases/queries"
)

type (
	cachedDevice struct {
		ID        string    `json:"id"`
		UID       int64     `json:"uid"`
		Vendor    string    `json:"vendor"`
		CreatedAt time.Time `json:"created_at"`
		Status    string    `json:"status"`
		GatewayID *string   `json:"gateway_id,omitempty"`
	}

	cachedGateway struct {
		ID           string         `json:"id"`
		SerialNumber string         `json:"serial_number"`
		Name         string         `json:"name"`
		IPAddress    string         `json:"ip_address"`
		Devices      []cachedDevice `json:"devices"`
	}

	// GetGatewayCacheAdapter adapts the query cache for GetGatewayQuery.
	GetGatewayCacheAdapter struct {
		cache ports.QueryCache
	}

	// ListGatewaysCacheAdapter adapts the query cache for ListGatewaysQuery.
	ListGatewaysCacheAdapter struct {
		cache ports.QueryCache
	}

	// GetDeviceCacheAdapter adapts the query cache for GetDeviceQuery.
	GetDeviceCacheAdapter struct {
		cache ports.QueryCache
	}

	// ListDevicesCacheAdapter adapts the query cache for ListDevicesQuery.
	ListDevicesCacheAdapter struct {
		cache ports.QueryCache
	}
)

func NewGetGatewayCacheAdapter(cache ports.QueryCache) *GetGatewayCacheAdapter {
	return &GetGatewayCacheAdapter{cache: cache}
}

func (a *GetGatewayCacheAdapter) Get(ctx context.Context, query queries.GetGatewayQuery) (*model.Gateway, bool, error) {
	return load(ctx, a.cache, gatewayKey(query.ID), toDomainGateway)
}

func (a *GetGatewayCacheAdapter) Set(ctx context.Context, query queries.GetGatewayQuery, result *model.Gateway, ttl time.Duration) error {
	return store(ctx, a.cache, gatewayKey(query.ID), toCachedGateway(result), ttl)
}

func NewListGatewaysCacheAdapter(cache ports.QueryCache) *ListGatewaysCacheAdapter {
	return &ListGatewaysCacheAdapter{cache: cache}
}

func (a *ListGatewaysCacheAdapter) Get(ctx context.Context, _ queries.ListGatewaysQuery) ([]*model.Gateway, bool, error) {
	return load(ctx, a.cache, gatewayListKey, func(cached []cachedGateway) ([]*model.Gateway, error) {
		return convertAll(cached, toDomainGateway)
	})
}

func (a *ListGatewaysCacheAdapter) Set(ctx context.Context, _ queries.ListGatewaysQuery, result []*model.Gateway, ttl time.Duration) error {
	cached := make([]cachedGateway, len(result))
	for index, gateway := range result {
		cached[index] = toCachedGateway(gateway)
	}

	return store(ctx, a.cache, gatewayListKey, cached, ttl)
}

func NewGetDeviceCacheAdapter(cache ports.QueryCache) *GetDeviceCacheAdapter {
	return &GetDeviceCacheAdapter{cache: cache}
}

func (a *GetDeviceCacheAdapter) Get(ctx context.Context, query queries.GetDeviceQuery) (*model.Device, bool, error) {
	return load(ctx, a.cache, deviceKey(query.ID), toDomainDevice)
}

func (a *GetDeviceCacheAdapter) Set(ctx context.Context, query queries.GetDeviceQuery, result *model.Device, ttl time.Duration) error {
	return store(ctx, a.cache, deviceKey(query.ID), toCachedDevice(result), ttl)
}

func NewListDevicesCacheAdapter(cache ports.QueryCache) *ListDevicesCacheAdapter {
	return &ListDevicesCacheAdapter{cache: cache}
}

func (a *ListDevicesCacheAdapter) Get(ctx context.Context, _ queries.ListDevicesQuery) ([]*model.Device, bool, error) {
	return load(ctx, a.cache, deviceListKey, func(cached []cachedDevice) ([]*model.Device, error) {
		return convertAll(cached, toDomainDevice)
	})
}

func (a *ListDevicesCacheAdapter) Set(ctx context.Context, _ queries.ListDevicesQuery, result []*model.Device, ttl time.Duration) error {
	return store(ctx, a.cache, deviceListKey, toCachedDevices(result), ttl)
}

func load[C, R any](ctx context.Context, cache ports.QueryCache, key string, convert func(C) (R, error)) (R, bool, error) {
	var zero R

	data, hit, err := cache.Get(ctx, key)
	if err != nil || !hit {
		return zero, false, err
	}

	var cached C
	if err := json.Unmarshal(data, &cached); err != nil {
		return zero, false, fmt.Errorf("unmarshalling cached %s: %w", key, err)
	}

	result, err := convert(cached)
	if err != nil {
		return zero, false, fmt.Errorf("converting cached %s: %w", key, err)
	}

	return result, true, nil
}

func store(ctx context.Context, cache ports.QueryCache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", key, err)
	}

	return cache.Set(ctx, key, data, ttl)
}

func convertAll[C, R any](cached []C, convert func(C) (R, error)) ([]R, error) {
	result := make([]R, len(cached))

	for index := range cached {
		converted, err := convert(cached[index])
		if err != nil {
			return nil, fmt.Errorf("converting entry %d: %w", index, err)
		}

		result[index] = converted
	}

	return result, nil
}

func toCachedGateway(gateway *model.Gateway) cachedGateway {
	return cachedGateway{
		ID:           gateway.ID.String(),
		SerialNumber: gateway.SerialNumber,
		Name:         gateway.Name,
		IPAddress:    gateway.IPAddress,
		Devices:      toCachedDevices(gateway.Devices),
	}
}

func toCachedDevices(devices []*model.Device) []cachedDevice {
	cached := make([]cachedDevice, len(devices))
	for index, device := range devices {
		cached[index] = toCachedDevice(device)
	}

	return cached
}

func toCachedDevice(device *model.Device) cachedDevice {
	return cachedDevice{
		ID:        device.ID.String(),
		UID:       device.UID,
		Vendor:    device.Vendor,
		CreatedAt: device.CreatedAt,
		Status:    device.Status.String(),
		GatewayID: cachedGatewayRef(device),
	}
}

func cachedGatewayRef(device *model.Device) *string {
	if !device.IsAttached() {
		return nil
	}

	ref := device.GatewayID.String()

	return &ref
}

func toDomainGateway(cached cachedGateway) (*model.Gateway, error) {
	id, err := model.ParseGatewayID(cached.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing gateway ID: %w", err)
	}

	devices, err := convertAll(cached.Devices, toDomainDevice)
	if err != nil {
		return nil, err
	}

	return &model.Gateway{
		ID:           id,
		SerialNumber: cached.SerialNumber,
		Name:         cached.Name,
		IPAddress:    cached.IPAddress,
		Devices:      devices,
	}, nil
}

func toDomainDevice(cached cachedDevice) (*model.Device, error) {
	id, err := model.ParseDeviceID(cached.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing device ID: %w", err)
	}

	status, err := model.ParseStatus(cached.Status)
	if err != nil {
		return nil, err
	}

	device := &model.Device{
		ID:        id,
		UID:       cached.UID,
		Vendor:    cached.Vendor,
		CreatedAt: cached.CreatedAt,
		Status:    status,
	}

	if cached.GatewayID != nil {
		gatewayID, err := model.ParseGatewayID(*cached.GatewayID)
		if err != nil {
			return nil, fmt.Errorf("parsing gateway reference: %w", err)
		}

		device.GatewayID = &gatewayID
	}

	return device, nil
}
