package repos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/pkg/logger"
)

var deviceColumns = []string{"id", "uid", "vendor", "created_at", "status", "gateway_id"}

type (
	// DevicesRepository handles device persistence operations.
	DevicesRepository struct {
		db      Querier
		scanner Scanner
		logger  logger.Logger
	}

	deviceRow struct {
		ID        string    `db:"id"`
		UID       int64     `db:"uid"`
		Vendor    string    `db:"vendor"`
		CreatedAt time.Time `db:"created_at"`
		Status    string    `db:"status"`
		GatewayID *string   `db:"gateway_id"`
	}
)

func NewDevicesRepository(db Querier, scanner Scanner, log logger.Logger) *DevicesRepository {
	return &DevicesRepository{
		db:      db,
		scanner: scanner,
		logger:  log,
	}
}

func (r *DevicesRepository) Create(ctx context.Context, device *model.Device) error {
	query, args, err := psql.Insert(devicesTable).
		Columns(deviceColumns...).
		Values(
			device.ID.String(),
			device.UID,
			device.Vendor,
			device.CreatedAt,
			device.Status.String(),
			gatewayRef(device),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return r.translateWriteError(err)
	}

	return nil
}

func (r *DevicesRepository) Update(ctx context.Context, device *model.Device) error {
	return r.update(ctx, device, r.detailsUpdate(device).Set("gateway_id", gatewayRef(device)))
}

// UpdateDetails writes everything but the gateway link, which only changes
// under the gateway lock.
func (r *DevicesRepository) UpdateDetails(ctx context.Context, device *model.Device) error {
	return r.update(ctx, device, r.detailsUpdate(device))
}

func (r *DevicesRepository) detailsUpdate(device *model.Device) sq.UpdateBuilder {
	return psql.Update(devicesTable).
		Set("uid", device.UID).
		Set("vendor", device.Vendor).
		Set("created_at", device.CreatedAt).
		Set("status", device.Status.String())
}

func (r *DevicesRepository) update(ctx context.Context, device *model.Device, builder sq.UpdateBuilder) error {
	query, args, err := builder.
		Where(sq.Eq{"id": device.ID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return r.translateWriteError(err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrDeviceNotFound
	}

	return nil
}

func (r *DevicesRepository) Delete(ctx context.Context, id model.DeviceID) (bool, error) {
	query, args, err := psql.Delete(devicesTable).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete query: %w", err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *DevicesRepository) FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	return r.findOne(ctx, sq.Eq{"id": id.String()})
}

func (r *DevicesRepository) FetchByUID(ctx context.Context, uid int64) (*model.Device, error) {
	return r.findOne(ctx, sq.Eq{"uid": uid})
}

func (r *DevicesRepository) List(ctx context.Context) ([]*model.Device, error) {
	return r.query(ctx, psql.Select(deviceColumns...).
		From(devicesTable).
		OrderBy("created_at", "uid"))
}

func (r *DevicesRepository) ListByGateway(ctx context.Context, id model.GatewayID) ([]*model.Device, error) {
	return r.query(ctx, psql.Select(deviceColumns...).
		From(devicesTable).
		Where(sq.Eq{"gateway_id": id.String()}).
		OrderBy("created_at", "uid"))
}

func (r *DevicesRepository) CountByGateway(ctx context.Context, id model.GatewayID) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From(devicesTable).
		Where(sq.Eq{"gateway_id": id.String()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return count, nil
}

func (r *DevicesRepository) findOne(ctx context.Context, criteria sq.Sqlizer) (*model.Device, error) {
	query, args, err := psql.Select(deviceColumns...).
		From(devicesTable).
		Where(criteria).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var row deviceRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return nil, model.ErrDeviceNotFound
		}

		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return row.toModel()
}

func (r *DevicesRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]*model.Device, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var deviceRows []deviceRow
	if err := r.scanner.ScanAll(&deviceRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	devices := make([]*model.Device, 0, len(deviceRows))
	for index := range deviceRows {
		device, err := deviceRows[index].toModel()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		devices = append(devices, device)
	}

	return devices, nil
}

func (r *DevicesRepository) translateWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return model.ErrDuplicate
	case isForeignKeyViolation(err):
		return model.ErrGatewayNotFound
	default:
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
}

func gatewayRef(device *model.Device) any {
	if !device.IsAttached() {
		return nil
	}

	return device.GatewayID.String()
}

func (row deviceRow) toModel() (*model.Device, error) {
	id, err := model.ParseDeviceID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse device ID: %w", err)
	}

	status, err := model.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to parse device status: %w", err)
	}

	device := &model.Device{
		ID:        id,
		UID:       row.UID,
		Vendor:    row.Vendor,
		CreatedAt: row.CreatedAt.UTC(),
		Status:    status,
	}

	if row.GatewayID != nil {
		gatewayID, err := model.ParseGatewayID(*row.GatewayID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gateway ID: %w", err)
		}

		device.AttachTo(gatewayID)
	}

	return device, nil
}
