package repos

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/pkg/logger"
)

var gatewayColumns = []string{"id", "serial_number", "name", "ip_address"}

type (
	// GatewaysRepository handles gateway persistence operations.
	GatewaysRepository struct {
		db      Querier
		scanner Scanner
		logger  logger.Logger
	}

	gatewayRow struct {
		ID           string `db:"id"`
		SerialNumber string `db:"serial_number"`
		Name         string `db:"name"`
		IPAddress    string `db:"ip_address"`
	}
)

func NewGatewaysRepository(db Querier, scanner Scanner, log logger.Logger) *GatewaysRepository {
	return &GatewaysRepository{
		db:      db,
		scanner: scanner,
		logger:  log,
	}
}

func (r *GatewaysRepository) Create(ctx context.Context, gateway *model.Gateway) error {
	query, args, err := psql.Insert(gatewaysTable).
		Columns(gatewayColumns...).
		Values(gateway.ID.String(), gateway.SerialNumber, gateway.Name, gateway.IPAddress).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicate
		}

		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (r *GatewaysRepository) Update(ctx context.Context, gateway *model.Gateway) error {
	query, args, err := psql.Update(gatewaysTable).
		Set("serial_number", gateway.SerialNumber).
		Set("name", gateway.Name).
		Set("ip_address", gateway.IPAddress).
		Where(sq.Eq{"id": gateway.ID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicate
		}

		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrGatewayNotFound
	}

	return nil
}

// Delete relies on the ON DELETE SET NULL foreign key to release attached devices.
func (r *GatewaysRepository) Delete(ctx context.Context, id model.GatewayID) (bool, error) {
	query, args, err := psql.Delete(gatewaysTable).
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

func (r *GatewaysRepository) FetchByID(ctx context.Context, id model.GatewayID) (*model.Gateway, error) {
	return r.findOne(ctx, sq.Eq{"id": id.String()})
}

func (r *GatewaysRepository) FetchBySerialNumber(ctx context.Context, serial string) (*model.Gateway, error) {
	return r.findOne(ctx, sq.Eq{"serial_number": serial})
}

func (r *GatewaysRepository) List(ctx context.Context) ([]*model.Gateway, error) {
	query, args, err := psql.Select(gatewayColumns...).
		From(gatewaysTable).
		OrderBy("serial_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var gatewayRows []gatewayRow
	if err := r.scanner.ScanAll(&gatewayRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	gateways := make([]*model.Gateway, 0, len(gatewayRows))
	for index := range gatewayRows {
		gateway, err := gatewayRows[index].toModel()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		gateways = append(gateways, gateway)
	}

	return gateways, nil
}

func (r *GatewaysRepository) findOne(ctx context.Context, criteria sq.Sqlizer) (*model.Gateway, error) {
	query, args, err := psql.Select(gatewayColumns...).
		From(gatewaysTable).
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

	var row gatewayRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return nil, model.ErrGatewayNotFound
		}

		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return row.toModel()
}

func (row gatewayRow) toModel() (*model.Gateway, error) {
	id, err := model.ParseGatewayID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway ID: %w", err)
	}

	return &model.Gateway{
		ID:           id,
		SerialNumber: row.SerialNumber,
		Name:         row.Name,
		IPAddress:    row.IPAddress,
	}, nil
}
