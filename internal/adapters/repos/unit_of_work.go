package repos

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// UnitOfWork runs repository calls inside a PostgreSQL transaction.
type UnitOfWork struct {
	pool    PoolOps
	scanner Scanner
	logger  logger.Logger
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(pool PoolOps, scanner Scanner, log logger.Logger) *UnitOfWork {
	return &UnitOfWork{
		pool:    pool,
		scanner: scanner,
		logger:  log,
	}
}

// Repositories returns repositories bound to the pool, outside any transaction.
func (u *UnitOfWork) Repositories() ports.Store {
	return u.store(u.pool)
}

func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	return u.run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, u.store(tx))
	})
}

// WithinGateway holds a row lock on the gateway until the transaction ends, which
// serializes concurrent attach and detach calls against the same gateway.
func (u *UnitOfWork) WithinGateway(ctx context.Context, id model.GatewayID, fn func(ctx context.Context, store ports.Store) error) error {
	return u.run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query, args, err := psql.Select("id").
			From(gatewaysTable).
			Where(sq.Eq{"id": id.String()}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build lock query: %w", err)
		}

		var locked string
		if err := tx.QueryRow(ctx, query, args...).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrGatewayNotFound
			}

			return fmt.Errorf("%w: locking gateway: %v", model.ErrDatabaseQuery, err)
		}

		return fn(ctx, u.store(tx))
	})
}

func (u *UnitOfWork) Ping(ctx context.Context) error {
	return u.pool.Ping(ctx)
}

func (u *UnitOfWork) run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", model.ErrDatabaseConnection, err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			u.logger.Error().Err(rbErr).Msg("failed to roll back transaction")
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (u *UnitOfWork) store(db Querier) ports.Store {
	return ports.Store{
		Gateways: NewGatewaysRepository(db, u.scanner, u.logger),
		Devices:  NewDevicesRepository(db, u.scanner, u.logger),
	}
}
