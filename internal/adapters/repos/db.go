package repos

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	gatewaysTable = "gateways"
	devicesTable  = "devices"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type (
	// Querier is satisfied by both the pool and a transaction, so repositories
	// run unchanged inside or outside a unit of work.
	Querier interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	}

	// PoolOps defines the interface for pool-level database operations.
	// This allows injecting mock implementations for testing.
	PoolOps interface {
		Querier
		Begin(ctx context.Context) (pgx.Tx, error)
		Ping(ctx context.Context) error
	}
)

func isUniqueViolation(err error) bool {
	return hasSQLState(err, pgUniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, pgForeignKeyViolation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == code
}
