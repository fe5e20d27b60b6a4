package repos_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/architeacher/gateways/internal/adapters/repos"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

const lockGatewaySQL = `SELECT id FROM gateways WHERE id = $1 FOR UPDATE`

func newUnitOfWork(mock pgxmock.PgxPoolIface) *repos.UnitOfWork {
	return repos.NewUnitOfWork(mock, repos.NewPgxScanner(), logger.NewTestLogger())
}

func TestUnitOfWork_WithinGateway(t *testing.T) {
	t.Parallel()

	gatewayID := model.NewGatewayID()

	t.Run("locks the gateway and commits", func(t *testing.T) {
		runMockTest(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(lockGatewaySQL)).
				WithArgs(gatewayID.String()).
				WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(gatewayID.String()))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM devices WHERE gateway_id = $1`)).
				WithArgs(gatewayID.String()).
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
			mock.ExpectCommit()
		}, func(t *testing.T, mock pgxmock.PgxPoolIface) {
			err := newUnitOfWork(mock).WithinGateway(t.Context(), gatewayID, func(ctx context.Context, store ports.Store) error {
				count, err := store.Devices.CountByGateway(ctx, gatewayID)
				require.Equal(t, 1, count)

				return err
			})
			require.NoError(t, err)
		})
	})

	t.Run("missing gateway rolls back without calling fn", func(t *testing.T) {
		runMockTest(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(lockGatewaySQL)).
				WithArgs(gatewayID.String()).
				WillReturnRows(pgxmock.NewRows([]string{"id"}))
			mock.ExpectRollback()
		}, func(t *testing.T, mock pgxmock.PgxPoolIface) {
			called := false

			err := newUnitOfWork(mock).WithinGateway(t.Context(), gatewayID, func(context.Context, ports.Store) error {
				called = true

				return nil
			})
			require.ErrorIs(t, err, model.ErrGatewayNotFound)
			require.False(t, called)
		})
	})

	t.Run("fn failure rolls back and surfaces the error", func(t *testing.T) {
		sentinel := errors.New("boom")

		runMockTest(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(lockGatewaySQL)).
				WithArgs(gatewayID.String()).
				WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(gatewayID.String()))
			mock.ExpectRollback()
		}, func(t *testing.T, mock pgxmock.PgxPoolIface) {
			err := newUnitOfWork(mock).WithinGateway(t.Context(), gatewayID, func(context.Context, ports.Store) error {
				return sentinel
			})
			require.ErrorIs(t, err, sentinel)
		})
	})
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	runMockTest(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
	}, func(t *testing.T, mock pgxmock.PgxPoolIface) {
		err := newUnitOfWork(mock).Within(t.Context(), func(context.Context, ports.Store) error {
			return nil
		})
		require.ErrorIs(t, err, model.ErrDatabaseConnection)
	})
}

func TestEnsureSchema(t *testing.T) {
	runMockTest(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectExec(regexp.QuoteMeta(repos.Schema())).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}, func(t *testing.T, mock pgxmock.PgxPoolIface) {
		require.NoError(t, repos.EnsureSchema(t.Context(), mock))
	})
}
