package repos_test

import (
	"testing"

	"github.com/architeacher/gateways/internal/adapters/repos"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var (
	gatewayColumns = []string{"id", "serial_number", "name", "ip_address"}
	deviceColumns  = []string{"id", "uid", "vendor", "created_at", "status", "gateway_id"}

	uniqueViolation     = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	foreignKeyViolation = &pgconn.PgError{Code: "23503", Message: "insert or update violates foreign key constraint"}
)

func runMockTest(t *testing.T, setupMock func(pgxmock.PgxPoolIface), testFn func(*testing.T, pgxmock.PgxPoolIface)) {
	t.Helper()
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	setupMock(mock)

	testFn(t, mock)

	require.NoError(t, mock.ExpectationsWereMet())
}

func runGatewaysTest(t *testing.T, setupMock func(pgxmock.PgxPoolIface), testFn func(*testing.T, *repos.GatewaysRepository)) {
	t.Helper()

	runMockTest(t, setupMock, func(t *testing.T, mock pgxmock.PgxPoolIface) {
		testFn(t, repos.NewGatewaysRepository(mock, repos.NewPgxScanner(), logger.NewTestLogger()))
	})
}

func runDevicesTest(t *testing.T, setupMock func(pgxmock.PgxPoolIface), testFn func(*testing.T, *repos.DevicesRepository)) {
	t.Helper()

	runMockTest(t, setupMock, func(t *testing.T, mock pgxmock.PgxPoolIface) {
		testFn(t, repos.NewDevicesRepository(mock, repos.NewPgxScanner(), logger.NewTestLogger()))
	})
}
