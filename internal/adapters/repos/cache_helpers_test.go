package repos_test

import (
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/infrastructure"
	"github.com/architeacher/gateways/pkg/logger"
)

func newKeydbClient(mr *miniredis.Miniredis) *infrastructure.KeydbClient {
	return infrastructure.NewKeyDBClient(config.Cache{
		Address:       mr.Addr(),
		PoolSize:      5,
		DialTimeout:   time.Second,
		ReadTimeout:   time.Second,
		WriteTimeout:  time.Second,
		DefaultExpiry: time.Hour,
	}, logger.NewTestLogger())
}
