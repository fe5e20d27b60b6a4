package repos

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/architeacher/gateways/internal/domain/model"
)

//go:embed schema.sql
var schema string

// Schema returns the idempotent DDL for the inventory tables.
func Schema() string {
	return schema
}

// EnsureSchema creates the inventory tables when they are missing.
func EnsureSchema(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: applying schema: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}
