package db

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/go-faster/errors"
)

//go:embed schema.sql
var schema string

// Migrate creates the offer tables when they are missing. Every statement is
// idempotent, so it is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}
