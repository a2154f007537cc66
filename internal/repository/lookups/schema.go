package lookups

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the code-map tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, table := range []string{CollateralTypesTable, PurposeGroupsTable} {
		_, err := db.Exec(ctx, `
            CREATE TABLE IF NOT EXISTS `+table+` (
                id         BIGSERIAL PRIMARY KEY,
                code       TEXT NOT NULL UNIQUE,
                value      TEXT NOT NULL,
                created_at TIMESTAMPTZ NOT NULL DEFAULT now()
            )`)
		if err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}
	return nil
}
