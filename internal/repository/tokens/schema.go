package tokens

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func EnsureSchema(ctx context.Context, db Execer) error {
	_, err := db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS `+Table+` (
            id         BIGSERIAL PRIMARY KEY,
            token_hash CHAR(64) NOT NULL UNIQUE,
            owner      TEXT NOT NULL,
            abilities  TEXT NOT NULL DEFAULT '*',
            expires_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`)
	if err != nil {
		return fmt.Errorf("create %s: %w", Table, err)
	}
	return nil
}
