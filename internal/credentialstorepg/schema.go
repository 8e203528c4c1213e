package credentialstorepg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the credentials table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credentials (
    name TEXT PRIMARY KEY,
    token TEXT NOT NULL,
    path TEXT NOT NULL DEFAULT '/',
    expires_unix BIGINT NOT NULL,
    written_unix BIGINT NOT NULL
);
`)
	return err
}
