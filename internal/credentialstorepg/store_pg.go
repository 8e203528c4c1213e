// Package credentialstorepg stores the console credential in PostgreSQL through a pgx pool.
package credentialstorepg

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
)

const operationTimeout = 5 * time.Second

// PostgresStore persists the credential row in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Open builds a pool, ensures the schema, and returns the store.
func Open(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := BuildPool(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("credential_store.pgx.pool: %w", err)
	}
	if schemaErr := EnsureSchema(ctx, pool); schemaErr != nil {
		pool.Close()
		return nil, fmt.Errorf("credential_store.pgx.schema: %w", schemaErr)
	}
	return NewPostgresStore(pool), nil
}

// Read returns the persisted credential, or the request cookie when a request is supplied.
func (store *PostgresStore) Read(request *http.Request) string {
	if request != nil {
		return credentialstore.ReadRequestCookie(request)
	}
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	var token string
	row := store.pool.QueryRow(ctx, `
SELECT token
FROM credentials
WHERE name = $1 AND expires_unix > $2
`, credentialstore.TokenName, time.Now().UTC().Unix())
	if scanErr := row.Scan(&token); scanErr != nil {
		return ""
	}
	return token
}

// Write upserts the credential row.
func (store *PostgresStore) Write(token string, options credentialstore.Options) error {
	if options.MaxAge <= 0 {
		options.MaxAge = credentialstore.DefaultMaxAge
	}
	if options.Path == "" {
		options.Path = credentialstore.DefaultPath
	}
	now := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	_, execErr := store.pool.Exec(ctx, `
INSERT INTO credentials (name, token, path, expires_unix, written_unix)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE
SET token = EXCLUDED.token, path = EXCLUDED.path, expires_unix = EXCLUDED.expires_unix, written_unix = EXCLUDED.written_unix
`, credentialstore.TokenName, token, options.Path, now.Add(options.MaxAge).Unix(), now.Unix())
	if execErr != nil {
		return fmt.Errorf("credential_store.pgx.write: %w", execErr)
	}
	return nil
}

// Clear deletes the credential row.
func (store *PostgresStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	if _, err := store.pool.Exec(ctx, `DELETE FROM credentials WHERE name = $1`, credentialstore.TokenName); err != nil {
		return fmt.Errorf("credential_store.pgx.clear: %w", err)
	}
	return nil
}

// Close releases the pool.
func (store *PostgresStore) Close() error {
	store.pool.Close()
	return nil
}
