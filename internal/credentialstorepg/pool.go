package credentialstorepg

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BuildPool creates a small pgx pool; the console holds at most one credential row.
// A pgx:// scheme is accepted and rewritten to postgres://.
func BuildPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(NormalizeURL(databaseURL))
	if err != nil {
		return nil, err
	}
	config.MinConns = 0
	config.MaxConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute
	return pgxpool.NewWithConfig(ctx, config)
}

// NormalizeURL rewrites the pgx:// scheme into one pgx understands.
func NormalizeURL(databaseURL string) string {
	if strings.HasPrefix(strings.ToLower(databaseURL), "pgx://") {
		return "postgres://" + databaseURL[len("pgx://"):]
	}
	return databaseURL
}
