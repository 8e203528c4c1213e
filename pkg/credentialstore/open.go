package credentialstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Open resolves storeURL into a Store. An empty URL yields a MemoryStore;
// sqlite and postgres URLs yield a DatabaseStore; redis URLs yield a RedisStore.
func Open(ctx context.Context, storeURL string) (Store, error) {
	if strings.TrimSpace(storeURL) == "" {
		return NewMemoryStore(), nil
	}
	parsed, parseErr := url.Parse(storeURL)
	if parseErr != nil {
		return nil, fmt.Errorf("credential_store.parse_url: %w", parseErr)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3", "postgres", "postgresql":
		store, err := NewDatabaseStore(ctx, storeURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis", "rediss":
		store, err := NewRedisStore(ctx, storeURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "":
		return nil, fmt.Errorf("credential_store.open: %w", errNoScheme)
	default:
		return nil, fmt.Errorf("credential_store.open.%s: %w", strings.ToLower(parsed.Scheme), ErrUnsupportedScheme)
	}
}
