package credentialstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOperationTimeout = 3 * time.Second

// RedisStore keeps the credential in Redis with a TTL equal to the write max-age.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the Redis instance described by redisURL.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	options, parseErr := redis.ParseURL(redisURL)
	if parseErr != nil {
		return nil, fmt.Errorf("credential_store.redis.parse_url: %w", parseErr)
	}
	client := redis.NewClient(options)
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		_ = client.Close()
		return nil, fmt.Errorf("credential_store.redis.ping: %w", pingErr)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: "hoteldesk:" + TokenName}
}

// Read returns the stored credential, or the request cookie when a request is supplied.
func (store *RedisStore) Read(request *http.Request) string {
	if request != nil {
		return ReadRequestCookie(request)
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOperationTimeout)
	defer cancel()
	value, err := store.client.Get(ctx, store.key).Result()
	if err != nil {
		return ""
	}
	return value
}

// Write stores the credential with the configured max-age as its TTL.
func (store *RedisStore) Write(token string, options Options) error {
	options = options.normalized()
	ctx, cancel := context.WithTimeout(context.Background(), redisOperationTimeout)
	defer cancel()
	if err := store.client.Set(ctx, store.key, token, options.MaxAge).Err(); err != nil {
		return fmt.Errorf("credential_store.redis.write: %w", err)
	}
	return nil
}

// Clear deletes the credential key.
func (store *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOperationTimeout)
	defer cancel()
	if err := store.client.Del(ctx, store.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("credential_store.redis.clear: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (store *RedisStore) Close() error {
	return store.client.Close()
}
