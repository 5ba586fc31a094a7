package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is prepended to the model name to form the registry hash key
const KeyPrefix = "model-registry:"

// RedisRegistry resolves models from Redis hashes keyed model-registry:<name>,
// where each field is a version number and each value an artifact path.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry connects to the Redis instance at addr.
// If addr is empty, defaults to localhost:6379
func NewRedisRegistry(ctx context.Context, addr string) (*RedisRegistry, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &RedisRegistry{client: client}, nil
}

// Register records path as the artifact of name at version
func (r *RedisRegistry) Register(ctx context.Context, name, version, path string) error {
	if _, err := parseVersion(version); err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}
	if err := r.client.HSet(ctx, KeyPrefix+name, version, path).Err(); err != nil {
		return fmt.Errorf("failed to register %s:%s: %w", name, version, err)
	}
	return nil
}

// Resolve returns the registered path for name at version, or at the highest version when version is empty
func (r *RedisRegistry) Resolve(ctx context.Context, name, version string) (string, error) {
	key := KeyPrefix + name

	if version == "" {
		versions, err := r.client.HKeys(ctx, key).Result()
		if err != nil {
			return "", fmt.Errorf("failed to list versions of %s: %w", name, err)
		}
		latest, ok := latestVersion(versions)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		version = latest
	}

	path, err := r.client.HGet(ctx, key, version).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%w: %s version %s", ErrModelNotFound, name, version)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s:%s: %w", name, version, err)
	}

	return path, nil
}

// Close closes the Redis connection
func (r *RedisRegistry) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

var _ Resolver = (*RedisRegistry)(nil)
