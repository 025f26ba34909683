package prefs

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/rouletteai/roulette-client/internal/errors"
)

// DefaultRedisPrefix namespaces preference keys in a shared Redis.
const DefaultRedisPrefix = "roulette-client:pref:"

// RedisStore keeps preferences in Redis so several clients can share them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.New(err).
			Component("preferences").
			Category(errors.CategoryDatabase).
			Context("operation", "ping").
			Context("addr", opts.Addr).
			Build()
	}
	return NewRedisStoreFromClient(client, opts.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, redisError(err, "get", key)
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return redisError(err, "set", key)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return redisError(err, "delete", key)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func redisError(err error, operation, key string) error {
	return errors.New(err).
		Component("preferences").
		Category(errors.CategoryDatabase).
		Context("backend", "redis").
		Context("operation", operation).
		Context("key", key).
		Build()
}
