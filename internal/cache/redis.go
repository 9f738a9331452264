package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds browse-only data (the flight list), idempotency records and rate-limit
// counters. Seat counts are never read from here when allocating.
type RedisCache struct {
	client         *redis.Client
	flightsTTL     time.Duration
	idempotencyTTL time.Duration
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client, flightsTTL, idempotencyTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		flightsTTL:     flightsTTL,
		idempotencyTTL: idempotencyTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetFlights returns nil, nil on a miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

// LookupIdempotency returns the booking reference stored under key, if any.
func (c *RedisCache) LookupIdempotency(ctx context.Context, key string) (string, bool, error) {
	ref, err := c.client.Get(ctx, idempotencyKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return ref, true, nil
}

// RememberIdempotency stores reference under key unless a reference is already there.
func (c *RedisCache) RememberIdempotency(ctx context.Context, key, reference string) error {
	return c.client.SetNX(ctx, idempotencyKey(key), reference, c.idempotencyTTL).Err()
}

// Allow counts one hit for key in the current window and reports whether it is within limit.
func (c *RedisCache) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rateKey(key, window, time.Now())

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

func flightsKey() string {
	return "cache:flights"
}

func idempotencyKey(key string) string {
	return "idempotency:booking:" + key
}

func rateKey(key string, window time.Duration, now time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, now.UnixNano()/int64(window))
}
