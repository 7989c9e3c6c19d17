package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var _ port.CachePort = (*RedisAdapter)(nil)

const (
	latestPrefix = "latest:"
	windowPrefix = "window:"
)

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(addr, password string, db int, ttl time.Duration) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisAdapter{
		client: client,
		ttl:    ttl,
	}, nil
}

// Client exposes the underlying connection so other stores can share it.
func (a *RedisAdapter) Client() *redis.Client { return a.client }

func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *RedisAdapter) SetLatestQuote(ctx context.Context, q model.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := a.client.Set(ctx, latestPrefix+q.Symbol, data, a.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set latest quote in redis: %w", err)
	}
	return nil
}

// GetLatestQuote returns nil, nil when nothing is cached for the symbol.
func (a *RedisAdapter) GetLatestQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	data, err := a.client.Get(ctx, latestPrefix+symbol).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest quote from redis: %w", err)
	}

	var q model.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &q, nil
}

// AddQuoteToWindow adds the quote to the symbol's sorted set, scored by fetch
// time in unix seconds.
func (a *RedisAdapter) AddQuoteToWindow(ctx context.Context, q model.Quote) error {
	key := windowPrefix + q.Symbol
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote for window: %w", err)
	}

	z := redis.Z{
		Score:  float64(q.FetchedAt.Unix()),
		Member: data,
	}
	if err := a.client.ZAdd(ctx, key, z).Err(); err != nil {
		return fmt.Errorf("failed to add quote to window: %w", err)
	}

	_ = a.client.Expire(ctx, key, a.ttl*2).Err()
	return nil
}

// GetQuotesInWindow returns the symbol's quotes fetched within the last TTL.
func (a *RedisAdapter) GetQuotesInWindow(ctx context.Context, symbol string) ([]model.Quote, error) {
	now := time.Now()
	results, err := a.client.ZRangeByScore(ctx, windowPrefix+symbol, &redis.ZRangeBy{
		Min: strconv.FormatInt(now.Add(-a.ttl).Unix(), 10),
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get quotes from window %s: %w", symbol, err)
	}

	out := make([]model.Quote, 0, len(results))
	for _, item := range results {
		var q model.Quote
		if err := json.Unmarshal([]byte(item), &q); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quote from window %s: %w", symbol, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// DeleteOldQuotes trims every window down to entries fetched at or after
// before.
func (a *RedisAdapter) DeleteOldQuotes(ctx context.Context, before time.Time) error {
	upper := "(" + strconv.FormatInt(before.Unix(), 10)

	iter := a.client.Scan(ctx, 0, windowPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := a.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", upper).Err(); err != nil {
			return fmt.Errorf("failed to delete old quotes from %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate redis keys: %w", err)
	}
	return nil
}

func (a *RedisAdapter) Close() error {
	return a.client.Close()
}
