// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
)

const (
	redisKeyPrefix = "subcallback:subscription:"
	redisIndexKey  = "subcallback:subscriptions"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps one JSON document per record plus a set index of ids.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) Put(ctx context.Context, rec *model.Record) error {
	if rec == nil || rec.SubscriptionID == "" {
		return errors.New("redis store: record without subscription id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis store: marshal %s: %w", rec.SubscriptionID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKey(rec.SubscriptionID), data, 0)
	pipe.SAdd(ctx, redisIndexKey, rec.SubscriptionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store: put %s: %w", rec.SubscriptionID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.Record, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ports.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: get %s: %w", id, err)
	}
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("redis store: decode %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisKey(id))
	pipe.SRem(ctx, redisIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store: delete %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*model.Record, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: list: %w", err)
	}
	out := make([]*model.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ports.ErrRecordNotFound) {
			s.client.SRem(ctx, redisIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriptionID < out[j].SubscriptionID })
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
