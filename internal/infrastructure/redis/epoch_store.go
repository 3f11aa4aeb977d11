// Package redis stores per-identity session epochs. Bumping an epoch
// invalidates every session token issued before the bump.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "notes:session_epoch:"

type EpochStore struct {
	client *goredis.Client
}

// NewEpochStore connects to url (redis://...) and verifies the connection.
func NewEpochStore(ctx context.Context, url string) (*EpochStore, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &EpochStore{client: client}, nil
}

// NewEpochStoreFromClient wraps an existing client.
func NewEpochStoreFromClient(client *goredis.Client) *EpochStore {
	return &EpochStore{client: client}
}

// Current returns 0 for an identity that has never been bumped.
func (s *EpochStore) Current(ctx context.Context, identityID string) (int64, error) {
	v, err := s.client.Get(ctx, keyPrefix+identityID).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get epoch: %w", err)
	}
	return v, nil
}

func (s *EpochStore) Bump(ctx context.Context, identityID string) (int64, error) {
	v, err := s.client.Incr(ctx, keyPrefix+identityID).Result()
	if err != nil {
		return 0, fmt.Errorf("bump epoch: %w", err)
	}
	return v, nil
}

func (s *EpochStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *EpochStore) Close() error {
	return s.client.Close()
}
