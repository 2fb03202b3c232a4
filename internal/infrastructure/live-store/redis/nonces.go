package redislivestore

import (
	"context"
	"fmt"
	"time"

	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const nonceKeyPrefix = "nonceStore:"

type nonceStore struct {
	rdb          *redis.Client
	numOfRetries int
	retryDelay   time.Duration
}

func NewNonceStore(rdb *redis.Client, numOfRetries int) ports.NonceStore {
	return &nonceStore{
		rdb:          rdb,
		numOfRetries: numOfRetries,
		retryDelay:   10 * time.Millisecond,
	}
}

func (s *nonceStore) Add(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	var err error
	for range s.numOfRetries {
		var added bool
		if added, err = s.rdb.SetNX(ctx, nonceKeyPrefix+nonce, 1, ttl).Result(); err == nil {
			return added, nil
		}
		time.Sleep(s.retryDelay)
	}
	return false, fmt.Errorf("failed to add nonce after max number of retries: %v", err)
}
