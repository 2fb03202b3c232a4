package redislivestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const (
	marketplaceKeyPrefix = "recordCache:marketplace:"
	serviceKeyPrefix     = "recordCache:service:"

	recordTTL = time.Hour
)

type recordCache struct {
	rdb          *redis.Client
	numOfRetries int
	retryDelay   time.Duration
}

func NewRecordCache(rdb *redis.Client, numOfRetries int) ports.RecordCache {
	return &recordCache{
		rdb:          rdb,
		numOfRetries: numOfRetries,
		retryDelay:   10 * time.Millisecond,
	}
}

func (c *recordCache) GetMarketplace(
	ctx context.Context, address string,
) (*domain.Marketplace, error) {
	var marketplace domain.Marketplace
	found, err := c.get(ctx, marketplaceKeyPrefix+address, &marketplace)
	if err != nil || !found {
		return nil, err
	}
	return &marketplace, nil
}

func (c *recordCache) AddMarketplace(ctx context.Context, marketplace domain.Marketplace) error {
	return c.set(ctx, marketplaceKeyPrefix+marketplace.Address, marketplace)
}

func (c *recordCache) GetService(ctx context.Context, address string) (*domain.Service, error) {
	var service domain.Service
	found, err := c.get(ctx, serviceKeyPrefix+address, &service)
	if err != nil || !found {
		return nil, err
	}
	return &service, nil
}

func (c *recordCache) AddService(ctx context.Context, service domain.Service) error {
	return c.set(ctx, serviceKeyPrefix+service.Address, service)
}

// get refreshes the expiration of the key while reading it.
func (c *recordCache) get(ctx context.Context, key string, result any) (bool, error) {
	val, err := c.rdb.GetEx(ctx, key, recordTTL).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %v", key, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("malformed record in storage %s: %v", key, err)
	}
	return true, nil
}

func (c *recordCache) set(ctx context.Context, key string, record any) error {
	val, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", key, err)
	}

	for range c.numOfRetries {
		if err = c.rdb.Set(ctx, key, val, recordTTL).Err(); err == nil {
			return nil
		}
		time.Sleep(c.retryDelay)
	}
	return fmt.Errorf("failed to set %s after max number of retries: %v", key, err)
}
