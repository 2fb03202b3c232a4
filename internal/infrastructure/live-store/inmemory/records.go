package inmemorylivestore

import (
	"context"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/patrickmn/go-cache"
)

const (
	marketplacePrefix = "marketplace:"
	servicePrefix     = "service:"

	recordTTL       = time.Hour
	cleanupInterval = 10 * time.Minute
)

type recordCache struct {
	cache *cache.Cache
}

// NewRecordCache returns a cache whose entries expire after an hour of
// inactivity, marketplaces and services being immutable.
func NewRecordCache() ports.RecordCache {
	return &recordCache{cache.New(recordTTL, cleanupInterval)}
}

func (c *recordCache) GetMarketplace(
	_ context.Context, address string,
) (*domain.Marketplace, error) {
	v, ok := c.cache.Get(marketplacePrefix + address)
	if !ok {
		return nil, nil
	}
	marketplace := v.(domain.Marketplace)
	c.cache.SetDefault(marketplacePrefix+address, marketplace)
	return &marketplace, nil
}

func (c *recordCache) AddMarketplace(_ context.Context, marketplace domain.Marketplace) error {
	c.cache.SetDefault(marketplacePrefix+marketplace.Address, marketplace)
	return nil
}

func (c *recordCache) GetService(_ context.Context, address string) (*domain.Service, error) {
	v, ok := c.cache.Get(servicePrefix + address)
	if !ok {
		return nil, nil
	}
	service := v.(domain.Service)
	c.cache.SetDefault(servicePrefix+address, service)
	return &service, nil
}

func (c *recordCache) AddService(_ context.Context, service domain.Service) error {
	c.cache.SetDefault(servicePrefix+service.Address, service)
	return nil
}
