package ports

import (
	"context"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
)

type LiveStore interface {
	Records() RecordCache
	Nonces() NonceStore
	Close()
}

// RecordCache holds marketplaces and services, which never change once
// created.
type RecordCache interface {
	// Getters return nil on cache miss.
	GetMarketplace(ctx context.Context, address string) (*domain.Marketplace, error)
	AddMarketplace(ctx context.Context, marketplace domain.Marketplace) error
	GetService(ctx context.Context, address string) (*domain.Service, error)
	AddService(ctx context.Context, service domain.Service) error
}

type NonceStore interface {
	// Add returns false if the nonce was already added and did not expire
	// yet.
	Add(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}
