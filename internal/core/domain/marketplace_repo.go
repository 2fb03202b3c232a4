package domain

import "context"

type MarketplaceRepository interface {
	// Add fails with ErrAlreadyExists if a marketplace is already stored at
	// the same address.
	Add(ctx context.Context, marketplace Marketplace) error
	Get(ctx context.Context, address string) (*Marketplace, error)
	Close()
}
