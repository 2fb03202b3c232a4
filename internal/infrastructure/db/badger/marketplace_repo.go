package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type marketplaceRepository struct {
	store *Store
}

func NewMarketplaceRepository(store *Store) domain.MarketplaceRepository {
	return &marketplaceRepository{store}
}

func (r *marketplaceRepository) Add(ctx context.Context, marketplace domain.Marketplace) error {
	if err := r.store.insert(ctx, marketplace.Address, marketplace); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("marketplace %s: %w", marketplace.Address, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *marketplaceRepository) Get(
	ctx context.Context, address string,
) (*domain.Marketplace, error) {
	var marketplace domain.Marketplace
	if err := r.store.get(ctx, address, &marketplace); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("marketplace %s: %w", address, domain.ErrNotFound)
		}
		return nil, err
	}
	return &marketplace, nil
}

func (r *marketplaceRepository) Close() {
	r.store.Close()
}
