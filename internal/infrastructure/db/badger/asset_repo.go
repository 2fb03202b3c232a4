package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type assetRepository struct {
	store *Store
}

func NewAssetRepository(store *Store) domain.AssetRepository {
	return &assetRepository{store}
}

func (r *assetRepository) Add(ctx context.Context, asset domain.Asset) error {
	if err := r.store.insert(ctx, asset.Address, asset); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("asset %s: %w", asset.Address, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *assetRepository) Get(ctx context.Context, address string) (*domain.Asset, error) {
	var asset domain.Asset
	if err := r.store.get(ctx, address, &asset); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("asset %s: %w", address, domain.ErrNotFound)
		}
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) Update(ctx context.Context, asset domain.Asset) error {
	if err := r.store.update(ctx, asset.Address, asset); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("asset %s: %w", asset.Address, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (r *assetRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Asset, error) {
	query := badgerhold.Where("Owner").Eq(owner).SortBy("CreatedAt", "Address")
	assets := make([]domain.Asset, 0)
	if err := r.store.find(ctx, &assets, query); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepository) Close() {
	r.store.Close()
}
