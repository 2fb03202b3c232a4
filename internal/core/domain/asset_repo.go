package domain

import "context"

type AssetRepository interface {
	Add(ctx context.Context, asset Asset) error
	Get(ctx context.Context, address string) (*Asset, error)
	Update(ctx context.Context, asset Asset) error
	ListByOwner(ctx context.Context, owner string) ([]Asset, error)
	Close()
}
