package application

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/pkg/errors"
)

// registry keeps track of asset ownership and enforces the transfer rules
// attached to every asset. Every method must be called within a repository
// transaction.
type registry struct {
	assets domain.AssetRepository
}

func (r registry) register(ctx context.Context, asset domain.Asset) error {
	if err := r.assets.Add(ctx, asset); err != nil {
		if stderrors.Is(err, domain.ErrAlreadyExists) {
			return errors.ADDRESS_COLLISION.New("asset %s is already registered", asset.Address).
				WithMetadata(errors.AddressMetadata{Address: asset.Address})
		}
		return err
	}
	return nil
}

// transfer moves the asset to newOwner, authorized by the given authority.
func (r registry) transfer(
	ctx context.Context, address, newOwner, authority string,
) (*domain.Asset, error) {
	asset, err := r.assets.Get(ctx, address)
	if err != nil {
		if stderrors.Is(err, domain.ErrNotFound) {
			return nil, errors.ASSET_NOT_FOUND.New("asset %s not found", address).
				WithMetadata(errors.AddressMetadata{Address: address})
		}
		return nil, err
	}

	if err := asset.Transfer(newOwner, authority, time.Now().Unix()); err != nil {
		switch {
		case stderrors.Is(err, domain.ErrAssetFrozen):
			return nil, errors.ASSET_FROZEN.Wrap(err).
				WithMetadata(errors.AddressMetadata{Address: address})
		case stderrors.Is(err, domain.ErrDelegationDenied):
			return nil, errors.DELEGATION_DENIED.Wrap(err).
				WithMetadata(errors.DelegationMetadata{
					Asset:     address,
					Authority: authority,
					Delegate:  asset.Delegate(),
				})
		default:
			return nil, errors.INVALID_ARGUMENT.Wrap(err).
				WithMetadata(map[string]any{"asset": address, "new_owner": newOwner})
		}
	}

	if err := r.assets.Update(ctx, *asset); err != nil {
		return nil, err
	}
	return asset, nil
}
