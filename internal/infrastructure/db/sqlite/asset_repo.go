package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/infrastructure/db/dbutil"
)

const (
	insertAsset = `
INSERT INTO asset (
    address, owner, name, uri, policy, delegate, frozen, sealed, transfer_count,
    royalties, attributes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (address) DO NOTHING`

	updateAsset = `
UPDATE asset SET owner = ?, delegate = ?, frozen = ?, sealed = ?, transfer_count = ?,
    updated_at = ?
WHERE address = ?`

	selectAssetColumns = `
SELECT address, owner, name, uri, policy, delegate, frozen, sealed, transfer_count,
    royalties, attributes, created_at, updated_at
FROM asset`

	selectAsset = selectAssetColumns + ` WHERE address = ?`

	selectAssetsByOwner = selectAssetColumns +
		` WHERE owner = ? ORDER BY created_at ASC, address ASC`
)

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(config ...interface{}) (domain.AssetRepository, error) {
	db, err := getDb(config...)
	if err != nil {
		return nil, err
	}
	return &assetRepository{db}, nil
}

func (r *assetRepository) Add(ctx context.Context, asset domain.Asset) error {
	royalties, err := json.Marshal(asset.Royalties)
	if err != nil {
		return fmt.Errorf("failed to serialize royalties: %w", err)
	}
	attributes, err := json.Marshal(asset.Attributes)
	if err != nil {
		return fmt.Errorf("failed to serialize attributes: %w", err)
	}

	res, err := dbutil.QuerierFromContext(ctx, r.db).ExecContext(
		ctx, insertAsset,
		asset.Address, asset.Owner, asset.Name, asset.URI, asset.Policy, asset.Delegate(),
		asset.IsFrozen(), asset.Sealed, asset.TransferCount, string(royalties),
		string(attributes), asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	ok, err := inserted(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("asset %s: %w", asset.Address, domain.ErrAlreadyExists)
	}
	return nil
}

func (r *assetRepository) Get(ctx context.Context, address string) (*domain.Asset, error) {
	row := dbutil.QuerierFromContext(ctx, r.db).QueryRowContext(ctx, selectAsset, address)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %s: %w", address, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

func (r *assetRepository) Update(ctx context.Context, asset domain.Asset) error {
	res, err := dbutil.QuerierFromContext(ctx, r.db).ExecContext(
		ctx, updateAsset,
		asset.Owner, asset.Delegate(), asset.IsFrozen(), asset.Sealed, asset.TransferCount,
		asset.UpdatedAt, asset.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	ok, err := inserted(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("asset %s: %w", asset.Address, domain.ErrNotFound)
	}
	return nil
}

func (r *assetRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Asset, error) {
	rows, err := dbutil.QuerierFromContext(ctx, r.db).QueryContext(
		ctx, selectAssetsByOwner, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	// nolint
	defer rows.Close()

	assets := make([]domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepository) Close() {
	// nolint:all
	r.db.Close()
}

func scanAsset(row scanner) (*domain.Asset, error) {
	var (
		asset                 domain.Asset
		delegate              string
		frozen                bool
		royalties, attributes string
	)
	if err := row.Scan(
		&asset.Address, &asset.Owner, &asset.Name, &asset.URI, &asset.Policy, &delegate,
		&frozen, &asset.Sealed, &asset.TransferCount, &royalties, &attributes,
		&asset.CreatedAt, &asset.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(royalties), &asset.Royalties); err != nil {
		return nil, fmt.Errorf("failed to deserialize royalties: %w", err)
	}
	if err := json.Unmarshal([]byte(attributes), &asset.Attributes); err != nil {
		return nil, fmt.Errorf("failed to deserialize attributes: %w", err)
	}
	dbutil.RestoreAssetDelegate(&asset, delegate, frozen)
	return &asset, nil
}
