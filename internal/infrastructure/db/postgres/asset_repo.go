package pgdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/infrastructure/db/dbutil"
	"github.com/sqlc-dev/pqtype"
)

const (
	insertAsset = `
INSERT INTO asset (
    address, owner, name, uri, policy, delegate, frozen, sealed, transfer_count,
    royalties, attributes, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (address) DO NOTHING`

	updateAsset = `
UPDATE asset SET owner = $1, delegate = $2, frozen = $3, sealed = $4, transfer_count = $5,
    updated_at = $6
WHERE address = $7`

	selectAssetColumns = `
SELECT address, owner, name, uri, policy, delegate, frozen, sealed, transfer_count,
    royalties, attributes, created_at, updated_at
FROM asset`

	selectAsset = selectAssetColumns + ` WHERE address = $1`

	// FOR UPDATE makes concurrent transfers of the same asset queue up.
	selectAssetForUpdate = selectAsset + ` FOR UPDATE`

	selectAssetsByOwner = selectAssetColumns +
		` WHERE owner = $1 ORDER BY created_at ASC, address ASC`
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
	royalties, err := toJSONB(asset.Royalties)
	if err != nil {
		return fmt.Errorf("failed to serialize royalties: %w", err)
	}
	attributes, err := toJSONB(asset.Attributes)
	if err != nil {
		return fmt.Errorf("failed to serialize attributes: %w", err)
	}

	res, err := dbutil.QuerierFromContext(ctx, r.db).ExecContext(
		ctx, insertAsset,
		asset.Address, asset.Owner, asset.Name, asset.URI, int16(asset.Policy),
		asset.Delegate(), asset.IsFrozen(), asset.Sealed, int64(asset.TransferCount),
		royalties, attributes, asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("asset %s: %w", asset.Address, domain.ErrAlreadyExists)
	}
	return nil
}

func (r *assetRepository) Get(ctx context.Context, address string) (*domain.Asset, error) {
	query := selectAsset
	if _, ok := dbutil.QuerierFromContext(ctx, r.db).(*sql.Tx); ok {
		query = selectAssetForUpdate
	}

	row := dbutil.QuerierFromContext(ctx, r.db).QueryRowContext(ctx, query, address)
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
		asset.Owner, asset.Delegate(), asset.IsFrozen(), asset.Sealed,
		int64(asset.TransferCount), asset.UpdatedAt, asset.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	ok, err := affected(res)
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
		policy                int16
		delegate              string
		frozen                bool
		transferCount         int64
		royalties, attributes pqtype.NullRawMessage
	)
	if err := row.Scan(
		&asset.Address, &asset.Owner, &asset.Name, &asset.URI, &policy, &delegate, &frozen,
		&asset.Sealed, &transferCount, &royalties, &attributes, &asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return nil, err
	}

	asset.Policy = domain.TransferPolicy(policy)
	asset.TransferCount = uint32(transferCount)
	if royalties.Valid {
		if err := json.Unmarshal(royalties.RawMessage, &asset.Royalties); err != nil {
			return nil, fmt.Errorf("failed to deserialize royalties: %w", err)
		}
	}
	if attributes.Valid {
		if err := json.Unmarshal(attributes.RawMessage, &asset.Attributes); err != nil {
			return nil, fmt.Errorf("failed to deserialize attributes: %w", err)
		}
	}
	dbutil.RestoreAssetDelegate(&asset, delegate, frozen)
	return &asset, nil
}

func toJSONB(v any) (pqtype.NullRawMessage, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: buf, Valid: true}, nil
}
