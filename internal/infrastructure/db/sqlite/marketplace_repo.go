package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/infrastructure/db/dbutil"
)

const (
	insertMarketplace = `
INSERT INTO marketplace (address, admin, seed, bump, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (address) DO NOTHING`

	selectMarketplace = `
SELECT address, admin, seed, bump, created_at FROM marketplace WHERE address = ?`
)

type marketplaceRepository struct {
	db *sql.DB
}

func NewMarketplaceRepository(config ...interface{}) (domain.MarketplaceRepository, error) {
	db, err := getDb(config...)
	if err != nil {
		return nil, err
	}
	return &marketplaceRepository{db}, nil
}

func (r *marketplaceRepository) Add(ctx context.Context, marketplace domain.Marketplace) error {
	res, err := dbutil.QuerierFromContext(ctx, r.db).ExecContext(
		ctx, insertMarketplace,
		marketplace.Address, marketplace.Admin, dbutil.FormatUint64(marketplace.Seed),
		marketplace.Bump, marketplace.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert marketplace: %w", err)
	}
	ok, err := inserted(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("marketplace %s: %w", marketplace.Address, domain.ErrAlreadyExists)
	}
	return nil
}

func (r *marketplaceRepository) Get(
	ctx context.Context, address string,
) (*domain.Marketplace, error) {
	var (
		marketplace domain.Marketplace
		seed        string
	)
	if err := dbutil.QuerierFromContext(ctx, r.db).QueryRowContext(
		ctx, selectMarketplace, address,
	).Scan(
		&marketplace.Address, &marketplace.Admin, &seed, &marketplace.Bump,
		&marketplace.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("marketplace %s: %w", address, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get marketplace: %w", err)
	}

	var err error
	if marketplace.Seed, err = dbutil.ParseUint64(seed); err != nil {
		return nil, err
	}
	return &marketplace, nil
}

func (r *marketplaceRepository) Close() {
	// nolint:all
	r.db.Close()
}
