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
	insertService = `
INSERT INTO service (
    address, marketplace, creator, asset, price, is_soulbound, bump, name, uri, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (address) DO NOTHING`

	selectServiceColumns = `
SELECT address, marketplace, creator, asset, price, is_soulbound, bump, name, uri, created_at
FROM service`

	selectService = selectServiceColumns + ` WHERE address = ?`

	selectServicesByMarketplace = selectServiceColumns +
		` WHERE marketplace = ? ORDER BY created_at ASC, address ASC`
)

type serviceRepository struct {
	db *sql.DB
}

func NewServiceRepository(config ...interface{}) (domain.ServiceRepository, error) {
	db, err := getDb(config...)
	if err != nil {
		return nil, err
	}
	return &serviceRepository{db}, nil
}

func (r *serviceRepository) Add(ctx context.Context, service domain.Service) error {
	res, err := dbutil.QuerierFromContext(ctx, r.db).ExecContext(
		ctx, insertService,
		service.Address, service.Marketplace, service.Creator, service.Asset,
		dbutil.FormatUint64(service.Price), service.IsSoulbound, service.Bump,
		service.Name, service.URI, service.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert service: %w", err)
	}
	ok, err := inserted(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("service %s: %w", service.Address, domain.ErrAlreadyExists)
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, address string) (*domain.Service, error) {
	row := dbutil.QuerierFromContext(ctx, r.db).QueryRowContext(ctx, selectService, address)
	service, err := scanService(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("service %s: %w", address, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return service, nil
}

func (r *serviceRepository) ListByMarketplace(
	ctx context.Context, marketplace string,
) ([]domain.Service, error) {
	rows, err := dbutil.QuerierFromContext(ctx, r.db).QueryContext(
		ctx, selectServicesByMarketplace, marketplace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	// nolint
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, *service)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

func (r *serviceRepository) Close() {
	// nolint:all
	r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanService(row scanner) (*domain.Service, error) {
	var (
		service domain.Service
		price   string
	)
	if err := row.Scan(
		&service.Address, &service.Marketplace, &service.Creator, &service.Asset, &price,
		&service.IsSoulbound, &service.Bump, &service.Name, &service.URI, &service.CreatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if service.Price, err = dbutil.ParseUint64(price); err != nil {
		return nil, err
	}
	return &service, nil
}
