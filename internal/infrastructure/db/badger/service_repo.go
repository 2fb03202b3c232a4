package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type serviceRepository struct {
	store *Store
}

func NewServiceRepository(store *Store) domain.ServiceRepository {
	return &serviceRepository{store}
}

func (r *serviceRepository) Add(ctx context.Context, service domain.Service) error {
	if err := r.store.insert(ctx, service.Address, service); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("service %s: %w", service.Address, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, address string) (*domain.Service, error) {
	var service domain.Service
	if err := r.store.get(ctx, address, &service); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("service %s: %w", address, domain.ErrNotFound)
		}
		return nil, err
	}
	return &service, nil
}

func (r *serviceRepository) ListByMarketplace(
	ctx context.Context, marketplace string,
) ([]domain.Service, error) {
	query := badgerhold.Where("Marketplace").Eq(marketplace).SortBy("CreatedAt", "Address")
	services := make([]domain.Service, 0)
	if err := r.store.find(ctx, &services, query); err != nil {
		return nil, err
	}
	return services, nil
}

func (r *serviceRepository) Close() {
	r.store.Close()
}
