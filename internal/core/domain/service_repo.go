package domain

import "context"

type ServiceRepository interface {
	Add(ctx context.Context, service Service) error
	Get(ctx context.Context, address string) (*Service, error)
	ListByMarketplace(ctx context.Context, marketplace string) ([]Service, error)
	Close()
}
