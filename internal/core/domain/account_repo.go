package domain

import "context"

type AccountRepository interface {
	// Get returns an empty account if none is stored for the address.
	Get(ctx context.Context, address string) (*Account, error)
	Upsert(ctx context.Context, account Account) error
	Close()
}
