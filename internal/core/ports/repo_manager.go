package ports

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
)

type RepoManager interface {
	Events() domain.EventRepository
	Marketplaces() domain.MarketplaceRepository
	Services() domain.ServiceRepository
	Assets() domain.AssetRepository
	Accounts() domain.AccountRepository
	// RunInTx runs fn as a single unit of work. The repositories called with
	// the ctx given to fn join the transaction. Nothing fn writes is
	// persisted if it returns an error.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	Close()
}
