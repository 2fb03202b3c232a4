package ports

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
)

type ServiceAnnouncement struct {
	Service     domain.Service
	Name        string
	URI         string
	Hours       string
	Terms       string
	RoyaltyBps  uint16
	Marketplace domain.Marketplace
}

type Announcer interface {
	AnnounceService(ctx context.Context, announcement ServiceAnnouncement) error
	Close()
}
