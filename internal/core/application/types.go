package application

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/pkg/errors"
)

type Service interface {
	Start() errors.Error
	Stop()
	InitializeMarketplace(
		ctx context.Context, admin string, seed uint64,
	) (*domain.Marketplace, errors.Error)
	ListService(
		ctx context.Context, creator, marketplace, asset string, args ListServiceArgs,
	) (*domain.Service, *domain.Asset, errors.Error)
	BuyService(
		ctx context.Context, buyer, service, asset string,
	) (*PurchaseReceipt, errors.Error)
	TransferAsset(
		ctx context.Context, authority, asset, newOwner string,
	) (*domain.Asset, errors.Error)
	TransferFunds(ctx context.Context, from, to string, amount uint64) errors.Error
	Airdrop(ctx context.Context, to string, amount uint64) (uint64, errors.Error)
	GetMarketplace(ctx context.Context, address string) (*domain.Marketplace, errors.Error)
	GetService(ctx context.Context, address string) (*domain.Service, errors.Error)
	ListServices(ctx context.Context, marketplace string) ([]domain.Service, errors.Error)
	GetAsset(ctx context.Context, address string) (*domain.Asset, errors.Error)
	GetBalance(ctx context.Context, address string) (uint64, errors.Error)
	GetHistory(ctx context.Context, address string) ([]domain.Event, errors.Error)
	GetInfo(ctx context.Context) *ServiceInfo
	GetEventsChannel(ctx context.Context) <-chan []domain.Event
}

type ListServiceArgs struct {
	Name               string
	URI                string
	Price              uint64
	Soulbound          bool
	RoyaltyBasisPoints uint16
	Hours              string
	Terms              string
}

type PurchaseReceipt struct {
	Id        string
	Service   string
	Asset     string
	Buyer     string
	Seller    string
	Price     uint64
	Fee       uint64
	Timestamp int64
}

type ServiceInfo struct {
	ProgramID  string
	TxFee      uint64
	MinReserve uint64
}

type Config struct {
	ProgramID  string
	TxFee      uint64
	MinReserve uint64
}
