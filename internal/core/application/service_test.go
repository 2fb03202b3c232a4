package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/arkade-os/marketd/internal/core/application"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/infrastructure/db"
	inmemorylivestore "github.com/arkade-os/marketd/internal/infrastructure/live-store/inmemory"
	"github.com/arkade-os/marketd/pkg/errors"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"github.com/stretchr/testify/require"
)

const (
	admin           = "SeedPubey1111111111111111111111111111111111"
	marketplaceSeed = uint64(42)
	marketplaceAddr = "8MoT8coFvE6CRcK3TtwpT6QMWR9q2qArppqgQpoFPd6c"
	marketplaceBump = uint8(251)

	price = uint64(1_000_000)
)

var listArgs = application.ListServiceArgs{
	Name:               "Consulting",
	URI:                "https://example.com/consulting.json",
	Price:              price,
	RoyaltyBasisPoints: 500,
	Hours:              "10",
	Terms:              "Paid upfront, delivered within 30 days",
}

func TestInitializeMarketplace(t *testing.T) {
	svc := newTestService(t, application.Config{})
	ctx := context.Background()

	marketplace, err := svc.InitializeMarketplace(ctx, admin, marketplaceSeed)
	require.Nil(t, err)
	require.NotNil(t, marketplace)
	require.Equal(t, marketplaceAddr, marketplace.Address)
	require.Equal(t, marketplaceBump, marketplace.Bump)
	require.Equal(t, admin, marketplace.Admin)
	require.Equal(t, marketplaceSeed, marketplace.Seed)

	got, err := svc.GetMarketplace(ctx, marketplaceAddr)
	require.Nil(t, err)
	require.Equal(t, *marketplace, *got)

	t.Run("invalid", func(t *testing.T) {
		t.Run("address collision", func(t *testing.T) {
			_, err := svc.InitializeMarketplace(ctx, admin, marketplaceSeed)
			requireErrorCode(t, errors.ADDRESS_COLLISION.Code, err)
		})

		t.Run("invalid admin", func(t *testing.T) {
			_, err := svc.InitializeMarketplace(ctx, "not-an-address", marketplaceSeed)
			requireErrorCode(t, errors.INVALID_ARGUMENT.Code, err)
		})

		t.Run("unknown marketplace", func(t *testing.T) {
			_, err := svc.GetMarketplace(ctx, randomAddress(t))
			requireErrorCode(t, errors.MARKETPLACE_NOT_FOUND.Code, err)
		})
	})

	t.Run("different seeds yield different addresses", func(t *testing.T) {
		other, err := svc.InitializeMarketplace(ctx, admin, marketplaceSeed+1)
		require.Nil(t, err)
		require.NotEqual(t, marketplace.Address, other.Address)
	})
}

func TestListService(t *testing.T) {
	svc := newTestService(t, application.Config{})
	ctx := context.Background()
	marketplace := initMarketplace(t, svc)
	creator := randomAddress(t)

	t.Run("valid", func(t *testing.T) {
		fixtures := []struct {
			name      string
			soulbound bool
		}{
			{"transferable", false},
			{"soulbound", true},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				asset := randomAddress(t)
				args := listArgs
				args.Soulbound = f.soulbound

				service, boundAsset, err := svc.ListService(
					ctx, creator, marketplace.Address, asset, args,
				)
				require.Nil(t, err)

				expected, bump, deriveErr := marketlib.DeriveServiceAddress(
					marketlib.MustParseAddress(marketlib.DefaultProgramID),
					marketlib.MustParseAddress(marketplace.Address),
					marketlib.MustParseAddress(creator),
					marketlib.MustParseAddress(asset),
				)
				require.NoError(t, deriveErr)
				require.Equal(t, expected.String(), service.Address)
				require.Equal(t, bump, service.Bump)
				require.Equal(t, creator, service.Creator)
				require.Equal(t, asset, service.Asset)
				require.Equal(t, price, service.Price)
				require.Equal(t, f.soulbound, service.IsSoulbound)

				require.Equal(t, creator, boundAsset.Owner)
				require.Equal(t, service.Address, boundAsset.Delegate())
				require.Equal(t, f.soulbound, boundAsset.IsFrozen())
				require.Equal(t, uint16(500), boundAsset.Royalties.BasisPoints)
				require.Equal(t, []domain.Creator{{Address: creator, Percentage: 100}},
					boundAsset.Royalties.Creators)
				hours, ok := boundAsset.Attribute("hours")
				require.True(t, ok)
				require.Equal(t, "10", hours)

				got, err := svc.GetService(ctx, service.Address)
				require.Nil(t, err)
				require.Equal(t, *service, *got)

				gotAsset, err := svc.GetAsset(ctx, asset)
				require.Nil(t, err)
				require.Equal(t, *boundAsset, *gotAsset)
			})
		}

		services, err := svc.ListServices(ctx, marketplace.Address)
		require.Nil(t, err)
		require.Len(t, services, 2)
		require.NotEqual(t, services[0].Address, services[1].Address)
	})

	t.Run("invalid", func(t *testing.T) {
		asset := randomAddress(t)
		_, _, err := svc.ListService(ctx, creator, marketplace.Address, asset, listArgs)
		require.Nil(t, err)

		fixtures := []struct {
			name        string
			marketplace string
			asset       string
			args        func() application.ListServiceArgs
			code        uint16
		}{
			{
				name:        "same asset listed twice",
				marketplace: marketplace.Address,
				asset:       asset,
				args:        func() application.ListServiceArgs { return listArgs },
				code:        errors.ADDRESS_COLLISION.Code,
			},
			{
				name:        "unknown marketplace",
				marketplace: randomAddress(t),
				asset:       randomAddress(t),
				args:        func() application.ListServiceArgs { return listArgs },
				code:        errors.MARKETPLACE_NOT_FOUND.Code,
			},
			{
				name:        "royalties above 100%",
				marketplace: marketplace.Address,
				asset:       randomAddress(t),
				args: func() application.ListServiceArgs {
					args := listArgs
					args.RoyaltyBasisPoints = 10001
					return args
				},
				code: errors.INVALID_ARGUMENT.Code,
			},
			{
				name:        "missing name",
				marketplace: marketplace.Address,
				asset:       randomAddress(t),
				args: func() application.ListServiceArgs {
					args := listArgs
					args.Name = ""
					return args
				},
				code: errors.INVALID_ARGUMENT.Code,
			},
			{
				name:        "missing uri",
				marketplace: marketplace.Address,
				asset:       randomAddress(t),
				args: func() application.ListServiceArgs {
					args := listArgs
					args.URI = " "
					return args
				},
				code: errors.INVALID_ARGUMENT.Code,
			},
			{
				name:        "invalid asset",
				marketplace: marketplace.Address,
				asset:       "asset",
				args:        func() application.ListServiceArgs { return listArgs },
				code:        errors.INVALID_ARGUMENT.Code,
			},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				_, _, err := svc.ListService(ctx, creator, f.marketplace, f.asset, f.args())
				requireErrorCode(t, f.code, err)
			})
		}

		t.Run("asset listed by another creator", func(t *testing.T) {
			otherCreator := randomAddress(t)
			_, _, err := svc.ListService(ctx, otherCreator, marketplace.Address, asset, listArgs)
			requireErrorCode(t, errors.ADDRESS_COLLISION.Code, err)

			// The service record must be rolled back with the failed asset.
			address, _, deriveErr := marketlib.DeriveServiceAddress(
				marketlib.MustParseAddress(marketlib.DefaultProgramID),
				marketlib.MustParseAddress(marketplace.Address),
				marketlib.MustParseAddress(otherCreator),
				marketlib.MustParseAddress(asset),
			)
			require.NoError(t, deriveErr)
			_, err = svc.GetService(ctx, address.String())
			requireErrorCode(t, errors.SERVICE_NOT_FOUND.Code, err)
		})

		services, err := svc.ListServices(ctx, marketplace.Address)
		require.Nil(t, err)
		require.Len(t, services, 3)
	})
}

func TestBuyService(t *testing.T) {
	ctx := context.Background()

	t.Run("soulbound", func(t *testing.T) {
		svc := newTestService(t, application.Config{})
		marketplace := initMarketplace(t, svc)
		creator, buyer, asset := randomAddress(t), randomAddress(t), randomAddress(t)

		args := listArgs
		args.Soulbound = true
		service, _, err := svc.ListService(ctx, creator, marketplace.Address, asset, args)
		require.Nil(t, err)

		fund(t, svc, buyer, 2*price)

		receipt, err := svc.BuyService(ctx, buyer, service.Address, asset)
		require.Nil(t, err)
		require.Equal(t, service.Address, receipt.Service)
		require.Equal(t, buyer, receipt.Buyer)
		require.Equal(t, creator, receipt.Seller)
		require.Equal(t, price, receipt.Price)

		requireBalance(t, svc, buyer, price)
		requireBalance(t, svc, creator, price)

		owned, err := svc.GetAsset(ctx, asset)
		require.Nil(t, err)
		require.Equal(t, buyer, owned.Owner)
		require.True(t, owned.Sealed)

		got, err := svc.GetService(ctx, service.Address)
		require.Nil(t, err)
		require.Equal(t, *service, *got)

		// The asset can't move anymore, whoever tries.
		for _, authority := range []string{buyer, service.Address, creator} {
			_, err := svc.TransferAsset(ctx, authority, asset, randomAddress(t))
			requireErrorCode(t, errors.ASSET_FROZEN.Code, err)
		}
		secondBuyer := randomFundedAddress(t, svc)
		_, err = svc.BuyService(ctx, secondBuyer, service.Address, asset)
		requireErrorCode(t, errors.ASSET_FROZEN.Code, err)
		requireBalance(t, svc, secondBuyer, 2*price)
		requireBalance(t, svc, creator, price)
		requireBalance(t, svc, buyer, price)

		history, err := svc.GetHistory(ctx, buyer)
		require.Nil(t, err)
		require.Len(t, history, 2)
		require.Equal(t, domain.EventTypeAccountFunded, history[0].Type)
		require.Equal(t, domain.EventTypeServicePurchased, history[1].Type)
		require.Equal(t, receipt.Id, history[1].Id)
	})

	t.Run("free service", func(t *testing.T) {
		svc := newTestService(t, application.Config{})
		marketplace := initMarketplace(t, svc)
		creator, buyer, asset := randomAddress(t), randomAddress(t), randomAddress(t)

		args := listArgs
		args.Price = 0
		service, _, err := svc.ListService(ctx, creator, marketplace.Address, asset, args)
		require.Nil(t, err)

		// Buyers need a positive balance even when nothing is charged.
		_, err = svc.BuyService(ctx, randomAddress(t), service.Address, asset)
		requireErrorCode(t, errors.INSUFFICIENT_FUNDS.Code, err)

		fund(t, svc, buyer, 1)
		receipt, err := svc.BuyService(ctx, buyer, service.Address, asset)
		require.Nil(t, err)
		require.Zero(t, receipt.Price)

		requireBalance(t, svc, buyer, 1)
		requireBalance(t, svc, creator, 0)

		owned, err := svc.GetAsset(ctx, asset)
		require.Nil(t, err)
		require.Equal(t, buyer, owned.Owner)
	})

	t.Run("transferable", func(t *testing.T) {
		svc := newTestService(t, application.Config{})
		marketplace := initMarketplace(t, svc)
		creator, asset := randomAddress(t), randomAddress(t)

		service, _, err := svc.ListService(ctx, creator, marketplace.Address, asset, listArgs)
		require.Nil(t, err)

		firstBuyer := randomFundedAddress(t, svc)
		_, err = svc.BuyService(ctx, firstBuyer, service.Address, asset)
		require.Nil(t, err)

		owned, err := svc.GetAsset(ctx, asset)
		require.Nil(t, err)
		require.Equal(t, firstBuyer, owned.Owner)
		require.Equal(t, service.Address, owned.Delegate())

		// The listing stays the delegate, so it can sell the asset again.
		secondBuyer := randomFundedAddress(t, svc)
		_, err = svc.BuyService(ctx, secondBuyer, service.Address, asset)
		require.Nil(t, err)

		owned, err = svc.GetAsset(ctx, asset)
		require.Nil(t, err)
		require.Equal(t, secondBuyer, owned.Owner)
		requireBalance(t, svc, creator, 2*price)

		// The owner can move it freely.
		receiver := randomAddress(t)
		owned, err = svc.TransferAsset(ctx, secondBuyer, asset, receiver)
		require.Nil(t, err)
		require.Equal(t, receiver, owned.Owner)

		_, err = svc.TransferAsset(ctx, secondBuyer, asset, randomAddress(t))
		requireErrorCode(t, errors.DELEGATION_DENIED.Code, err)
	})

	t.Run("invalid", func(t *testing.T) {
		svc := newTestService(t, application.Config{})
		marketplace := initMarketplace(t, svc)
		creator, asset := randomAddress(t), randomAddress(t)

		service, _, err := svc.ListService(ctx, creator, marketplace.Address, asset, listArgs)
		require.Nil(t, err)

		fixtures := []struct {
			name    string
			balance uint64
			service string
			asset   string
			code    uint16
		}{
			{
				name:    "insufficient funds",
				balance: price / 2,
				service: service.Address,
				asset:   asset,
				code:    errors.INSUFFICIENT_FUNDS.Code,
			},
			{
				name:    "balance equal to price",
				balance: price,
				service: service.Address,
				asset:   asset,
				code:    errors.INSUFFICIENT_FUNDS.Code,
			},
			{
				name:    "empty balance",
				service: service.Address,
				asset:   asset,
				code:    errors.INSUFFICIENT_FUNDS.Code,
			},
			{
				name:    "wrong asset",
				balance: 2 * price,
				service: service.Address,
				asset:   randomAddress(t),
				code:    errors.ADDRESS_PROOF_MISMATCH.Code,
			},
			{
				name:    "unknown service",
				balance: 2 * price,
				service: randomAddress(t),
				asset:   asset,
				code:    errors.SERVICE_NOT_FOUND.Code,
			},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				buyer := randomAddress(t)
				if f.balance > 0 {
					fund(t, svc, buyer, f.balance)
				}

				_, err := svc.BuyService(ctx, buyer, f.service, f.asset)
				requireErrorCode(t, f.code, err)

				requireBalance(t, svc, buyer, f.balance)
				requireBalance(t, svc, creator, 0)
				owned, err := svc.GetAsset(ctx, asset)
				require.Nil(t, err)
				require.Equal(t, creator, owned.Owner)
			})
		}
	})

	t.Run("insufficient funds metadata", func(t *testing.T) {
		svc := newTestService(t, application.Config{})
		marketplace := initMarketplace(t, svc)
		asset := randomAddress(t)

		service, _, err := svc.ListService(
			ctx, randomAddress(t), marketplace.Address, asset, listArgs,
		)
		require.Nil(t, err)

		buyer := randomAddress(t)
		fund(t, svc, buyer, 500_000)

		_, err = svc.BuyService(ctx, buyer, service.Address, asset)
		requireErrorCode(t, errors.INSUFFICIENT_FUNDS.Code, err)
		require.Equal(t, "You don't have enough funds to buy the service", err.Message())
		require.Equal(t, map[string]string{
			"buyer":   buyer,
			"balance": "500000",
			"price":   "1000000",
		}, err.Metadata())
	})

	t.Run("min reserve", func(t *testing.T) {
		svc := newTestService(t, application.Config{MinReserve: 10_000})
		marketplace := initMarketplace(t, svc)
		creator, asset := randomAddress(t), randomAddress(t)

		service, _, err := svc.ListService(ctx, creator, marketplace.Address, asset, listArgs)
		require.Nil(t, err)

		// Solvent, but the buyer would be left with less than the reserve.
		buyer := randomAddress(t)
		fund(t, svc, buyer, price+1)

		_, err = svc.BuyService(ctx, buyer, service.Address, asset)
		requireErrorCode(t, errors.VALUE_TRANSFER_FAILURE.Code, err)
		requireBalance(t, svc, buyer, price+1)

		fund(t, svc, buyer, 10_000)
		_, err = svc.BuyService(ctx, buyer, service.Address, asset)
		require.Nil(t, err)
		requireBalance(t, svc, buyer, 10_001)
		requireBalance(t, svc, creator, price)
	})

	t.Run("tx fee", func(t *testing.T) {
		fee := uint64(5_000)
		svc := newTestService(t, application.Config{TxFee: fee})

		_, err := svc.InitializeMarketplace(ctx, admin, marketplaceSeed)
		requireErrorCode(t, errors.VALUE_TRANSFER_FAILURE.Code, err)

		_, err = svc.GetMarketplace(ctx, marketplaceAddr)
		requireErrorCode(t, errors.MARKETPLACE_NOT_FOUND.Code, err)

		fund(t, svc, admin, fee)
		marketplace, err := svc.InitializeMarketplace(ctx, admin, marketplaceSeed)
		require.Nil(t, err)
		requireBalance(t, svc, admin, 0)

		creator, asset := randomAddress(t), randomAddress(t)
		fund(t, svc, creator, fee)
		service, _, err := svc.ListService(ctx, creator, marketplace.Address, asset, listArgs)
		require.Nil(t, err)
		requireBalance(t, svc, creator, 0)

		buyer := randomAddress(t)
		fund(t, svc, buyer, 2*price)
		receipt, err := svc.BuyService(ctx, buyer, service.Address, asset)
		require.Nil(t, err)
		require.Equal(t, fee, receipt.Fee)
		requireBalance(t, svc, buyer, price-fee)
		requireBalance(t, svc, creator, price)
	})
}

func TestTransferFunds(t *testing.T) {
	svc := newTestService(t, application.Config{})
	ctx := context.Background()
	from, to := randomAddress(t), randomAddress(t)
	fund(t, svc, from, 100)

	err := svc.TransferFunds(ctx, from, to, 40)
	require.Nil(t, err)
	requireBalance(t, svc, from, 60)
	requireBalance(t, svc, to, 40)

	err = svc.TransferFunds(ctx, from, to, 61)
	requireErrorCode(t, errors.VALUE_TRANSFER_FAILURE.Code, err)

	err = svc.TransferFunds(ctx, from, to, 0)
	requireErrorCode(t, errors.INVALID_ARGUMENT.Code, err)

	err = svc.TransferFunds(ctx, from, from, 10)
	requireErrorCode(t, errors.INVALID_ARGUMENT.Code, err)

	requireBalance(t, svc, from, 60)
	requireBalance(t, svc, to, 40)
}

func TestEventsChannel(t *testing.T) {
	svc := newTestService(t, application.Config{})
	ctx := context.Background()
	ch := svc.GetEventsChannel(ctx)

	initMarketplace(t, svc)

	select {
	case events := <-ch:
		require.Len(t, events, 1)
		require.Equal(t, domain.EventTypeMarketplaceInitialized, events[0].Type)
		require.Equal(t, marketplaceAddr, events[0].Marketplace)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
	}
}

func newTestService(t *testing.T, config application.Config) application.Service {
	t.Helper()

	repoManager, err := db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		DataStoreType:    "badger",
		EventStoreConfig: []interface{}{"", nil},
		DataStoreConfig:  []interface{}{"", nil},
	})
	require.NoError(t, err)

	svc, err := application.NewService(
		repoManager, inmemorylivestore.NewLiveStore(), nil, config,
	)
	require.NoError(t, err)
	require.Nil(t, svc.Start())
	t.Cleanup(svc.Stop)
	return svc
}

func initMarketplace(t *testing.T, svc application.Service) *domain.Marketplace {
	t.Helper()
	marketplace, err := svc.InitializeMarketplace(context.Background(), admin, marketplaceSeed)
	require.Nil(t, err)
	return marketplace
}

func fund(t *testing.T, svc application.Service, address string, amount uint64) {
	t.Helper()
	_, err := svc.Airdrop(context.Background(), address, amount)
	require.Nil(t, err)
}

func randomFundedAddress(t *testing.T, svc application.Service) string {
	t.Helper()
	address := randomAddress(t)
	fund(t, svc, address, 2*price)
	return address
}

func requireBalance(t *testing.T, svc application.Service, address string, expected uint64) {
	t.Helper()
	balance, err := svc.GetBalance(context.Background(), address)
	require.Nil(t, err)
	require.Equal(t, expected, balance)
}

func requireErrorCode(t *testing.T, expected uint16, err errors.Error) {
	t.Helper()
	require.NotNil(t, err)
	require.Equal(t, expected, err.Code(), err.Error())
}

func randomAddress(t *testing.T) string {
	t.Helper()
	key, err := marketlib.GenerateKeyPair()
	require.NoError(t, err)
	return key.Address().String()
}
