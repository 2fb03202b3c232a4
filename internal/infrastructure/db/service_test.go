package db_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/internal/infrastructure/db"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"github.com/stretchr/testify/require"
)

const (
	pgDsnEnv      = "MARKETD_TEST_PG_DSN"
	pgEventDsnEnv = "MARKETD_TEST_PG_EVENT_DSN"
)

func TestService(t *testing.T) {
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "repo_manager_with_badger_stores",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "badger",
				EventStoreConfig: []interface{}{"", nil},
				DataStoreConfig:  []interface{}{"", nil},
			},
		},
		{
			name: "repo_manager_with_sqlite_stores",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "sqlite",
				EventStoreConfig: []interface{}{"", nil},
				DataStoreConfig:  []interface{}{t.TempDir()},
			},
		},
	}
	if dsn, eventDsn := os.Getenv(pgDsnEnv), os.Getenv(pgEventDsnEnv); dsn != "" && eventDsn != "" {
		tests = append(tests, struct {
			name   string
			config db.ServiceConfig
		}{
			name: "repo_manager_with_postgres_stores",
			config: db.ServiceConfig{
				EventStoreType:   "postgres",
				DataStoreType:    "postgres",
				EventStoreConfig: []interface{}{eventDsn, true},
				DataStoreConfig:  []interface{}{dsn, true},
			},
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			require.NotNil(t, svc)

			testEventRepository(t, svc)
			testMarketplaceRepository(t, svc)
			testServiceRepository(t, svc)
			testAssetRepository(t, svc)
			testAccountRepository(t, svc)
			testRunInTx(t, svc)

			svc.Close()
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	fixtures := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "unknown event store",
			config: db.ServiceConfig{
				EventStoreType: "mongo",
				DataStoreType:  "badger",
			},
		},
		{
			name: "unknown data store",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "mongo",
				EventStoreConfig: []interface{}{"", nil},
			},
		},
		{
			name: "invalid badger config",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "badger",
				EventStoreConfig: []interface{}{""},
			},
		},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			svc, err := db.NewService(f.config)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

func testEventRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_event_repository", func(t *testing.T) {
		ctx := context.Background()
		buyer := randomAddress(t)
		creator := randomAddress(t)
		service := randomAddress(t)

		listed := domain.NewEvent(domain.EventTypeServiceListed)
		listed.Service = service
		listed.From = creator
		listed.Amount = 1_000_000

		purchased := domain.NewEvent(domain.EventTypeServicePurchased)
		purchased.Service = service
		purchased.From = buyer
		purchased.To = creator
		purchased.Amount = 1_000_000

		var received [][]domain.Event
		svc.Events().RegisterEventsHandler(domain.MarketTopic, func(events []domain.Event) {
			received = append(received, events)
		})

		err := svc.Events().Save(ctx, domain.MarketTopic, listed)
		require.NoError(t, err)
		err = svc.Events().Save(ctx, domain.MarketTopic, purchased)
		require.NoError(t, err)

		svc.Events().ClearRegisteredHandlers(domain.MarketTopic)
		require.Len(t, received, 2)
		require.Equal(t, listed.Id, received[0][0].Id)
		require.Equal(t, purchased.Id, received[1][0].Id)

		err = svc.Events().Save(ctx, domain.MarketTopic, domain.NewEvent(domain.EventTypeAccountFunded))
		require.NoError(t, err)
		require.Len(t, received, 2)

		events, err := svc.Events().GetEventsByAddress(ctx, domain.MarketTopic, creator)
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.Equal(t, listed.Id, events[0].Id)
		require.Equal(t, purchased.Id, events[1].Id)

		events, err = svc.Events().GetEventsByAddress(ctx, domain.MarketTopic, buyer)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, domain.EventTypeServicePurchased, events[0].Type)

		events, err = svc.Events().GetEventsByAddress(ctx, domain.MarketTopic, randomAddress(t))
		require.NoError(t, err)
		require.Empty(t, events)
	})
}

func testMarketplaceRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_marketplace_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Marketplaces()

		marketplace := domain.Marketplace{
			Address:   randomAddress(t),
			Admin:     randomAddress(t),
			Seed:      ^uint64(0),
			Bump:      255,
			CreatedAt: time.Now().Unix(),
		}

		got, err := repo.Get(ctx, marketplace.Address)
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Nil(t, got)

		err = repo.Add(ctx, marketplace)
		require.NoError(t, err)

		got, err = repo.Get(ctx, marketplace.Address)
		require.NoError(t, err)
		require.Equal(t, marketplace, *got)

		err = repo.Add(ctx, marketplace)
		require.ErrorIs(t, err, domain.ErrAlreadyExists)
	})
}

func testServiceRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_service_repository", func(t *testing.T) {
		ctx := context.Background()
		marketplace := domain.Marketplace{
			Address:   randomAddress(t),
			Admin:     randomAddress(t),
			Seed:      42,
			Bump:      251,
			CreatedAt: time.Now().Unix(),
		}
		require.NoError(t, svc.Marketplaces().Add(ctx, marketplace))

		repo := svc.Services()
		services := []domain.Service{
			{
				Address:     randomAddress(t),
				Marketplace: marketplace.Address,
				Creator:     randomAddress(t),
				Asset:       randomAddress(t),
				Price:       1_000_000,
				IsSoulbound: true,
				Bump:        254,
				Name:        "Consulting",
				URI:         "https://example.com/consulting.json",
				CreatedAt:   marketplace.CreatedAt,
			},
			{
				Address:     randomAddress(t),
				Marketplace: marketplace.Address,
				Creator:     randomAddress(t),
				Asset:       randomAddress(t),
				Price:       ^uint64(0),
				Bump:        253,
				Name:        "Audit",
				URI:         "https://example.com/audit.json",
				CreatedAt:   marketplace.CreatedAt + 1,
			},
		}

		list, err := repo.ListByMarketplace(ctx, marketplace.Address)
		require.NoError(t, err)
		require.Empty(t, list)

		for _, s := range services {
			require.NoError(t, repo.Add(ctx, s))
		}

		got, err := repo.Get(ctx, services[0].Address)
		require.NoError(t, err)
		require.Equal(t, services[0], *got)

		err = repo.Add(ctx, services[1])
		require.ErrorIs(t, err, domain.ErrAlreadyExists)

		_, err = repo.Get(ctx, randomAddress(t))
		require.ErrorIs(t, err, domain.ErrNotFound)

		list, err = repo.ListByMarketplace(ctx, marketplace.Address)
		require.NoError(t, err)
		require.Equal(t, services, list)
	})
}

func testAssetRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_asset_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Assets()
		creator := randomAddress(t)
		delegate := randomAddress(t)
		now := time.Now().Unix()
		royalties := domain.Royalties{
			BasisPoints: 500,
			Creators:    []domain.Creator{{Address: creator, Percentage: 100}},
			RuleSet:     domain.RuleSetNone,
		}
		attributes := []domain.Attribute{
			{Key: "hours", Value: "10"},
			{Key: "terms", Value: "net 30"},
		}

		transferable, err := domain.NewAsset(
			randomAddress(t), creator, "Consulting", "https://example.com/c.json",
			domain.PolicyTransferable, delegate, royalties, attributes, now,
		)
		require.NoError(t, err)
		locked, err := domain.NewAsset(
			randomAddress(t), creator, "Audit", "https://example.com/a.json",
			domain.PolicyPermanentlyLocked, delegate, royalties, attributes, now+1,
		)
		require.NoError(t, err)

		_, err = repo.Get(ctx, transferable.Address)
		require.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, repo.Add(ctx, *transferable))
		require.NoError(t, repo.Add(ctx, *locked))
		require.ErrorIs(t, repo.Add(ctx, *locked), domain.ErrAlreadyExists)

		got, err := repo.Get(ctx, transferable.Address)
		require.NoError(t, err)
		require.Equal(t, *transferable, *got)

		got, err = repo.Get(ctx, locked.Address)
		require.NoError(t, err)
		require.Equal(t, *locked, *got)
		require.True(t, got.IsFrozen())
		require.Equal(t, delegate, got.Delegate())

		owned, err := repo.ListByOwner(ctx, creator)
		require.NoError(t, err)
		require.Len(t, owned, 2)

		buyer := randomAddress(t)
		require.NoError(t, locked.Transfer(buyer, delegate, now+2))
		require.NoError(t, repo.Update(ctx, *locked))

		got, err = repo.Get(ctx, locked.Address)
		require.NoError(t, err)
		require.Equal(t, buyer, got.Owner)
		require.True(t, got.Sealed)
		require.Equal(t, uint32(1), got.TransferCount)

		owned, err = repo.ListByOwner(ctx, creator)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		require.Equal(t, transferable.Address, owned[0].Address)

		missing := *transferable
		missing.Address = randomAddress(t)
		require.ErrorIs(t, repo.Update(ctx, missing), domain.ErrNotFound)
	})
}

func testAccountRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_account_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Accounts()
		address := randomAddress(t)

		account, err := repo.Get(ctx, address)
		require.NoError(t, err)
		require.Equal(t, domain.Account{Address: address}, *account)

		account.Balance = ^uint64(0)
		account.UpdatedAt = time.Now().Unix()
		require.NoError(t, repo.Upsert(ctx, *account))

		got, err := repo.Get(ctx, address)
		require.NoError(t, err)
		require.Equal(t, *account, *got)

		account.Balance = 0
		require.NoError(t, repo.Upsert(ctx, *account))

		got, err = repo.Get(ctx, address)
		require.NoError(t, err)
		require.Zero(t, got.Balance)
	})
}

func testRunInTx(t *testing.T, svc ports.RepoManager) {
	t.Run("test_run_in_tx", func(t *testing.T) {
		ctx := context.Background()
		from := randomAddress(t)
		to := randomAddress(t)

		require.NoError(t, svc.Accounts().Upsert(ctx, domain.Account{Address: from, Balance: 100}))

		t.Run("commit", func(t *testing.T) {
			err := svc.RunInTx(ctx, func(ctx context.Context) error {
				return moveFunds(ctx, svc, from, to, 40)
			})
			require.NoError(t, err)
			requireBalance(t, svc, from, 60)
			requireBalance(t, svc, to, 40)
		})

		t.Run("rollback", func(t *testing.T) {
			failure := errors.New("failure")
			marketplace := domain.Marketplace{
				Address: randomAddress(t),
				Admin:   randomAddress(t),
				Seed:    1,
			}
			err := svc.RunInTx(ctx, func(ctx context.Context) error {
				if err := moveFunds(ctx, svc, from, to, 60); err != nil {
					return err
				}
				if err := svc.Marketplaces().Add(ctx, marketplace); err != nil {
					return err
				}
				return failure
			})
			require.ErrorIs(t, err, failure)
			requireBalance(t, svc, from, 60)
			requireBalance(t, svc, to, 40)

			_, err = svc.Marketplaces().Get(ctx, marketplace.Address)
			require.ErrorIs(t, err, domain.ErrNotFound)
		})

		t.Run("nested", func(t *testing.T) {
			err := svc.RunInTx(ctx, func(ctx context.Context) error {
				return svc.RunInTx(ctx, func(ctx context.Context) error {
					return moveFunds(ctx, svc, to, from, 40)
				})
			})
			require.NoError(t, err)
			requireBalance(t, svc, from, 100)
			requireBalance(t, svc, to, 0)
		})

		t.Run("concurrent", func(t *testing.T) {
			count := 4
			errs := make(chan error, count)
			for i := 0; i < count; i++ {
				go func() {
					errs <- svc.RunInTx(ctx, func(ctx context.Context) error {
						return moveFunds(ctx, svc, from, to, 10)
					})
				}()
			}
			for i := 0; i < count; i++ {
				require.NoError(t, <-errs)
			}
			requireBalance(t, svc, from, 60)
			requireBalance(t, svc, to, 40)
		})
	})
}

func moveFunds(ctx context.Context, svc ports.RepoManager, from, to string, amount uint64) error {
	sender, err := svc.Accounts().Get(ctx, from)
	if err != nil {
		return err
	}
	receiver, err := svc.Accounts().Get(ctx, to)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	if err := sender.Debit(amount, 0, now); err != nil {
		return err
	}
	if err := receiver.Credit(amount, 0, now); err != nil {
		return err
	}
	if err := svc.Accounts().Upsert(ctx, *sender); err != nil {
		return err
	}
	return svc.Accounts().Upsert(ctx, *receiver)
}

func requireBalance(t *testing.T, svc ports.RepoManager, address string, expected uint64) {
	t.Helper()
	account, err := svc.Accounts().Get(context.Background(), address)
	require.NoError(t, err)
	require.Equal(t, expected, account.Balance)
}

func randomAddress(t *testing.T) string {
	t.Helper()
	key, err := marketlib.GenerateKeyPair()
	require.NoError(t, err)
	return key.Address().String()
}
