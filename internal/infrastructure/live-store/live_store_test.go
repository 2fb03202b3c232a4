package livestore_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	inmemorylivestore "github.com/arkade-os/marketd/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/arkade-os/marketd/internal/infrastructure/live-store/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const redisURLEnv = "MARKETD_TEST_REDIS_URL"

var (
	marketplace = domain.Marketplace{
		Address:   "8MoT8coFvE6CRcK3TtwpT6QMWR9q2qArppqgQpoFPd6c",
		Admin:     "SeedPubey1111111111111111111111111111111111",
		Seed:      42,
		Bump:      251,
		CreatedAt: 1760000000,
	}
	service = domain.Service{
		Address:     "93efxqt3Bnoj34hZfqAdPPn2CkbK6DbWK1LyYVGGwEvR",
		Marketplace: marketplace.Address,
		Creator:     "BPFLoaderUpgradeab1e11111111111111111111111",
		Asset:       "Vote111111111111111111111111111111111111111",
		Price:       1_000_000,
		IsSoulbound: true,
		Bump:        251,
		Name:        "Consulting",
		URI:         "https://example.com/consulting.json",
		CreatedAt:   1760000001,
	}
)

func TestLiveStoreImplementations(t *testing.T) {
	stores := []struct {
		name  string
		store ports.LiveStore
	}{
		{"inmemory", inmemorylivestore.NewLiveStore()},
	}

	if url := os.Getenv(redisURLEnv); url != "" {
		redisOpts, err := redis.ParseURL(url)
		require.NoError(t, err)
		rdb := redis.NewClient(redisOpts)
		require.NoError(t, rdb.FlushDB(context.Background()).Err())
		stores = append(stores, struct {
			name  string
			store ports.LiveStore
		}{"redis", redislivestore.NewLiveStore(rdb, 5)})
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			runLiveStoreTests(t, tt.store)
			tt.store.Close()
		})
	}
}

func runLiveStoreTests(t *testing.T, store ports.LiveStore) {
	t.Run("record cache", func(t *testing.T) {
		ctx := context.Background()
		records := store.Records()

		got, err := records.GetMarketplace(ctx, marketplace.Address)
		require.NoError(t, err)
		require.Nil(t, got)

		gotService, err := records.GetService(ctx, service.Address)
		require.NoError(t, err)
		require.Nil(t, gotService)

		require.NoError(t, records.AddMarketplace(ctx, marketplace))
		require.NoError(t, records.AddService(ctx, service))

		got, err = records.GetMarketplace(ctx, marketplace.Address)
		require.NoError(t, err)
		require.Equal(t, marketplace, *got)

		gotService, err = records.GetService(ctx, service.Address)
		require.NoError(t, err)
		require.Equal(t, service, *gotService)

		// Marketplaces and services don't share the key space.
		got, err = records.GetMarketplace(ctx, service.Address)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("nonces", func(t *testing.T) {
		ctx := context.Background()
		nonces := store.Nonces()

		nonce := uuid.New().String()
		added, err := nonces.Add(ctx, nonce, time.Minute)
		require.NoError(t, err)
		require.True(t, added)

		added, err = nonces.Add(ctx, nonce, time.Minute)
		require.NoError(t, err)
		require.False(t, added)

		expiring := uuid.New().String()
		added, err = nonces.Add(ctx, expiring, time.Second)
		require.NoError(t, err)
		require.True(t, added)

		time.Sleep(1500 * time.Millisecond)

		added, err = nonces.Add(ctx, expiring, time.Second)
		require.NoError(t, err)
		require.True(t, added)
	})

	t.Run("concurrent nonces", func(t *testing.T) {
		ctx := context.Background()
		nonce := uuid.New().String()

		count := 10
		wg := sync.WaitGroup{}
		wg.Add(count)
		results := make(chan bool, count)
		for range count {
			go func() {
				defer wg.Done()
				added, err := store.Nonces().Add(ctx, nonce, time.Minute)
				if err == nil {
					results <- added
				}
			}()
		}
		wg.Wait()
		close(results)

		accepted := 0
		for added := range results {
			if added {
				accepted++
			}
		}
		require.Equal(t, 1, accepted)
	})
}
