package alertsmanager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/stretchr/testify/require"
)

var announcement = ports.ServiceAnnouncement{
	Service: domain.Service{
		Address:     "93efxqt3Bnoj34hZfqAdPPn2CkbK6DbWK1LyYVGGwEvR",
		Marketplace: "8MoT8coFvE6CRcK3TtwpT6QMWR9q2qArppqgQpoFPd6c",
		Creator:     "BPFLoaderUpgradeab1e11111111111111111111111",
		Asset:       "Vote111111111111111111111111111111111111111",
		Price:       1_500_000_000,
		CreatedAt:   1_700_000_000,
	},
	Name:  "Consulting",
	URI:   "https://example.com/consulting.json",
	Hours: "10",
}

func TestAnnounceService(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var received []Alert
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		a := NewAnnouncer(server.URL)
		defer a.Close()

		err := a.AnnounceService(context.Background(), announcement)
		require.NoError(t, err)
		require.Len(t, received, 1)
		require.Equal(t, alertName, received[0].Labels["alertname"])
		require.Equal(t, announcement.Service.Address, received[0].Labels["listing"])
		require.Contains(t, received[0].Annotations["description"], "1.5 SOL")
	})

	t.Run("retry on server error", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := NewAnnouncer(server.URL).AnnounceService(context.Background(), announcement)
		require.NoError(t, err)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("no retry on client error", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		err := NewAnnouncer(server.URL).AnnounceService(context.Background(), announcement)
		require.Error(t, err)
		require.Equal(t, int32(1), calls.Load())
	})
}

func TestFormatSOL(t *testing.T) {
	fixtures := []struct {
		lamports uint64
		expected string
	}{
		{0, "0 SOL"},
		{1, "0.000000001 SOL"},
		{1_000_000_000, "1 SOL"},
		{1_500_000_000, "1.5 SOL"},
	}
	for _, f := range fixtures {
		require.Equal(t, f.expected, formatSOL(f.lamports))
	}
}
