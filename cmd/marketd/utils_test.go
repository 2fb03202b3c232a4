package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	marketv1 "github.com/arkade-os/marketd/api-spec/market/v1"
	"github.com/stretchr/testify/require"
)

func TestParseSol(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		fixtures := []struct {
			amount   string
			expected uint64
		}{
			{"0", 0},
			{"1", 1_000_000_000},
			{"0.5", 500_000_000},
			{"0.000000001", 1},
			{"12.345", 12_345_000_000},
		}
		for _, f := range fixtures {
			lamports, err := parseSol(f.amount)
			require.NoError(t, err, f.amount)
			require.Equal(t, f.expected, lamports, f.amount)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			amount string
			err    string
		}{
			{"abc", "invalid amount abc"},
			{"-1", "must be positive"},
			{"0.0000000001", "too many decimals"},
			{"100000000000", "out of range"},
		}
		for _, f := range fixtures {
			_, err := parseSol(f.amount)
			require.ErrorContains(t, err, f.err, f.amount)
		}
	})
}

func TestFormatSol(t *testing.T) {
	require.Equal(t, "0", formatSol(0))
	require.Equal(t, "1", formatSol(1_000_000_000))
	require.Equal(t, "0.000000001", formatSol(1))
	require.Equal(t, "2.5", formatSol(2_500_000_000))
}

func TestRestHelpers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		switch r.URL.Path {
		case "/v1/accounts/abc/balance":
			require.Equal(t, "deadbeef", r.Header.Get("X-Macaroon"))
			// nolint
			w.Write([]byte(`{"balance":"42"}`))
		case "/v1/admin/airdrop":
			buf, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			req := marketv1.AirdropRequest{}
			require.NoError(t, json.Unmarshal(buf, &req))
			// nolint
			json.NewEncoder(w).Encode(marketv1.AirdropResponse{Balance: req.Amount})
		default:
			w.WriteHeader(http.StatusNotFound)
			// nolint
			w.Write([]byte(`{"name":"SERVICE_NOT_FOUND"}`))
		}
	}))
	defer srv.Close()

	balance, err := getUint64(srv.URL+"/v1/accounts/abc/balance", "balance", "deadbeef", nil)
	require.NoError(t, err)
	require.Equal(t, uint64(42), balance)

	resp, err := post[marketv1.AirdropResponse](
		srv.URL+"/v1/admin/airdrop", `{"address":"abc","amount":"7"}`, "", "", nil,
	)
	require.NoError(t, err)
	require.Equal(t, uint64(7), resp.Balance)

	_, err = get[marketv1.Service](srv.URL+"/v1/services/xyz", "service", "", nil)
	require.ErrorContains(t, err, "SERVICE_NOT_FOUND")
}
