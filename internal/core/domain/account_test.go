package domain_test

import (
	"math"
	"testing"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestAccountDebit(t *testing.T) {
	fixtures := []struct {
		name       string
		balance    uint64
		amount     uint64
		minReserve uint64
		expected   uint64
		err        error
	}{
		{"partial", 2_000_000, 1_000_000, 0, 1_000_000, nil},
		{"whole balance", 1_000_000, 1_000_000, 500, 0, nil},
		{"zero amount", 10, 0, 0, 10, nil},
		{"insufficient", 500_000, 1_000_000, 0, 500_000, domain.ErrInsufficientBalance},
		{"below reserve", 1_000_100, 1_000_000, 500, 1_000_100, domain.ErrBelowReserve},
		{"at reserve", 1_000_500, 1_000_000, 500, 500, nil},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			account := domain.Account{Address: buyer, Balance: f.balance}
			err := account.Debit(f.amount, f.minReserve, 1)
			if f.err != nil {
				require.ErrorIs(t, err, f.err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, f.expected, account.Balance)
		})
	}
}

func TestAccountCredit(t *testing.T) {
	fixtures := []struct {
		name       string
		balance    uint64
		amount     uint64
		minReserve uint64
		expected   uint64
		err        error
	}{
		{"empty account", 0, 1_000_000, 0, 1_000_000, nil},
		{"existing account", 5, 10, 0, 15, nil},
		{"below reserve", 0, 10, 500, 0, domain.ErrBelowReserve},
		{"overflow", math.MaxUint64, 1, 0, math.MaxUint64, domain.ErrBalanceOverflow},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			account := domain.Account{Address: creator, Balance: f.balance}
			err := account.Credit(f.amount, f.minReserve, 1)
			if f.err != nil {
				require.ErrorIs(t, err, f.err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, f.expected, account.Balance)
		})
	}
}

func TestEventInvolves(t *testing.T) {
	event := domain.NewEvent(domain.EventTypeServicePurchased)
	event.Service = service
	event.From = buyer
	event.To = creator

	require.NotEmpty(t, event.Id)
	require.True(t, event.Involves(service))
	require.True(t, event.Involves(buyer))
	require.False(t, event.Involves(stranger))
	require.False(t, event.Involves(""))
}
