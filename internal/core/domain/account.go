package domain

import (
	"fmt"
	"math"
)

type Account struct {
	Address   string
	Balance   uint64
	UpdatedAt int64
}

// Debit removes the given amount from the account. The remaining balance
// must be either zero or at least the min reserve.
func (a *Account) Debit(amount, minReserve uint64, now int64) error {
	if a.Balance < amount {
		return fmt.Errorf(
			"%w: %s has %d, needs %d", ErrInsufficientBalance, a.Address, a.Balance, amount,
		)
	}
	remaining := a.Balance - amount
	if remaining > 0 && remaining < minReserve {
		return fmt.Errorf(
			"%w: %s would be left with %d, reserve is %d",
			ErrBelowReserve, a.Address, remaining, minReserve,
		)
	}
	a.Balance = remaining
	a.UpdatedAt = now
	return nil
}

// Credit adds the given amount to the account. The resulting balance must be
// at least the min reserve.
func (a *Account) Credit(amount, minReserve uint64, now int64) error {
	if amount > math.MaxUint64-a.Balance {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, a.Address)
	}
	total := a.Balance + amount
	if total < minReserve {
		return fmt.Errorf(
			"%w: %s would hold %d, reserve is %d", ErrBelowReserve, a.Address, total, minReserve,
		)
	}
	a.Balance = total
	a.UpdatedAt = now
	return nil
}
