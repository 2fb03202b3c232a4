package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/pkg/errors"
)

// ledger moves native value between accounts. Every method must be called
// within a repository transaction.
type ledger struct {
	accounts   domain.AccountRepository
	minReserve uint64
}

func (l ledger) balance(ctx context.Context, address string) (uint64, error) {
	account, err := l.accounts.Get(ctx, address)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (l ledger) transfer(ctx context.Context, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	now := time.Now().Unix()

	sender, err := l.accounts.Get(ctx, from)
	if err != nil {
		return err
	}
	if err := sender.Debit(amount, l.minReserve, now); err != nil {
		return valueTransferFailure(err, from, to, amount)
	}
	if from == to {
		return nil
	}

	receiver, err := l.accounts.Get(ctx, to)
	if err != nil {
		return err
	}
	if err := receiver.Credit(amount, l.minReserve, now); err != nil {
		return valueTransferFailure(err, from, to, amount)
	}

	if err := l.accounts.Upsert(ctx, *sender); err != nil {
		return err
	}
	return l.accounts.Upsert(ctx, *receiver)
}

// burn removes the given amount from the account without crediting anyone.
func (l ledger) burn(ctx context.Context, from string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	account, err := l.accounts.Get(ctx, from)
	if err != nil {
		return err
	}
	if err := account.Debit(amount, l.minReserve, time.Now().Unix()); err != nil {
		return valueTransferFailure(err, from, "", amount)
	}
	return l.accounts.Upsert(ctx, *account)
}

func (l ledger) mint(ctx context.Context, to string, amount uint64) (uint64, error) {
	account, err := l.accounts.Get(ctx, to)
	if err != nil {
		return 0, err
	}
	if err := account.Credit(amount, l.minReserve, time.Now().Unix()); err != nil {
		return 0, valueTransferFailure(err, "", to, amount)
	}
	if err := l.accounts.Upsert(ctx, *account); err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func valueTransferFailure(err error, from, to string, amount uint64) error {
	if !stderrors.Is(err, domain.ErrInsufficientBalance) &&
		!stderrors.Is(err, domain.ErrBelowReserve) &&
		!stderrors.Is(err, domain.ErrBalanceOverflow) {
		return fmt.Errorf("failed to transfer value: %w", err)
	}
	return errors.VALUE_TRANSFER_FAILURE.Wrap(err).WithMetadata(errors.ValueTransferMetadata{
		From:   from,
		To:     to,
		Amount: amount,
	})
}
