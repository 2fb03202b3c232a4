package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/infrastructure/db/dbutil"
)

const (
	selectAccount = `SELECT balance, updated_at FROM account WHERE address = ?`

	upsertAccount = `
INSERT INTO account (address, balance, updated_at) VALUES (?, ?, ?)
ON CONFLICT (address) DO UPDATE SET
    balance = excluded.balance,
    updated_at = excluded.updated_at`
)

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(config ...interface{}) (domain.AccountRepository, error) {
	db, err := getDb(config...)
	if err != nil {
		return nil, err
	}
	return &accountRepository{db}, nil
}

func (r *accountRepository) Get(ctx context.Context, address string) (*domain.Account, error) {
	account := &domain.Account{Address: address}
	var balance string
	if err := dbutil.QuerierFromContext(ctx, r.db).QueryRowContext(
		ctx, selectAccount, address,
	).Scan(&balance, &account.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var err error
	if account.Balance, err = dbutil.ParseUint64(balance); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) Upsert(ctx context.Context, account domain.Account) error {
	if _, err := dbutil.QuerierFromContext(ctx, r.db).ExecContext(
		ctx, upsertAccount,
		account.Address, dbutil.FormatUint64(account.Balance), account.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

func (r *accountRepository) Close() {
	// nolint:all
	r.db.Close()
}
