package badgerdb

import (
	"context"
	"errors"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type accountRepository struct {
	store *Store
}

func NewAccountRepository(store *Store) domain.AccountRepository {
	return &accountRepository{store}
}

func (r *accountRepository) Get(ctx context.Context, address string) (*domain.Account, error) {
	var account domain.Account
	if err := r.store.get(ctx, address, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return &domain.Account{Address: address}, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Upsert(ctx context.Context, account domain.Account) error {
	return r.store.upsert(ctx, account.Address, account)
}

func (r *accountRepository) Close() {
	r.store.Close()
}
