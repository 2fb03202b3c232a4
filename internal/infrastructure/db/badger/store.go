package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const dataStoreDir = "data"

type txKey struct {
	store *badgerhold.Store
}

// Store is the badgerhold store shared by all the data repositories so that
// they can take part in the same transaction.
type Store struct {
	store     *badgerhold.Store
	closeOnce sync.Once
}

func NewStore(config ...interface{}) (*Store, error) {
	baseDir, logger, err := parseConfig(config...)
	if err != nil {
		return nil, err
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, dataStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open data store: %s", err)
	}
	return &Store{store: store}, nil
}

// RunInTx runs fn within a read-write transaction and commits it if fn
// succeeds. The whole unit is replayed if the commit fails because of a
// conflicting transaction. Nested calls join the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFromContext(ctx) != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.WithError(err).Debugf("transaction conflict, retrying (%d/%d)", attempt, maxRetries)
			if err := sleep(ctx, retryDelay); err != nil {
				return err
			}
		}

		tx := s.store.Badger().NewTransaction(true)
		if err = fn(context.WithValue(ctx, txKey{s.store}, tx)); err != nil {
			tx.Discard()
			if errors.Is(err, badger.ErrConflict) {
				continue
			}
			return err
		}
		if err = tx.Commit(); err != nil {
			if errors.Is(err, badger.ErrConflict) {
				continue
			}
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}
	return err
}

func (s *Store) Close() {
	s.closeOnce.Do(func() {
		// nolint:all
		s.store.Close()
	})
}

func (s *Store) txFromContext(ctx context.Context) *badger.Txn {
	tx, _ := ctx.Value(txKey{s.store}).(*badger.Txn)
	return tx
}

func (s *Store) get(ctx context.Context, key, result interface{}) error {
	if tx := s.txFromContext(ctx); tx != nil {
		return s.store.TxGet(tx, key, result)
	}
	return s.store.Get(key, result)
}

func (s *Store) insert(ctx context.Context, key, data interface{}) error {
	if tx := s.txFromContext(ctx); tx != nil {
		return s.store.TxInsert(tx, key, data)
	}
	return withRetry(func() error {
		return s.store.Insert(key, data)
	})
}

func (s *Store) update(ctx context.Context, key, data interface{}) error {
	if tx := s.txFromContext(ctx); tx != nil {
		return s.store.TxUpdate(tx, key, data)
	}
	return withRetry(func() error {
		return s.store.Update(key, data)
	})
}

func (s *Store) upsert(ctx context.Context, key, data interface{}) error {
	if tx := s.txFromContext(ctx); tx != nil {
		return s.store.TxUpsert(tx, key, data)
	}
	return withRetry(func() error {
		return s.store.Upsert(key, data)
	})
}

func (s *Store) find(ctx context.Context, result interface{}, query *badgerhold.Query) error {
	if tx := s.txFromContext(ctx); tx != nil {
		return s.store.TxFind(tx, result, query)
	}
	return s.store.Find(result, query)
}
