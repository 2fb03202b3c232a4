package dbutil

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	MaxRetries = 5
	RetryDelay = 100 * time.Millisecond
)

type txKey struct {
	db *sql.DB
}

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFromContext returns the transaction bound to ctx for the given db,
// or the db itself if there is none.
func QuerierFromContext(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{db}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// RunInTx runs fn within a transaction of db. The transaction is bound to the
// ctx passed to fn so that repositories sharing the same db join it. The
// whole unit is replayed if it fails with an error for which isRetryable
// returns true.
func RunInTx(
	ctx context.Context, db *sql.DB, opts *sql.TxOptions,
	isRetryable func(error) bool, fn func(ctx context.Context) error,
) error {
	if _, ok := ctx.Value(txKey{db}).(*sql.Tx); ok {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			log.WithError(lastErr).Debugf(
				"serialization failure, retrying transaction (%d/%d)", attempt, MaxRetries-1,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(RetryDelay):
			}
		}

		tx, err := db.BeginTx(ctx, opts)
		if err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := fn(context.WithValue(ctx, txKey{db}, tx)); err != nil {
			//nolint:all
			tx.Rollback()

			if isRetryable(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	return lastErr
}

// FormatUint64 and ParseUint64 convert amounts to and from the decimal text
// form used by columns that can't hold the full uint64 range natively.
func FormatUint64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func ParseUint64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}
