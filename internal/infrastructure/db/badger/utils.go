package badgerdb

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

const (
	maxRetries = 5
	retryDelay = 100 * time.Millisecond
)

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// withRetry runs fn again as long as it fails because of a conflicting
// concurrent write.
func withRetry(fn func() error) error {
	err := fn()
	attempts := 1
	for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
		time.Sleep(retryDelay)
		err = fn()
		attempts++
	}
	return err
}

func parseConfig(config ...interface{}) (string, badger.Logger, error) {
	if len(config) != 2 {
		return "", nil, errors.New("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return "", nil, errors.New("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return "", nil, errors.New("invalid logger")
		}
	}
	return baseDir, logger, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
