package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const (
	driverName = "postgres"

	serializationFailure = "40001"
	deadlockDetected     = "40P01"
	invalidCatalogName   = "3D000"
)

// TxOptions is the isolation level used by RunInTx so that concurrent
// purchases are serialized by the db.
var TxOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}

// OpenDb opens a connection with the DB.
// If the db set in the dsn does not exist and autoCreate is true, OpenDb
// tries to create it.
func OpenDb(dsn string, autoCreate bool) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := connectDB(ctx, db, dsn, autoCreate); err != nil {
		return nil, fmt.Errorf("unable to establish connection with db: %v", err)
	}

	return db, nil
}

// IsConflictError reports whether the transaction failed because it could not
// be serialized with a concurrent one and should be replayed.
func IsConflictError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == serializationFailure || pqErr.Code == deadlockDetected
}

func connectDB(ctx context.Context, db *sql.DB, dsn string, autoCreate bool) error {
	if err := db.PingContext(ctx); err != nil {
		var dbErr *pq.Error
		if errors.As(err, &dbErr) && dbErr.Code == invalidCatalogName && autoCreate {
			log.Info("postgres database does not exist, creating it...")

			if err = createDB(ctx, dsn); err != nil {
				return err
			}
			return connectDB(ctx, db, dsn, false)
		}
		return err
	}
	return nil
}

// createDB creates the db named in the dsn, which must be in URL format.
func createDB(ctx context.Context, dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("cannot auto-create database unless the DSN uses URL format")
	}

	parsedURL, err := url.Parse(dsn)
	if err != nil {
		return err
	}
	dbName := strings.TrimPrefix(parsedURL.Path, "/")
	if dbName == "" {
		return fmt.Errorf("cannot auto-create when database name is empty")
	}
	parsedURL.Path = ""

	rootDB, err := sql.Open(driverName, parsedURL.String())
	if err != nil {
		return err
	}
	// nolint:all
	defer rootDB.Close()

	query := "CREATE DATABASE " + pq.QuoteIdentifier(dbName)
	log.Infof("executing query '%s'", query)
	if _, err := rootDB.ExecContext(ctx, query); err != nil {
		return err
	}
	return nil
}

func getDb(config ...interface{}) (*sql.DB, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open repository: expected *sql.DB but got %T", config[0])
	}
	return db, nil
}

func affected(res sql.Result) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}
