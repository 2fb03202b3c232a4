package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	badgerdb "github.com/arkade-os/marketd/internal/infrastructure/db/badger"
	"github.com/arkade-os/marketd/internal/infrastructure/db/dbutil"
	pgdb "github.com/arkade-os/marketd/internal/infrastructure/db/postgres"
	sqlitedb "github.com/arkade-os/marketd/internal/infrastructure/db/sqlite"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/migration/*
var migrations embed.FS

//go:embed postgres/migration/*
var pgMigration embed.FS

const sqliteDbFile = "sqlite.db"

type sqlRepositories struct {
	marketplaces func(...interface{}) (domain.MarketplaceRepository, error)
	services     func(...interface{}) (domain.ServiceRepository, error)
	assets       func(...interface{}) (domain.AssetRepository, error)
	accounts     func(...interface{}) (domain.AccountRepository, error)
}

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"badger":   badgerdb.NewEventRepository,
		"postgres": pgdb.NewEventRepository,
	}
	sqlStoreTypes = map[string]sqlRepositories{
		"sqlite": {
			marketplaces: sqlitedb.NewMarketplaceRepository,
			services:     sqlitedb.NewServiceRepository,
			assets:       sqlitedb.NewAssetRepository,
			accounts:     sqlitedb.NewAccountRepository,
		},
		"postgres": {
			marketplaces: pgdb.NewMarketplaceRepository,
			services:     pgdb.NewServiceRepository,
			assets:       pgdb.NewAssetRepository,
			accounts:     pgdb.NewAccountRepository,
		},
	}
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore       domain.EventRepository
	marketplaceStore domain.MarketplaceRepository
	serviceStore     domain.ServiceRepository
	assetStore       domain.AssetRepository
	accountStore     domain.AccountRepository

	runInTx func(ctx context.Context, fn func(ctx context.Context) error) error
	close   func()
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	if config.DataStoreType != "badger" {
		if _, ok := sqlStoreTypes[config.DataStoreType]; !ok {
			return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
		}
	}

	var eventStore domain.EventRepository
	var err error

	switch config.EventStoreType {
	case "badger":
		eventStore, err = eventStoreFactory(config.EventStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %s", err)
		}
	case "postgres":
		db, err := openPostgres(config.EventStoreConfig)
		if err != nil {
			return nil, err
		}
		eventStore, err = eventStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %s", err)
		}
	}

	svc := &service{eventStore: eventStore}

	switch config.DataStoreType {
	case "badger":
		store, err := badgerdb.NewStore(config.DataStoreConfig...)
		if err != nil {
			eventStore.Close()
			return nil, err
		}
		svc.marketplaceStore = badgerdb.NewMarketplaceRepository(store)
		svc.serviceStore = badgerdb.NewServiceRepository(store)
		svc.assetStore = badgerdb.NewAssetRepository(store)
		svc.accountStore = badgerdb.NewAccountRepository(store)
		svc.runInTx = store.RunInTx
		svc.close = store.Close

	case "postgres":
		db, err := openPostgres(config.DataStoreConfig)
		if err != nil {
			eventStore.Close()
			return nil, err
		}
		if err := migratePostgres(db); err != nil {
			eventStore.Close()
			return nil, err
		}
		if err := svc.withSqlRepositories(sqlStoreTypes["postgres"], db); err != nil {
			eventStore.Close()
			return nil, err
		}
		svc.runInTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return dbutil.RunInTx(ctx, db, pgdb.TxOptions, pgdb.IsConflictError, fn)
		}
		svc.close = func() {
			// nolint:all
			db.Close()
		}

	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			eventStore.Close()
			return nil, fmt.Errorf("invalid data store config")
		}
		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			eventStore.Close()
			return nil, fmt.Errorf("invalid base directory")
		}

		db, err := sqlitedb.OpenDb(filepath.Join(baseDir, sqliteDbFile))
		if err != nil {
			eventStore.Close()
			return nil, fmt.Errorf("failed to open db: %s", err)
		}
		if err := migrateSqlite(db); err != nil {
			eventStore.Close()
			return nil, err
		}
		if err := svc.withSqlRepositories(sqlStoreTypes["sqlite"], db); err != nil {
			eventStore.Close()
			return nil, err
		}
		svc.runInTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return dbutil.RunInTx(ctx, db, nil, sqlitedb.IsConflictError, fn)
		}
		svc.close = func() {
			// nolint:all
			db.Close()
		}
	}

	return svc, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Marketplaces() domain.MarketplaceRepository {
	return s.marketplaceStore
}

func (s *service) Services() domain.ServiceRepository {
	return s.serviceStore
}

func (s *service) Assets() domain.AssetRepository {
	return s.assetStore
}

func (s *service) Accounts() domain.AccountRepository {
	return s.accountStore
}

func (s *service) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runInTx(ctx, fn)
}

// Close releases the event store and the data store. The data repositories
// share a single db handle, released once.
func (s *service) Close() {
	s.eventStore.Close()
	s.close()
}

func (s *service) withSqlRepositories(factories sqlRepositories, db *sql.DB) error {
	var err error
	if s.marketplaceStore, err = factories.marketplaces(db); err != nil {
		return fmt.Errorf("failed to open marketplace store: %s", err)
	}
	if s.serviceStore, err = factories.services(db); err != nil {
		return fmt.Errorf("failed to open service store: %s", err)
	}
	if s.assetStore, err = factories.assets(db); err != nil {
		return fmt.Errorf("failed to open asset store: %s", err)
	}
	if s.accountStore, err = factories.accounts(db); err != nil {
		return fmt.Errorf("failed to open account store: %s", err)
	}
	return nil
}

func openPostgres(config []interface{}) (*sql.DB, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid data store config for postgres")
	}
	dsn, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid DSN for postgres")
	}
	autoCreate, ok := config[1].(bool)
	if !ok {
		return nil, fmt.Errorf("invalid autocreate flag for postgres")
	}

	db, err := pgdb.OpenDb(dsn, autoCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %s", err)
	}
	return db, nil
}

func migratePostgres(db *sql.DB) error {
	pgDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to init postgres migration driver: %s", err)
	}
	source, err := iofs.New(pgMigration, "postgres/migration")
	if err != nil {
		return fmt.Errorf("failed to embed postgres migrations: %s", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", pgDriver)
	if err != nil {
		return fmt.Errorf("failed to create postgres migration instance: %s", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run postgres migrations: %s", err)
	}
	return nil
}

func migrateSqlite(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to init driver: %s", err)
	}
	source, err := iofs.New(migrations, "sqlite/migration")
	if err != nil {
		return fmt.Errorf("failed to embed migrations: %s", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "marketdb", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %s", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %s", err)
	}
	return nil
}
