package pgdb

import (
	"fmt"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/arkade-os/marketd/internal/core/domain"
	watermilldb "github.com/arkade-os/marketd/internal/infrastructure/db/watermill"
)

// NewEventRepository returns an event repository publishing to a watermill
// table per topic in the given postgres db.
func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	db, err := getDb(config...)
	if err != nil {
		return nil, err
	}

	publisher, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		watermilldb.NewLogger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %s", err)
	}

	return watermilldb.NewWatermillEventRepository(publisher, db), nil
}
