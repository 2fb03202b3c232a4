package watermilldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const undefinedTable = "42P01"

type eventRepository struct {
	publisher message.Publisher
	db        *sql.DB

	subscribers    map[string][]func(events []domain.Event) // topic -> handlers
	subscriberLock *sync.RWMutex
}

func NewWatermillEventRepository(publisher message.Publisher, db *sql.DB) domain.EventRepository {
	return &eventRepository{
		publisher:      publisher,
		db:             db,
		subscribers:    make(map[string][]func(events []domain.Event)),
		subscriberLock: &sync.RWMutex{},
	}
}

func (e *eventRepository) ClearRegisteredHandlers(topics ...string) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	if len(topics) == 0 {
		e.subscribers = make(map[string][]func(events []domain.Event))
		return
	}

	for _, topic := range topics {
		delete(e.subscribers, topic)
	}
}

func (e *eventRepository) Close() {
	//nolint:errcheck
	e.publisher.Close()
}

func (e *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], handler)
}

func (e *eventRepository) Save(ctx context.Context, topic string, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs, err := toWatermillMessages(ctx, events)
	if err != nil {
		return err
	}
	if err := e.publisher.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}

	e.dispatch(topic, events)
	return nil
}

// GetEventsByAddress queries the watermill table of the topic
// (watermill_<topic>) for all events referencing the given address, in
// publication order.
func (e *eventRepository) GetEventsByAddress(
	ctx context.Context, topic, address string,
) ([]domain.Event, error) {
	if e.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := fmt.Sprintf(
		`SELECT payload FROM %s
WHERE payload->>'Marketplace' = $1 OR payload->>'Service' = $1 OR payload->>'Asset' = $1
    OR payload->>'From' = $1 OR payload->>'To' = $1
ORDER BY "offset" ASC;`,
		pq.QuoteIdentifier("watermill_"+topic),
	)

	rows, err := e.db.QueryContext(ctx, query, address)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
			return []domain.Event{}, nil
		}
		return nil, fmt.Errorf(
			"failed to query messages for topic %s with address %s: %w", topic, address, err,
		)
	}
	// nolint
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan message payload: %w", err)
		}
		var event domain.Event
		if err := json.Unmarshal(record, &event); err != nil {
			log.WithError(err).Warnf("failed to deserialize event: %s", string(record))
			continue
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(
			"error iterating messages for topic %s with address %s: %w", topic, address, err,
		)
	}
	return events, nil
}

func (e *eventRepository) dispatch(topic string, events []domain.Event) {
	e.subscriberLock.RLock()
	handlers := append([]func(events []domain.Event){}, e.subscribers[topic]...)
	e.subscriberLock.RUnlock()

	for _, handler := range handlers {
		handler(events)
	}
}

func toWatermillMessages(ctx context.Context, events []domain.Event) ([]*message.Message, error) {
	msgs := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize event %s: %w", event.Id, err)
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set("type", string(event.Type))
		msg.SetContext(ctx)
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
