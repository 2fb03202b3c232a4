package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	eventStoreDir = "events"
	eventSeqKey   = "event-seq"
)

type eventRecord struct {
	Seq   uint64
	Topic string
	Event domain.Event
}

type eventRepository struct {
	store *badgerhold.Store
	seq   *badger.Sequence

	handlers    map[string][]func(events []domain.Event)
	handlerLock sync.RWMutex
}

func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	baseDir, logger, err := parseConfig(config...)
	if err != nil {
		return nil, err
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}
	seq, err := store.Badger().GetSequence([]byte(eventSeqKey), 100)
	if err != nil {
		// nolint:all
		store.Close()
		return nil, fmt.Errorf("failed to open event sequence: %s", err)
	}

	return &eventRepository{
		store:    store,
		seq:      seq,
		handlers: make(map[string][]func(events []domain.Event)),
	}, nil
}

func (r *eventRepository) Save(ctx context.Context, topic string, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		seq, err := r.seq.Next()
		if err != nil {
			return fmt.Errorf("failed to get next event sequence: %s", err)
		}
		record := eventRecord{Seq: seq, Topic: topic, Event: event}
		if err := withRetry(func() error {
			return r.store.Insert(seq, record)
		}); err != nil {
			return fmt.Errorf("failed to save event %s: %w", event.Id, err)
		}
	}

	r.dispatch(topic, events)
	return nil
}

func (r *eventRepository) GetEventsByAddress(
	_ context.Context, topic, address string,
) ([]domain.Event, error) {
	var records []eventRecord
	query := badgerhold.Where("Topic").Eq(topic).SortBy("Seq")
	if err := r.store.Find(&records, query); err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0)
	for _, record := range records {
		if record.Event.Involves(address) {
			events = append(events, record.Event)
		}
	}
	return events, nil
}

func (r *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	r.handlerLock.Lock()
	defer r.handlerLock.Unlock()

	r.handlers[topic] = append(r.handlers[topic], handler)
}

func (r *eventRepository) ClearRegisteredHandlers(topics ...string) {
	r.handlerLock.Lock()
	defer r.handlerLock.Unlock()

	if len(topics) == 0 {
		r.handlers = make(map[string][]func(events []domain.Event))
		return
	}
	for _, topic := range topics {
		delete(r.handlers, topic)
	}
}

func (r *eventRepository) Close() {
	// nolint:all
	r.seq.Release()
	// nolint:all
	r.store.Close()
}

// dispatch runs the handlers in the Save routine, so that they receive the
// batches in the order they were saved.
func (r *eventRepository) dispatch(topic string, events []domain.Event) {
	r.handlerLock.RLock()
	handlers := append([]func(events []domain.Event){}, r.handlers[topic]...)
	r.handlerLock.RUnlock()

	for _, handler := range handlers {
		handler(events)
	}
}
