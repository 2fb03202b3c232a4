package domain

import "context"

type EventRepository interface {
	Save(ctx context.Context, topic string, events ...Event) error
	GetEventsByAddress(ctx context.Context, topic, address string) ([]Event, error)
	// RegisterEventsHandler adds a handler called with every saved batch of the
	// topic, from the Save routine and in save order. Handlers must not block.
	RegisterEventsHandler(topic string, handler func(events []Event))
	ClearRegisteredHandlers(topics ...string)
	Close()
}
