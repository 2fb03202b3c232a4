package domain

import (
	"time"

	"github.com/google/uuid"
)

const MarketTopic = "market"

type EventType string

const (
	EventTypeMarketplaceInitialized EventType = "MARKETPLACE_INITIALIZED"
	EventTypeServiceListed          EventType = "SERVICE_LISTED"
	EventTypeServicePurchased       EventType = "SERVICE_PURCHASED"
	EventTypeAssetTransferred       EventType = "ASSET_TRANSFERRED"
	EventTypeFundsTransferred       EventType = "FUNDS_TRANSFERRED"
	EventTypeAccountFunded          EventType = "ACCOUNT_FUNDED"
)

// Event records a committed state change. Fields not relevant to the type
// are left empty.
type Event struct {
	Id          string
	Type        EventType
	Marketplace string
	Service     string
	Asset       string
	From        string
	To          string
	Amount      uint64
	Fee         uint64
	Timestamp   int64
}

func NewEvent(eventType EventType) Event {
	return Event{
		Id:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
	}
}

// Involves reports whether the given address is referenced by the event.
func (e Event) Involves(address string) bool {
	if address == "" {
		return false
	}
	for _, a := range []string{e.Marketplace, e.Service, e.Asset, e.From, e.To} {
		if a == address {
			return true
		}
	}
	return false
}
