package inmemorylivestore

import (
	"github.com/arkade-os/marketd/internal/core/ports"
)

type liveStore struct {
	records ports.RecordCache
	nonces  ports.NonceStore
}

func NewLiveStore() ports.LiveStore {
	return &liveStore{
		records: NewRecordCache(),
		nonces:  NewNonceStore(),
	}
}

func (s *liveStore) Records() ports.RecordCache {
	return s.records
}

func (s *liveStore) Nonces() ports.NonceStore {
	return s.nonces
}

func (s *liveStore) Close() {}
