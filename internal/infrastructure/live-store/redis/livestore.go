package redislivestore

import (
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type liveStore struct {
	rdb     *redis.Client
	records ports.RecordCache
	nonces  ports.NonceStore
}

func NewLiveStore(rdb *redis.Client, numOfRetries int) ports.LiveStore {
	return &liveStore{
		rdb:     rdb,
		records: NewRecordCache(rdb, numOfRetries),
		nonces:  NewNonceStore(rdb, numOfRetries),
	}
}

func (s *liveStore) Records() ports.RecordCache {
	return s.records
}

func (s *liveStore) Nonces() ports.NonceStore {
	return s.nonces
}

func (s *liveStore) Close() {
	if err := s.rdb.Close(); err != nil {
		log.WithError(err).Warn("failed to close redis client")
	}
}
