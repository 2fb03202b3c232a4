package inmemorylivestore

import (
	"context"
	"time"

	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/patrickmn/go-cache"
)

type nonceStore struct {
	cache *cache.Cache
}

func NewNonceStore() ports.NonceStore {
	return &nonceStore{cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *nonceStore) Add(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	// Add fails if the nonce is already stored and not expired.
	if err := s.cache.Add(nonce, struct{}{}, ttl); err != nil {
		return false, nil
	}
	return true, nil
}
