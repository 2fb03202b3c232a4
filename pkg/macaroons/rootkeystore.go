package macaroons

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/macaroon-bakery.v2/bakery"
)

const (
	rootKeyLen  = 32
	rootKeyFile = "root.key"
)

var defaultRootKeyID = []byte("0")

type fileRootKeyStore struct {
	path string

	lock    sync.Mutex
	rootKey []byte
}

// NewRootKeyStorage returns a store keeping a single root key in a file
// under datadir. The key is generated on first use.
func NewRootKeyStorage(datadir string) (bakery.RootKeyStore, error) {
	if datadir == "" {
		return nil, fmt.Errorf("missing datadir")
	}
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return nil, err
	}
	return &fileRootKeyStore{path: filepath.Join(datadir, rootKeyFile)}, nil
}

func (s *fileRootKeyStore) Get(_ context.Context, id []byte) ([]byte, error) {
	if !bytes.Equal(id, defaultRootKeyID) {
		return nil, bakery.ErrNotFound
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	if s.rootKey == nil {
		return nil, bakery.ErrNotFound
	}
	return s.rootKey, nil
}

func (s *fileRootKeyStore) RootKey(_ context.Context) ([]byte, []byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.load(); err != nil {
		return nil, nil, err
	}
	if s.rootKey != nil {
		return s.rootKey, defaultRootKeyID, nil
	}

	rootKey := make([]byte, rootKeyLen)
	if _, err := rand.Read(rootKey); err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(s.path, rootKey, 0600); err != nil {
		return nil, nil, fmt.Errorf("failed to store root key: %s", err)
	}
	s.rootKey = rootKey
	return s.rootKey, defaultRootKeyID, nil
}

func (s *fileRootKeyStore) load() error {
	if s.rootKey != nil {
		return nil
	}
	buf, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(buf) != rootKeyLen {
		return fmt.Errorf("invalid root key file %s", s.path)
	}
	s.rootKey = buf
	return nil
}
