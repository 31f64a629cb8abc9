package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
)

// levelHeaderLen is the size of the deadline header prepended to every
// stored value: the expiry as unix nanoseconds, big endian.
const levelHeaderLen = 8

// LevelStore is an embedded store backed by LevelDB, for local and
// offline runs where no Redis is available. Expiry is enforced at read
// time from a deadline persisted with each value, keeping the store
// authoritative for it; expired entries are removed lazily.
type LevelStore struct {
	db  *leveldb.DB
	now func() time.Time
}

// NewLevelStore opens (or creates) a LevelDB store at path.
func NewLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &LevelStore{db: db, now: time.Now}, nil
}

// Get retrieves the bytes stored under key, honoring the persisted
// deadline.
func (s *LevelStore) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	if len(raw) < levelHeaderLen {
		return nil, fmt.Errorf("leveldb get: corrupt value for %q", key)
	}

	deadline := int64(binary.BigEndian.Uint64(raw[:levelHeaderLen]))
	if deadline > 0 && s.now().UnixNano() >= deadline {
		_ = s.db.Delete([]byte(key), nil)
		return nil, ErrNotFound
	}
	return raw[levelHeaderLen:], nil
}

// Put stores data under key with the given TTL. A non-positive TTL
// stores without expiry.
func (s *LevelStore) Put(_ context.Context, key string, data []byte, ttl time.Duration) error {
	var deadline int64
	if ttl > 0 {
		deadline = s.now().Add(ttl).UnixNano()
	}

	value := make([]byte, levelHeaderLen+len(data))
	binary.BigEndian.PutUint64(value[:levelHeaderLen], uint64(deadline))
	copy(value[levelHeaderLen:], data)

	if err := s.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *LevelStore) Delete(_ context.Context, key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("leveldb del: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *LevelStore) Close() error {
	return s.db.Close()
}
