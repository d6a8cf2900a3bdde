package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	fixtureBucket    = "fixtures"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Each value is an 8-byte
// big-endian expiry followed by the JSON-encoded Record.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	fixtureTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(fixtureBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		fixtureTTL:      opts.FixtureTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns the unexpired record stored under key. Expired entries are
// deleted on read.
func (b *boltStore) Get(key string) (Record, bool, error) {
	if b == nil || b.db == nil {
		return Record{}, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return Record{}, false, err
	}

	var (
		rec   Record
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fixtureBucket))
		if bucket == nil {
			return fmt.Errorf("fixture bucket missing")
		}

		k := []byte(key)
		value := bucket.Get(k)
		if value == nil {
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(k)
		}
		if err := json.Unmarshal(value[expiryValueBytes:], &rec); err != nil {
			return fmt.Errorf("decode fixture %s: %w", key, err)
		}
		found = true
		return nil
	})
	return rec, found, err
}

// Put stores rec under key with the configured TTL.
func (b *boltStore) Put(key string, rec Record) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode fixture %s: %w", key, err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fixtureBucket))
		if bucket == nil {
			return fmt.Errorf("fixture bucket missing")
		}
		buf := make([]byte, expiryValueBytes, expiryValueBytes+len(raw))
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.fixtureTTL).Unix()))
		return bucket.Put([]byte(key), append(buf, raw...))
	})
}

// Keys lists the keys of unexpired fixtures in sorted order.
func (b *boltStore) Keys() ([]string, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fixtureBucket))
		if bucket == nil {
			return fmt.Errorf("fixture bucket missing")
		}
		return bucket.ForEach(func(k, v []byte) error {
			if expiry, ok := decodeExpiry(v); ok && expiry.After(now) {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	sort.Strings(keys)
	return keys, err
}

// Purge removes every fixture and returns how many were deleted.
func (b *boltStore) Purge() (int, error) {
	if b == nil || b.db == nil {
		return 0, nil
	}

	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fixtureBucket))
		if bucket == nil {
			return fmt.Errorf("fixture bucket missing")
		}
		removed = bucket.Stats().KeyN
		if err := tx.DeleteBucket([]byte(fixtureBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(fixtureBucket))
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// maybeCleanupExpired removes expired fixtures on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fixtureBucket))
		if bucket == nil {
			return fmt.Errorf("fixture bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeExpiry decodes the expiry prefix of a stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
