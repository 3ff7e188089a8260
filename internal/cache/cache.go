// Package cache memoizes check results behind a bbolt-backed store, so
// re-running the same (devices, rules, vulnerables, policy, config)
// tuple — the common case while iterating on a rule set in the LSP or
// re-running a CI check against unchanged channels — skips the
// external model checker entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const bucketResults = "results"

// Store wraps a BoltDB file with typed accessors for cached check
// results, grounded on the pack's own bbolt wrapper for a single
// results bucket keyed by content hash.
type Store struct {
	db  *bolt.DB
	log *zap.Logger
}

// Open opens (or creates) the BoltDB file at path and ensures the
// results bucket exists.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: bolt.Open(%q): %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketResults))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: create bucket: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives a stable cache key from the emitted model text, the
// policy name, and the BMC flag — the complete set of inputs that
// determine a check's outcome, since the emitted model already encodes
// devices, rules, vulnerables, grouping, and pruning.
func Key(modelText, policyName string, bmc bool) string {
	h := sha256.New()
	h.Write([]byte(modelText))
	h.Write([]byte{0})
	h.Write([]byte(policyName))
	h.Write([]byte{0})
	if bmc {
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Entry is the cached record for one check, JSON-encoded in the
// results bucket. Callers store whatever result shape they use
// (controller.Result) serialized into Payload, keeping this package
// free of any dependency on the controller package.
type Entry struct {
	Payload  []byte
	StoredAt time.Time
}

// Get looks up a previously stored entry. Returns (nil, false, nil) on
// a clean miss.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketResults))
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		payload = e.Payload
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	if payload == nil {
		s.log.Debug("cache miss", zap.String("key", key))
		return nil, false, nil
	}
	s.log.Debug("cache hit", zap.String("key", key))
	return payload, true, nil
}

// Put stores payload under key, overwriting any previous entry.
func (s *Store) Put(key string, payload []byte) error {
	e := Entry{Payload: payload, StoredAt: time.Now().UTC()}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: marshal entry: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketResults))
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	s.log.Debug("cache store", zap.String("key", key), zap.Int("bytes", len(payload)))
	return nil
}

// Invalidate removes a single entry, for a caller that knows a given
// model text is now stale (e.g. the LSP editing the same rule file
// repeatedly within one session without a cache-busting input change).
func (s *Store) Invalidate(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketResults))
		return b.Delete([]byte(key))
	})
}
