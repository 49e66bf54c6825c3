// Package bolt persists the host's snapshot stream and durable timer
// deadlines in a BoltDB database.
//
// This sits outside the deterministic core: it is the single-node stand-in
// for the replicated log's own snapshot and timer stores.
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	snapshotBucket = "snapshot"
	timerBucket    = "timers"
)

// Store is a BoltDB-backed snapshot and timer store.
type Store struct {
	db *bbolt.DB
}

// Open opens the store at the provided path, creating it if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{snapshotBucket, timerBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// SaveSnapshot atomically replaces the stored snapshot stream.
func (s *Store) SaveSnapshot(ctx context.Context, records [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(snapshotBucket)); err != nil {
			return fmt.Errorf("clear snapshot bucket: %w", err)
		}
		bucket, err := tx.CreateBucket([]byte(snapshotBucket))
		if err != nil {
			return fmt.Errorf("recreate snapshot bucket: %w", err)
		}
		for i, record := range records {
			if err := bucket.Put(sequenceKey(uint64(i)), record); err != nil {
				return fmt.Errorf("store snapshot record %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadSnapshot returns the stored snapshot stream in write order, or nil if
// no snapshot has been saved.
func (s *Store) LoadSnapshot(ctx context.Context) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var records [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("snapshot bucket is missing")
		}
		return bucket.ForEach(func(_, value []byte) error {
			record := make([]byte, len(value))
			copy(record, value)
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// PutTimer durably records a deadline for a correlation id.
func (s *Store) PutTimer(ctx context.Context, correlationID, deadline int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(timerBucket))
		if bucket == nil {
			return fmt.Errorf("timer bucket is missing")
		}
		var value [8]byte
		binary.BigEndian.PutUint64(value[:], uint64(deadline))
		return bucket.Put(sequenceKey(uint64(correlationID)), value[:])
	})
}

// DeleteTimer removes a fired or cancelled deadline.
func (s *Store) DeleteTimer(ctx context.Context, correlationID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(timerBucket))
		if bucket == nil {
			return fmt.Errorf("timer bucket is missing")
		}
		return bucket.Delete(sequenceKey(uint64(correlationID)))
	})
}

// Timers returns every stored deadline keyed by correlation id.
func (s *Store) Timers(ctx context.Context) (map[int64]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	deadlines := make(map[int64]int64)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(timerBucket))
		if bucket == nil {
			return fmt.Errorf("timer bucket is missing")
		}
		return bucket.ForEach(func(key, value []byte) error {
			if len(key) != 8 || len(value) != 8 {
				return fmt.Errorf("malformed timer record")
			}
			correlationID := int64(binary.BigEndian.Uint64(key))
			deadlines[correlationID] = int64(binary.BigEndian.Uint64(value))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return deadlines, nil
}

func sequenceKey(n uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, n)
	return key
}
