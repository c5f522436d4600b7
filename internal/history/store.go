// Package history persists the outcome of finished download sessions.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/ytget/vdl/internal/model"
	bolt "go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

// ErrNotFound is returned by Get for an unknown session id
var ErrNotFound = errors.New("session not found")

// Store keeps SessionRecords keyed by session id. Ids are UUIDv7, so key
// order is chronological. An empty path keeps records in memory only.
type Store struct {
	db *bolt.DB

	mu     sync.RWMutex
	memory map[string][]byte
}

// Open opens or creates the bbolt file at path
func Open(path string) (*Store, error) {
	if path == "" {
		// Memory-only mode (no persistence)
		return &Store{memory: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database file
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores record, replacing an earlier record of the same session
func (s *Store) Put(record model.SessionRecord) error {
	if record.ID == "" {
		return errors.New("session record without id")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", record.ID, err)
	}

	if s.db == nil {
		s.mu.Lock()
		s.memory[record.ID] = data
		s.mu.Unlock()
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(record.ID), data)
	})
}

// Get returns the record of one session
func (s *Store) Get(id string) (model.SessionRecord, error) {
	var data []byte

	if s.db == nil {
		s.mu.RLock()
		data = s.memory[id]
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(bucketSessions).Get([]byte(id)); v != nil {
				data = slices.Clone(v)
			}
			return nil
		})
		if err != nil {
			return model.SessionRecord{}, err
		}
	}

	if data == nil {
		return model.SessionRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return decode(data)
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]model.SessionRecord, error) {
	var raw [][]byte

	if s.db == nil {
		s.mu.RLock()
		keys := make([]string, 0, len(s.memory))
		for k := range s.memory {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		slices.Reverse(keys)
		for _, k := range keys {
			if limit > 0 && len(raw) == limit {
				break
			}
			raw = append(raw, s.memory[k])
		}
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			c := tx.Bucket(bucketSessions).Cursor()
			for k, v := c.Last(); k != nil; k, v = c.Prev() {
				if limit > 0 && len(raw) == limit {
					break
				}
				raw = append(raw, slices.Clone(v))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	records := make([]model.SessionRecord, 0, len(raw))
	for _, data := range raw {
		record, err := decode(data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes the record of one session. Unknown ids are ignored.
func (s *Store) Delete(id string) error {
	if s.db == nil {
		s.mu.Lock()
		delete(s.memory, id)
		s.mu.Unlock()
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
}

func decode(data []byte) (model.SessionRecord, error) {
	var record model.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.SessionRecord{}, fmt.Errorf("failed to decode session record: %w", err)
	}
	return record, nil
}
