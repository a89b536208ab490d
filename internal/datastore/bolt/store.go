// Package bolt provides a BoltDB-backed datastore.
package bolt

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/UltraSive/garage/internal/datastore"
)

const itemsBucket = "items"

// Store keeps every item in a single bucket.
type Store struct {
	db *bbolt.DB
}

var _ datastore.Datastore = (*Store)(nil)

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(itemsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(itemsBucket))
		if b == nil {
			return fmt.Errorf("items bucket is missing")
		}
		if v := b.Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	return value, found, err
}

func (s *Store) Put(key, value string) error {
	if key == "" {
		return &datastore.WriteError{Key: key, Err: fmt.Errorf("key is required")}
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(itemsBucket))
		if b == nil {
			return fmt.Errorf("items bucket is missing")
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return &datastore.WriteError{Key: key, Err: err}
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(itemsBucket))
		if b == nil {
			return fmt.Errorf("items bucket is missing")
		}
		return b.Delete([]byte(key))
	})
}

// Clear drops and recreates the items bucket.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(itemsBucket)) != nil {
			if err := tx.DeleteBucket([]byte(itemsBucket)); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucket([]byte(itemsBucket))
		return err
	})
}

func (s *Store) List() (map[string]string, error) {
	out := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(itemsBucket))
		if b == nil {
			return fmt.Errorf("items bucket is missing")
		}
		return b.ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
