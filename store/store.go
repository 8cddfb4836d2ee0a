// Package store persists playground drafts and preferences in a bbolt file.
// It stands in for the browser's local storage: each visitor gets a nested
// bucket, and the terminal playground uses the local one.
package store

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNoKey is returned by (*Bucket).Get when the key has no value.
var ErrNoKey = errors.New("no such key")

const (
	bucketVisitors = "visitors"
	// LocalID names the bucket used outside a browser.
	LocalID = "local"
)

var initDB = map[string]func(*bolt.Tx) error{
	"initialize visitor table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketVisitors))
		return err
	},
}

// DB is an open store file.
type DB struct {
	db *bolt.DB
}

// Open opens or creates the store at path.  It waits at most one second
// for another process holding the file lock.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close closes the file.
func (s *DB) Close() error { return s.db.Close() }

// Bucket returns the key-value view for visitor id.  The nested bucket is
// created on first write.
func (s *DB) Bucket(id string) *Bucket { return &Bucket{db: s.db, id: []byte(id)} }

// Visitors returns the number of visitors with stored values.
func (s *DB) Visitors() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketVisitors)).Stats().BucketN - 1
		return nil
	})
	return n, err
}

// Bucket is one visitor's key-value storage.
type Bucket struct {
	db *bolt.DB
	id []byte
}

// Get returns the value of key, or ErrNoKey.
func (b *Bucket) Get(key string) (string, error) {
	var value string
	err := b.db.View(func(tx *bolt.Tx) error {
		vb := tx.Bucket([]byte(bucketVisitors)).Bucket(b.id)
		if vb == nil {
			return ErrNoKey
		}
		v := vb.Get([]byte(key))
		if v == nil {
			return ErrNoKey
		}
		value = string(v)
		return nil
	})
	return value, err
}

// Set stores value under key.
func (b *Bucket) Set(key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		vb, err := tx.Bucket([]byte(bucketVisitors)).CreateBucketIfNotExists(b.id)
		if err != nil {
			return err
		}
		return vb.Put([]byte(key), []byte(value))
	})
}

// Delete removes key.  Deleting a missing key is not an error.
func (b *Bucket) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		vb := tx.Bucket([]byte(bucketVisitors)).Bucket(b.id)
		if vb == nil {
			return nil
		}
		return vb.Delete([]byte(key))
	})
}
