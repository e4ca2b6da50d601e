// Package bolt implements the task and profile stores on an embedded BoltDB
// file. Change notices travel through an in-process feed, so subscriptions
// only see writes made by this process.
package bolt

import (
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketTasks      = []byte("tasks")
	bucketTaskIndex  = []byte("tasks_by_owner_date")
	bucketProfiles   = []byte("profiles")
	requiredBuckets  = [][]byte{bucketTasks, bucketTaskIndex, bucketProfiles}
	defaultOpenLimit = time.Second
)

// DB owns the Bolt file shared by the task and profile stores.
type DB struct {
	db *bbolt.DB
}

// Open initializes the Bolt file and ensures every bucket exists.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: defaultOpenLimit})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range requiredBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close closes the Bolt database.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// TaskCount returns the number of stored tasks.
func (d *DB) TaskCount() (int, error) {
	if d == nil || d.db == nil {
		return 0, bbolt.ErrDatabaseNotOpen
	}
	var count int
	err := d.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketTasks).Stats().KeyN
		return nil
	})
	return count, err
}

// Ping reports whether the file is open and readable.
func (d *DB) Ping() error {
	if d == nil || d.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return d.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketTasks) == nil {
			return bbolt.ErrBucketNotFound
		}
		return nil
	})
}
