// Package db implements key-value database functionality with prefix feature.
package db

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/guardiannet/gnlist-engine/pkg/collection/bytes"
)

var (
	ErrDataNotFound = errors.New("data was not found")
)

// upperBound returns the smallest key greater than every key with the prefix b,
// or nil when no such key exists.
func upperBound(b []byte) []byte {
	end := bytes.Copy(b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

type KeyValue interface {
	Key() []byte
	Value() []byte
}

type keyValue struct {
	key   []byte
	value []byte
}

func (k *keyValue) Key() []byte   { return k.key }
func (k *keyValue) Value() []byte { return k.value }

// DB is a pebble database. Writes go through a Batch so that related keys change together.
type DB struct {
	pebbleDB *pebble.DB
}

// NewDB opens or creates the database at path.
func NewDB(path string) (*DB, error) {
	return open(path, &pebble.Options{})
}

func open(path string, opts *pebble.Options) (*DB, error) {
	pebbleDB, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &DB{pebbleDB: pebbleDB}, nil
}

func (db *DB) Close() error {
	return db.pebbleDB.Close()
}

// Get returns a copy of the value stored at key, or ErrDataNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	data, closer, err := db.pebbleDB.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrDataNotFound
	}
	if err != nil {
		return nil, err
	}
	copied := bytes.Copy(data)
	return copied, closer.Close()
}

// IterateKey returns up to limit keys with the prefix in ascending order, or descending when
// reverse is set. A limit of -1 returns every key.
func (db *DB) IterateKey(prefix []byte, limit int, reverse bool) ([][]byte, error) {
	return iterateKeyPrefix(db.prefixIter(prefix), limit, reverse)
}

// Iterate returns up to limit key value pairs with the prefix, with the same ordering as IterateKey.
func (db *DB) Iterate(prefix []byte, limit int, reverse bool) ([]KeyValue, error) {
	return iteratePrefix(db.prefixIter(prefix), limit, reverse)
}

func (db *DB) prefixIter(prefix []byte) *pebble.Iterator {
	return db.pebbleDB.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
}

func (db *DB) NewBatch() *Batch {
	return &Batch{
		inner: db.pebbleDB.NewBatch(),
		mutex: new(sync.Mutex),
	}
}

// Write commits the batch atomically.
func (db *DB) Write(batch *Batch) error {
	return db.pebbleDB.Apply(batch.inner, pebble.Sync)
}

// DropPrefix removes every key with the prefix.
func (db *DB) DropPrefix(prefix []byte) error {
	end := upperBound(prefix)
	if end == nil {
		end = []byte{255}
	}
	return db.pebbleDB.DeleteRange(prefix, end, pebble.Sync)
}
