package db

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// NewInMemoryDB returns new instance of in-memory db. Every instance has its own file system.
func NewInMemoryDB() (*DB, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}
