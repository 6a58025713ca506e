package gnsync

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/collection/bytes"
	"github.com/guardiannet/gnlist-engine/pkg/db"
	"github.com/guardiannet/gnlist-engine/pkg/gnlist"
)

// DBPrefix is the first byte of every key written by the syncer.
type DBPrefix byte

const (
	// sequence => diff
	DBPrefixDiff DBPrefix = 1
	// block hash => sequence
	DBPrefixBlockHash DBPrefix = 2
	// snapshot of the latest list
	DBPrefixSnapshot DBPrefix = 3
)

func DBPrefixToBytes(prefix DBPrefix) []byte {
	return []byte{byte(prefix)}
}

func sequenceToBytes(sequence uint64) []byte {
	result := make([]byte, 8)
	binary.BigEndian.PutUint64(result, sequence)
	return result
}

func diffKey(sequence uint64) []byte {
	return bytes.Join(DBPrefixToBytes(DBPrefixDiff), sequenceToBytes(sequence))
}

func blockHashKey(blockHash chainhash.Hash) []byte {
	return bytes.Join(DBPrefixToBytes(DBPrefixBlockHash), blockHash[:])
}

func snapshotKey() []byte {
	return DBPrefixToBytes(DBPrefixSnapshot)
}

// Store persists applied diffs in apply order and the snapshot of the latest list.
type Store struct {
	database *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{database: database}
}

// LastSequence returns the sequence of the last saved diff, or false if no diff was saved.
func (s *Store) LastSequence() (uint64, bool, error) {
	keys, err := s.database.IterateKey(DBPrefixToBytes(DBPrefixDiff), 1, true)
	if err != nil {
		return 0, false, err
	}
	if len(keys) == 0 {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(keys[0][1:]), true, nil
}

// Save writes the applied diff under sequence and replaces the snapshot atomically.
func (s *Store) Save(sequence uint64, diff *gnlist.Diff, snapshot *gnlist.Diff) error {
	encodedDiff, err := diff.Encode()
	if err != nil {
		return err
	}
	encodedSnapshot, err := snapshot.Encode()
	if err != nil {
		return err
	}
	batch := s.database.NewBatch()
	if err := batch.Set(diffKey(sequence), encodedDiff); err != nil {
		return err
	}
	if err := batch.Set(blockHashKey(diff.BlockHash), sequenceToBytes(sequence)); err != nil {
		return err
	}
	if err := batch.Set(snapshotKey(), encodedSnapshot); err != nil {
		return err
	}
	return s.database.Write(batch)
}

// Snapshot returns the snapshot of the latest list.
func (s *Store) Snapshot() (*gnlist.Diff, error) {
	encoded, err := s.database.Get(snapshotKey())
	if err != nil {
		if errors.Is(err, db.ErrDataNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return gnlist.DecodeDiff(encoded)
}

// DiffByBlockHash returns the applied diff which moved the list to blockHash.
func (s *Store) DiffByBlockHash(blockHash chainhash.Hash) (*gnlist.Diff, error) {
	sequence, err := s.database.Get(blockHashKey(blockHash))
	if err != nil {
		return nil, err
	}
	encoded, err := s.database.Get(bytes.Join(DBPrefixToBytes(DBPrefixDiff), sequence))
	if err != nil {
		return nil, fmt.Errorf("diff for block %s is indexed but missing: %w", blockHash, err)
	}
	return gnlist.DecodeDiff(encoded)
}

// Diffs returns up to limit applied diffs in apply order. A limit of -1 returns every diff.
func (s *Store) Diffs(limit int) ([]*gnlist.Diff, error) {
	kvs, err := s.database.Iterate(DBPrefixToBytes(DBPrefixDiff), limit, false)
	if err != nil {
		return nil, err
	}
	payloads := make([][]byte, len(kvs))
	for i, kv := range kvs {
		payloads[i] = kv.Value()
	}
	return gnlist.DecodeDiffs(payloads)
}

// Clear removes every diff and the snapshot.
func (s *Store) Clear() error {
	for _, prefix := range []DBPrefix{DBPrefixDiff, DBPrefixBlockHash, DBPrefixSnapshot} {
		if err := s.database.DropPrefix(DBPrefixToBytes(prefix)); err != nil {
			return err
		}
	}
	return nil
}
