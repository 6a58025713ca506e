package gnlist

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/collection/bytes"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
	"github.com/guardiannet/gnlist-engine/pkg/merkle"
)

// CalculateMerkleRoot returns the root committed for the entries regardless of their order.
// Leaves are the entry hashes sorted by key in internal byte order, which is the reverse of the
// key display string. The entries slice is not modified.
func CalculateMerkleRoot(entries []*Entry) chainhash.Hash {
	if len(entries) == 0 {
		return crypto.NullHash
	}
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)
	return calculateSortedRoot(sorted)
}

func calculateSortedRoot(sorted []*Entry) chainhash.Hash {
	if len(sorted) == 0 {
		return crypto.NullHash
	}
	leaves := make([]chainhash.Hash, len(sorted))
	for i, entry := range sorted {
		leaves[i] = entry.Hash()
	}
	return merkle.BuildTree(leaves).Root()
}

func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Key(), entries[j].Key()
		return bytes.Compare(a[:], b[:]) < 0
	})
}
