// Package gnlist maintains the simplified guardian node list and verifies every change against
// the merkle root committed in the coinbase transaction of a block.
//
// A List is not safe for concurrent use. Callers must serialize ApplyDiff on the same list.
package gnlist

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/blockchain"
	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
	"github.com/guardiannet/gnlist-engine/pkg/merkle"
)

// List holds the guardian node list at BlockHash.
//
// Entries are kept sorted by key in the order used for the merkle root, including banned entries.
// A diff is staged on a copy of the entries and committed only when the resulting root matches
// the root claimed by the diff, so a rejected diff leaves the list untouched.
type List struct {
	baseBlockHash   chainhash.Hash
	blockHash       chainhash.Hash
	entries         []*Entry
	index           map[chainhash.Hash]int
	validEntries    []*Entry
	registryRoot    chainhash.Hash
	lastClaimedRoot chainhash.Hash
	commitmentTx    *blockchain.Transaction
	commitmentProof *merkle.PartialTree
}

// NewList returns an empty list.
func NewList() *List {
	return &List{
		baseBlockHash:   crypto.NullHash,
		blockHash:       crypto.NullHash,
		entries:         []*Entry{},
		index:           map[chainhash.Hash]int{},
		validEntries:    []*Entry{},
		registryRoot:    crypto.NullHash,
		lastClaimedRoot: crypto.NullHash,
	}
}

// NewListFromDiff returns a list with the full diff applied.
func NewListFromDiff(diff *Diff) (*List, error) {
	list := NewList()
	if err := list.ApplyDiff(diff); err != nil {
		return nil, err
	}
	return list, nil
}

// Clone returns a list which can be changed without changing l.
// Entries are shared since committed entries are never modified.
func (l *List) Clone() *List {
	cloned := *l
	return &cloned
}

// ApplyDiffBytes decodes the wire encoding of a diff and applies it.
func (l *List) ApplyDiffBytes(data []byte) error {
	diff, err := DecodeDiff(data)
	if err != nil {
		return err
	}
	return l.ApplyDiff(diff)
}

// ApplyDiffHex decodes hex of the wire encoding of a diff and applies it.
func (l *List) ApplyDiffHex(str string) error {
	diff, err := DecodeDiffHex(str)
	if err != nil {
		return err
	}
	return l.ApplyDiff(diff)
}

// ApplyDiff removes deleted keys, inserts or replaces upserts and verifies the resulting root
// against the claimed root of the diff.
// Deleting a key which does not exist is not an error. Continuity of diff.BaseBlockHash with the
// current block hash is not checked.
func (l *List) ApplyDiff(diff *Diff) error {
	if diff == nil {
		return fmt.Errorf("%w: diff is missing", codec.ErrInvalidData)
	}
	for i, entry := range diff.Upserts {
		if entry == nil {
			return fmt.Errorf("%w: upsert %d is missing", codec.ErrInvalidData, i)
		}
	}
	staged := l.stage(diff)
	root := calculateSortedRoot(staged)
	if root != diff.ClaimedRoot {
		return fmt.Errorf(
			"%w: calculated root %s does not match claimed root %s for block %s",
			ErrVerification,
			root,
			diff.ClaimedRoot,
			diff.BlockHash,
		)
	}
	l.commit(diff, staged, root)
	return nil
}

// stage returns the entries after the diff is applied, sorted by key.
// Committed entries are shared with the result since entries are never modified.
func (l *List) stage(diff *Diff) []*Entry {
	deleted := make(map[chainhash.Hash]struct{}, len(diff.DeletedKeys))
	for _, key := range diff.DeletedKeys {
		deleted[key] = struct{}{}
	}
	staged := make([]*Entry, 0, len(l.entries)+len(diff.Upserts))
	for _, entry := range l.entries {
		if _, ok := deleted[entry.Key()]; ok {
			continue
		}
		staged = append(staged, entry)
	}
	positions := make(map[chainhash.Hash]int, len(staged))
	for i, entry := range staged {
		positions[entry.Key()] = i
	}
	for _, entry := range diff.Upserts {
		copied := entry.Copy()
		if i, ok := positions[copied.Key()]; ok {
			staged[i] = copied
			continue
		}
		positions[copied.Key()] = len(staged)
		staged = append(staged, copied)
	}
	sortEntries(staged)
	return staged
}

func (l *List) commit(diff *Diff, staged []*Entry, root chainhash.Hash) {
	if crypto.IsNullHash(l.baseBlockHash) {
		l.baseBlockHash = diff.BaseBlockHash
	}
	l.blockHash = diff.BlockHash
	l.entries = staged
	l.index = make(map[chainhash.Hash]int, len(staged))
	l.validEntries = make([]*Entry, 0, len(staged))
	for i, entry := range staged {
		l.index[entry.Key()] = i
		if entry.IsValid {
			l.validEntries = append(l.validEntries, entry)
		}
	}
	l.registryRoot = root
	l.lastClaimedRoot = diff.ClaimedRoot
	l.commitmentTx = nil
	if diff.CoinbaseTx != nil {
		l.commitmentTx = diff.CoinbaseTx.Copy()
	}
	l.commitmentProof = nil
	if diff.CoinbaseProof != nil {
		l.commitmentProof = diff.CoinbaseProof.Copy()
	}
}

// Verify recalculates the root of the entries and compares it with the root claimed by the last
// applied diff.
func (l *List) Verify() bool {
	return calculateSortedRoot(l.entries) == l.lastClaimedRoot
}

// BaseBlockHash returns the base block hash of the first applied diff.
func (l *List) BaseBlockHash() chainhash.Hash { return l.baseBlockHash }

// BlockHash returns the block hash of the last applied diff.
func (l *List) BlockHash() chainhash.Hash { return l.blockHash }

// RegistryRoot returns the merkle root of the entries.
func (l *List) RegistryRoot() chainhash.Hash { return l.registryRoot }

// LastClaimedRoot returns the root claimed by the last applied diff.
func (l *List) LastClaimedRoot() chainhash.Hash { return l.lastClaimedRoot }

// Size returns the number of entries including banned ones.
func (l *List) Size() int { return len(l.entries) }

// Entries returns all entries including banned ones, sorted by key.
// The returned entries must not be modified.
func (l *List) Entries() []*Entry {
	result := make([]*Entry, len(l.entries))
	copy(result, l.entries)
	return result
}

// ValidEntries returns the entries which are not banned, in the order of Entries.
// The returned entries must not be modified.
func (l *List) ValidEntries() []*Entry {
	result := make([]*Entry, len(l.validEntries))
	copy(result, l.validEntries)
	return result
}

// Entry returns the entry with the key.
func (l *List) Entry(key chainhash.Hash) (*Entry, bool) {
	i, ok := l.index[key]
	if !ok {
		return nil, false
	}
	return l.entries[i], true
}

// CommitmentTx returns a copy of the coinbase transaction of the last applied diff.
func (l *List) CommitmentTx() (*blockchain.Transaction, bool) {
	if l.commitmentTx == nil {
		return nil, false
	}
	return l.commitmentTx.Copy(), true
}

// CommitmentProof returns a copy of the coinbase merkle tree of the last applied diff.
func (l *List) CommitmentProof() (*merkle.PartialTree, bool) {
	if l.commitmentProof == nil {
		return nil, false
	}
	return l.commitmentProof.Copy(), true
}
