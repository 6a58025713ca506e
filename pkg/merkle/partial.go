package merkle

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/collection/bytes"
)

// PartialTree is a pruned merkle tree which proves that a subset of transactions is committed in
// a block merkle root.
type PartialTree struct {
	TotalTransactions uint32
	Hashes            []chainhash.Hash
	// Flags are traversal bits packed least significant bit first.
	Flags []byte
}

// NewPartialTree builds a partial tree over txHashes proving the ones whose matches flag is set.
func NewPartialTree(txHashes []chainhash.Hash, matches []bool) *PartialTree {
	builder := &partialBuilder{
		txHashes: txHashes,
		matches:  matches,
	}
	height := treeHeight(uint32(len(txHashes)))
	if len(txHashes) > 0 {
		builder.build(height, 0)
	}
	return &PartialTree{
		TotalTransactions: uint32(len(txHashes)),
		Hashes:            builder.hashes,
		Flags:             bytes.FromBools(builder.bits),
	}
}

// DecodePartialTree decodes a partial tree and requires that all bytes are consumed.
func DecodePartialTree(data []byte) (*PartialTree, error) {
	tree := &PartialTree{}
	if err := codec.Decode(data, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// DecodeFromReader reads the self-delimiting encoding of the tree.
func (p *PartialTree) DecodeFromReader(reader *codec.Reader) error {
	total, err := reader.ReadUInt32()
	if err != nil {
		return fmt.Errorf("reading total transactions: %w", err)
	}
	hashCount, err := reader.ReadCount(chainhash.HashSize)
	if err != nil {
		return fmt.Errorf("reading hash count: %w", err)
	}
	hashes := make([]chainhash.Hash, hashCount)
	for i := range hashes {
		if hashes[i], err = reader.ReadHash(); err != nil {
			return err
		}
	}
	flags, err := reader.ReadVarBytes()
	if err != nil {
		return fmt.Errorf("reading flags: %w", err)
	}
	p.TotalTransactions = total
	p.Hashes = hashes
	p.Flags = flags
	return nil
}

// Encode returns the self-delimiting encoding of the tree.
func (p *PartialTree) Encode() []byte {
	writer := codec.NewWriter()
	writer.WriteUInt32(p.TotalTransactions)
	writer.WriteVarInt(uint64(len(p.Hashes)))
	for _, h := range p.Hashes {
		writer.WriteHash(h)
	}
	writer.WriteVarBytes(p.Flags)
	return writer.Result()
}

// Copy returns a deep copy of the tree.
func (p *PartialTree) Copy() *PartialTree {
	hashes := make([]chainhash.Hash, len(p.Hashes))
	copy(hashes, p.Hashes)
	flags := make([]byte, len(p.Flags))
	copy(flags, p.Flags)
	return &PartialTree{
		TotalTransactions: p.TotalTransactions,
		Hashes:            hashes,
		Flags:             flags,
	}
}

// String returns hex of the encoding.
func (p *PartialTree) String() string {
	return hex.EncodeToString(p.Encode())
}

// MarshalJSON encodes the partial tree as hex of its encoding.
func (p *PartialTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes the partial tree from a hex string.
func (p *PartialTree) UnmarshalJSON(b []byte) error {
	data := codec.Hex{}
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	decoded, err := DecodePartialTree(data)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// Match is a transaction proven by a partial tree.
type Match struct {
	Hash  chainhash.Hash
	Index uint32
}

// ExtractMatches traverses the tree and returns the merkle root it commits to together with the
// matched transactions in tree order.
func (p *PartialTree) ExtractMatches() (chainhash.Hash, []Match, error) {
	if p.TotalTransactions == 0 {
		return chainhash.Hash{}, nil, fmt.Errorf("%w: no transactions", ErrInvalidProof)
	}
	if uint64(len(p.Hashes)) > uint64(p.TotalTransactions) {
		return chainhash.Hash{}, nil, fmt.Errorf("%w: %d hashes for %d transactions", ErrInvalidProof, len(p.Hashes), p.TotalTransactions)
	}
	if len(p.Flags)*8 < len(p.Hashes) {
		return chainhash.Hash{}, nil, fmt.Errorf("%w: fewer flag bits than hashes", ErrInvalidProof)
	}
	extractor := &partialExtractor{tree: p}
	root, err := extractor.extract(treeHeight(p.TotalTransactions), 0)
	if err != nil {
		return chainhash.Hash{}, nil, err
	}
	if (extractor.bitsUsed+7)/8 != len(p.Flags) {
		return chainhash.Hash{}, nil, fmt.Errorf("%w: not all flag bytes were consumed", ErrInvalidProof)
	}
	if extractor.hashesUsed != len(p.Hashes) {
		return chainhash.Hash{}, nil, fmt.Errorf("%w: not all hashes were consumed", ErrInvalidProof)
	}
	return root, extractor.matches, nil
}

func treeWidth(total uint32, height uint32) uint32 {
	return uint32((uint64(total) + (1 << height) - 1) >> height)
}

func treeHeight(total uint32) uint32 {
	height := uint32(0)
	for treeWidth(total, height) > 1 {
		height++
	}
	return height
}

type partialBuilder struct {
	txHashes []chainhash.Hash
	matches  []bool
	bits     []bool
	hashes   []chainhash.Hash
}

func (b *partialBuilder) total() uint32 {
	return uint32(len(b.txHashes))
}

func (b *partialBuilder) build(height, pos uint32) {
	parentOfMatch := false
	for p := uint64(pos) << height; p < uint64(pos+1)<<height && p < uint64(b.total()); p++ {
		if p < uint64(len(b.matches)) && b.matches[p] {
			parentOfMatch = true
			break
		}
	}
	b.bits = append(b.bits, parentOfMatch)
	if height == 0 || !parentOfMatch {
		b.hashes = append(b.hashes, b.hash(height, pos))
		return
	}
	b.build(height-1, pos*2)
	if pos*2+1 < treeWidth(b.total(), height-1) {
		b.build(height-1, pos*2+1)
	}
}

func (b *partialBuilder) hash(height, pos uint32) chainhash.Hash {
	if height == 0 {
		return b.txHashes[pos]
	}
	left := b.hash(height-1, pos*2)
	right := left
	if pos*2+1 < treeWidth(b.total(), height-1) {
		right = b.hash(height-1, pos*2+1)
	}
	return branchHash(left, right)
}

type partialExtractor struct {
	tree       *PartialTree
	bitsUsed   int
	hashesUsed int
	matches    []Match
}

func (e *partialExtractor) extract(height, pos uint32) (chainhash.Hash, error) {
	if e.bitsUsed >= len(e.tree.Flags)*8 {
		return chainhash.Hash{}, fmt.Errorf("%w: overflowed the flag bits", ErrInvalidProof)
	}
	parentOfMatch := bytes.IsBitSet(e.tree.Flags, e.bitsUsed)
	e.bitsUsed++
	if height == 0 || !parentOfMatch {
		if e.hashesUsed >= len(e.tree.Hashes) {
			return chainhash.Hash{}, fmt.Errorf("%w: overflowed the hash array", ErrInvalidProof)
		}
		h := e.tree.Hashes[e.hashesUsed]
		e.hashesUsed++
		if height == 0 && parentOfMatch {
			e.matches = append(e.matches, Match{Hash: h, Index: pos})
		}
		return h, nil
	}
	left, err := e.extract(height-1, pos*2)
	if err != nil {
		return chainhash.Hash{}, err
	}
	right := left
	if pos*2+1 < treeWidth(e.tree.TotalTransactions, height-1) {
		right, err = e.extract(height-1, pos*2+1)
		if err != nil {
			return chainhash.Hash{}, err
		}
		// identical siblings would allow two different trees with the same root
		if right == left {
			return chainhash.Hash{}, fmt.Errorf("%w: duplicate sibling hashes", ErrInvalidProof)
		}
	}
	return branchHash(left, right), nil
}
