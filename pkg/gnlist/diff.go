package gnlist

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/sync/errgroup"

	"github.com/guardiannet/gnlist-engine/pkg/blockchain"
	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
	"github.com/guardiannet/gnlist-engine/pkg/merkle"
)

// Diff describes the transition of the list from BaseBlockHash to BlockHash.
type Diff struct {
	BaseBlockHash chainhash.Hash
	BlockHash     chainhash.Hash
	CoinbaseTx    *blockchain.Transaction
	// CoinbaseProof proves CoinbaseTx is included in the block with BlockHash.
	CoinbaseProof *merkle.PartialTree
	DeletedKeys   []chainhash.Hash
	Upserts       []*Entry
	// ClaimedRoot is the root the list must have after the diff is applied.
	// Decoded diffs take it from the coinbase payload; it is not part of the encoding.
	ClaimedRoot chainhash.Hash
}

// DiffParts is the structured representation of a diff with hashes as display strings.
type DiffParts struct {
	BaseBlockHash string                  `json:"baseBlockHash"`
	BlockHash     string                  `json:"blockHash"`
	CoinbaseTx    *blockchain.Transaction `json:"cbTx"`
	CoinbaseProof *merkle.PartialTree     `json:"cbTxMerkleTree"`
	DeletedKeys   []string                `json:"deletedGNs"`
	Upserts       []*Entry                `json:"gnList"`
	ClaimedRoot   string                  `json:"merkleRootGNList,omitempty"`
}

// DecodeDiff decodes a diff from its wire encoding.
func DecodeDiff(data []byte) (*Diff, error) {
	diff := &Diff{}
	if err := codec.Decode(data, diff); err != nil {
		return nil, err
	}
	return diff, nil
}

// DecodeDiffHex decodes a diff from hex of its wire encoding.
func DecodeDiffHex(str string) (*Diff, error) {
	data, err := codec.DecodeHex(str)
	if err != nil {
		return nil, err
	}
	return DecodeDiff(data)
}

// DecodeDiffs decodes independent payloads concurrently. The result keeps the order of payloads.
func DecodeDiffs(payloads [][]byte) ([]*Diff, error) {
	eg := new(errgroup.Group)
	diffs := make([]*Diff, len(payloads))
	for i, payload := range payloads {
		i, payload := i, payload // https://golang.org/doc/faq#closures_and_goroutines
		eg.Go(func() error {
			diff, err := DecodeDiff(payload)
			if err != nil {
				return fmt.Errorf("decoding diff %d: %w", i, err)
			}
			diffs[i] = diff
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return diffs, nil
}

// DecodeFromReader reads the wire encoding of the diff.
func (d *Diff) DecodeFromReader(reader *codec.Reader) error {
	var err error
	if d.BaseBlockHash, err = reader.ReadHash(); err != nil {
		return fmt.Errorf("reading baseBlockHash: %w", err)
	}
	if d.BlockHash, err = reader.ReadHash(); err != nil {
		return fmt.Errorf("reading blockHash: %w", err)
	}
	proof := &merkle.PartialTree{}
	if err := reader.ReadDecodable(proof); err != nil {
		return fmt.Errorf("reading coinbase merkle tree: %w", err)
	}
	tx := &blockchain.Transaction{}
	if err := reader.ReadDecodable(tx); err != nil {
		return fmt.Errorf("reading coinbase transaction: %w", err)
	}

	deletedCount, err := reader.ReadCount(chainhash.HashSize)
	if err != nil {
		return fmt.Errorf("reading deleted count: %w", err)
	}
	deleted := make([]chainhash.Hash, deletedCount)
	for i := range deleted {
		if deleted[i], err = reader.ReadHash(); err != nil {
			return err
		}
	}

	upsertCount, err := reader.ReadCount(EntrySize)
	if err != nil {
		return fmt.Errorf("reading entry count: %w", err)
	}
	upserts := make([]*Entry, upsertCount)
	for i := range upserts {
		entry := &Entry{}
		if err := reader.ReadDecodable(entry); err != nil {
			return fmt.Errorf("reading entry %d: %w", i, err)
		}
		upserts[i] = entry
	}

	claimedRoot, err := tx.MerkleRootGNList()
	if err != nil {
		return fmt.Errorf("reading claimed root from coinbase: %w", err)
	}

	d.CoinbaseProof = proof
	d.CoinbaseTx = tx
	d.DeletedKeys = deleted
	d.Upserts = upserts
	d.ClaimedRoot = claimedRoot
	return nil
}

// Encode returns the wire encoding of the diff.
func (d *Diff) Encode() ([]byte, error) {
	if d.CoinbaseTx == nil || d.CoinbaseProof == nil {
		return nil, fmt.Errorf("%w: diff without coinbase transaction or merkle tree cannot be encoded", codec.ErrInvalidData)
	}
	for i, entry := range d.Upserts {
		if entry == nil {
			return nil, fmt.Errorf("%w: upsert %d is missing", codec.ErrInvalidData, i)
		}
	}
	writer := codec.NewWriter()
	writer.WriteHash(d.BaseBlockHash)
	writer.WriteHash(d.BlockHash)
	writer.WriteEncodable(d.CoinbaseProof)
	writer.WriteEncodable(d.CoinbaseTx)
	writer.WriteVarInt(uint64(len(d.DeletedKeys)))
	for _, key := range d.DeletedKeys {
		writer.WriteHash(key)
	}
	writer.WriteVarInt(uint64(len(d.Upserts)))
	for _, entry := range d.Upserts {
		writer.WriteEncodable(entry)
	}
	return writer.Result(), nil
}

// Hex returns hex of the wire encoding.
func (d *Diff) Hex() (string, error) {
	encoded, err := d.Encode()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(encoded), nil
}

// Copy returns a clone by encoding and decoding the diff.
// ClaimedRoot of the clone is taken from the coinbase transaction.
func (d *Diff) Copy() (*Diff, error) {
	encoded, err := d.Encode()
	if err != nil {
		return nil, err
	}
	return DecodeDiff(encoded)
}

// NewDiffFromParts builds a diff from its structured representation.
// Only the shape of the fields is checked. An empty claimed root is the null hash.
func NewDiffFromParts(parts *DiffParts) (*Diff, error) {
	if parts.CoinbaseTx == nil {
		return nil, fmt.Errorf("%w: cbTx is missing", codec.ErrInvalidData)
	}
	if parts.CoinbaseProof == nil {
		return nil, fmt.Errorf("%w: cbTxMerkleTree is missing", codec.ErrInvalidData)
	}
	baseBlockHash, err := crypto.HashFromString(parts.BaseBlockHash)
	if err != nil {
		return nil, fmt.Errorf("baseBlockHash: %w", err)
	}
	blockHash, err := crypto.HashFromString(parts.BlockHash)
	if err != nil {
		return nil, fmt.Errorf("blockHash: %w", err)
	}
	deleted, err := crypto.HashesFromStrings(parts.DeletedKeys)
	if err != nil {
		return nil, fmt.Errorf("deletedGNs: %w", err)
	}
	claimedRoot := crypto.NullHash
	if parts.ClaimedRoot != "" {
		if claimedRoot, err = crypto.HashFromString(parts.ClaimedRoot); err != nil {
			return nil, fmt.Errorf("merkleRootGNList: %w", err)
		}
	}
	upserts := make([]*Entry, len(parts.Upserts))
	for i, entry := range parts.Upserts {
		if entry == nil {
			return nil, fmt.Errorf("%w: gnList entry %d is missing", codec.ErrInvalidData, i)
		}
		upserts[i] = entry.Copy()
	}
	return &Diff{
		BaseBlockHash: baseBlockHash,
		BlockHash:     blockHash,
		CoinbaseTx:    parts.CoinbaseTx.Copy(),
		CoinbaseProof: parts.CoinbaseProof.Copy(),
		DeletedKeys:   deleted,
		Upserts:       upserts,
		ClaimedRoot:   claimedRoot,
	}, nil
}

// Parts returns the structured representation of the diff. Nested values are copied.
func (d *Diff) Parts() *DiffParts {
	parts := &DiffParts{
		BaseBlockHash: d.BaseBlockHash.String(),
		BlockHash:     d.BlockHash.String(),
		DeletedKeys:   crypto.HashesToStrings(d.DeletedKeys),
		Upserts:       make([]*Entry, len(d.Upserts)),
		ClaimedRoot:   d.ClaimedRoot.String(),
	}
	if d.CoinbaseTx != nil {
		parts.CoinbaseTx = d.CoinbaseTx.Copy()
	}
	if d.CoinbaseProof != nil {
		parts.CoinbaseProof = d.CoinbaseProof.Copy()
	}
	for i, entry := range d.Upserts {
		parts.Upserts[i] = entry.Copy()
	}
	return parts
}

// VerifyCoinbaseInclusion checks that CoinbaseProof commits to blockMerkleRoot and proves
// CoinbaseTx as the first transaction of the block.
func (d *Diff) VerifyCoinbaseInclusion(blockMerkleRoot chainhash.Hash) error {
	if d.CoinbaseTx == nil || d.CoinbaseProof == nil {
		return fmt.Errorf("%w: diff has no coinbase commitment", ErrVerification)
	}
	root, matches, err := d.CoinbaseProof.ExtractMatches()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrVerification, err.Error())
	}
	if root != blockMerkleRoot {
		return fmt.Errorf("%w: coinbase merkle tree has root %s but block has %s", ErrVerification, root, blockMerkleRoot)
	}
	txHash := d.CoinbaseTx.Hash()
	for _, match := range matches {
		if match.Index == 0 && match.Hash == txHash {
			return nil
		}
	}
	return fmt.Errorf("%w: coinbase transaction %s is not proven by the merkle tree", ErrVerification, txHash)
}
