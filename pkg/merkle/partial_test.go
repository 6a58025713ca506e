package merkle

import (
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
)

func randomHashes(size int) []chainhash.Hash {
	hashes := make([]chainhash.Hash, size)
	for i := range hashes {
		hashes[i] = crypto.RandomHash()
	}
	return hashes
}

func TestPartialTreeExtractMatches(t *testing.T) {
	cases := []struct {
		size    int
		matches []int
	}{
		{size: 1, matches: []int{0}},
		{size: 2, matches: []int{0}},
		{size: 3, matches: []int{0}},
		{size: 7, matches: []int{0, 6}},
		{size: 16, matches: []int{3, 4, 5}},
		{size: 33, matches: []int{32}},
		{size: 9, matches: []int{}},
	}

	for _, tc := range cases {
		txHashes := randomHashes(tc.size)
		flags := make([]bool, tc.size)
		for _, idx := range tc.matches {
			flags[idx] = true
		}
		tree := NewPartialTree(txHashes, flags)

		root, matches, err := tree.ExtractMatches()
		assert.NoError(t, err)
		assert.Equal(t, CalculateRoot(txHashes), root)
		assert.Len(t, matches, len(tc.matches))
		for i, idx := range tc.matches {
			assert.Equal(t, txHashes[idx], matches[i].Hash)
			assert.Equal(t, uint32(idx), matches[i].Index)
		}
	}
}

func TestPartialTreeCodec(t *testing.T) {
	txHashes := randomHashes(5)
	tree := NewPartialTree(txHashes, []bool{true, false, false, false, false})

	encoded := tree.Encode()
	decoded, err := DecodePartialTree(encoded)
	assert.NoError(t, err)
	assert.Equal(t, tree, decoded)

	// truncated in the middle of the hashes
	_, err = DecodePartialTree(encoded[:10])
	assert.ErrorIs(t, err, codec.ErrFormat)

	// trailing data
	_, err = DecodePartialTree(append(encoded, 0x00))
	assert.ErrorIs(t, err, codec.ErrUnreadBytes)

	// nested decode leaves reader at the end of the tree
	reader := codec.NewReader(append(tree.Encode(), 0xaa))
	nested := &PartialTree{}
	assert.NoError(t, reader.ReadDecodable(nested))
	last, err := reader.ReadUInt8()
	assert.NoError(t, err)
	assert.Equal(t, uint8(0xaa), last)
}

func TestPartialTreeCopy(t *testing.T) {
	tree := NewPartialTree(randomHashes(4), []bool{true, false, false, false})
	copied := tree.Copy()
	assert.Equal(t, tree, copied)

	copied.Hashes[0] = crypto.RandomHash()
	copied.Flags[0] = 0xff
	assert.NotEqual(t, tree.Hashes[0], copied.Hashes[0])
	assert.NotEqual(t, tree.Flags[0], copied.Flags[0])
}

func TestPartialTreeJSON(t *testing.T) {
	tree := NewPartialTree(randomHashes(3), []bool{true, false, false})
	encoded, err := json.Marshal(tree)
	assert.NoError(t, err)
	assert.Equal(t, `"`+tree.String()+`"`, string(encoded))

	decoded := &PartialTree{}
	assert.NoError(t, json.Unmarshal(encoded, decoded))
	assert.Equal(t, tree, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"zz"`), decoded))
}

func TestPartialTreeInvalid(t *testing.T) {
	tree := NewPartialTree(randomHashes(4), []bool{true, false, false, false})

	empty := &PartialTree{}
	_, _, err := empty.ExtractMatches()
	assert.ErrorIs(t, err, ErrInvalidProof)

	tooManyHashes := tree.Copy()
	tooManyHashes.Hashes = append(tooManyHashes.Hashes, randomHashes(5)...)
	_, _, err = tooManyHashes.ExtractMatches()
	assert.ErrorIs(t, err, ErrInvalidProof)

	extraHash := tree.Copy()
	extraHash.Hashes = append(extraHash.Hashes, crypto.RandomHash())
	_, _, err = extraHash.ExtractMatches()
	assert.ErrorIs(t, err, ErrInvalidProof)

	extraFlags := tree.Copy()
	extraFlags.Flags = append(extraFlags.Flags, 0x00)
	_, _, err = extraFlags.ExtractMatches()
	assert.ErrorIs(t, err, ErrInvalidProof)

	missingHash := tree.Copy()
	missingHash.Hashes = missingHash.Hashes[:len(missingHash.Hashes)-1]
	_, _, err = missingHash.ExtractMatches()
	assert.ErrorIs(t, err, ErrInvalidProof)
}
