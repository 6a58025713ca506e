package gnlist

import (
	"encoding/hex"
	"encoding/json"
	"net/netip"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiannet/gnlist-engine/pkg/blockchain"
	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
)

var addrPortComparer = cmp.Comparer(func(a, b netip.AddrPort) bool { return a == b })

func createRandomDiff() *Diff {
	upserts := createRandomEntries(5)
	deleted := []chainhash.Hash{crypto.RandomHash(), crypto.RandomHash()}
	return createDiff(crypto.RandomHash(), crypto.RandomHash(), deleted, upserts, CalculateMerkleRoot(upserts))
}

func TestDiffCodec(t *testing.T) {
	diff := createRandomDiff()
	encoded, err := diff.Encode()
	require.NoError(t, err)

	decoded, err := DecodeDiff(encoded)
	require.NoError(t, err)
	if d := cmp.Diff(diff, decoded, addrPortComparer); d != "" {
		t.Errorf("decoded diff mismatch (-want +got):\n%s", d)
	}

	reencoded, err := decoded.Encode()
	assert.NoError(t, err)
	assert.Equal(t, encoded, reencoded)

	// hashes are stored in internal order, the reverse of the display string
	assert.Equal(t, hex.EncodeToString(diff.BaseBlockHash[:]), hex.EncodeToString(encoded[:32]))
	assert.Equal(t, diff.BlockHash[:], encoded[32:64])
}

func TestDiffClaimedRootFromCoinbase(t *testing.T) {
	diff := createRandomDiff()
	committed := diff.ClaimedRoot
	// the claimed root of a structured diff is not encoded
	diff.ClaimedRoot = crypto.RandomHash()
	encoded, err := diff.Encode()
	require.NoError(t, err)

	decoded, err := DecodeDiff(encoded)
	require.NoError(t, err)
	assert.Equal(t, committed, decoded.ClaimedRoot)
}

func TestDiffDecodeInvalid(t *testing.T) {
	diff := createRandomDiff()
	encoded, err := diff.Encode()
	require.NoError(t, err)

	for i := 0; i < len(encoded); i++ {
		_, err := DecodeDiff(encoded[:i])
		assert.ErrorIs(t, err, ErrFormat, "prefix of length %d must fail", i)
	}

	_, err = DecodeDiff(append(encoded, 0x00))
	assert.ErrorIs(t, err, codec.ErrUnreadBytes)

	// entry count which cannot fit in the remaining data
	noEntries := createDiff(crypto.RandomHash(), crypto.RandomHash(), nil, nil, crypto.NullHash)
	encoded, err = noEntries.Encode()
	require.NoError(t, err)
	encoded[len(encoded)-1] = 0x02
	_, err = DecodeDiff(append(encoded, make([]byte, EntrySize)...))
	assert.ErrorIs(t, err, codec.ErrOutOfRange)

	// coinbase without payload
	notCoinbase := createRandomDiff()
	notCoinbase.CoinbaseTx = &blockchain.Transaction{Version: 2, Inputs: []*blockchain.TxIn{}, Outputs: []*blockchain.TxOut{}}
	encoded, err = notCoinbase.Encode()
	require.NoError(t, err)
	_, err = DecodeDiff(encoded)
	assert.ErrorIs(t, err, codec.ErrInvalidData)

	_, err = (&Diff{}).Encode()
	assert.ErrorIs(t, err, codec.ErrInvalidData)

	missingUpsert := createRandomDiff()
	missingUpsert.Upserts = append(missingUpsert.Upserts, nil)
	assert.NotPanics(t, func() {
		_, err = missingUpsert.Encode()
	})
	assert.ErrorIs(t, err, codec.ErrInvalidData)
}

func TestDiffHex(t *testing.T) {
	diff := createRandomDiff()
	str, err := diff.Hex()
	require.NoError(t, err)

	decoded, err := DecodeDiffHex(str)
	require.NoError(t, err)
	assert.Equal(t, diff.BlockHash, decoded.BlockHash)
	assert.Equal(t, keys(diff.Upserts), keys(decoded.Upserts))

	_, err = DecodeDiffHex("zz" + str)
	assert.ErrorIs(t, err, codec.ErrInvalidHex)
	_, err = DecodeDiffHex(str[:len(str)-1])
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDiffCopy(t *testing.T) {
	diff := createRandomDiff()
	copied, err := diff.Copy()
	require.NoError(t, err)
	if d := cmp.Diff(diff, copied, addrPortComparer); d != "" {
		t.Errorf("copied diff mismatch (-want +got):\n%s", d)
	}

	copied.Upserts[0].IsValid = !copied.Upserts[0].IsValid
	copied.DeletedKeys[0] = crypto.RandomHash()
	copied.CoinbaseTx.LockTime++
	copied.CoinbaseProof.Hashes[0] = crypto.RandomHash()
	assert.NotEqual(t, diff.Upserts[0].IsValid, copied.Upserts[0].IsValid)
	assert.NotEqual(t, diff.DeletedKeys[0], copied.DeletedKeys[0])
	assert.NotEqual(t, diff.CoinbaseTx.LockTime, copied.CoinbaseTx.LockTime)
	assert.NotEqual(t, diff.CoinbaseProof.Hashes[0], copied.CoinbaseProof.Hashes[0])
}

func TestDiffParts(t *testing.T) {
	diff := createRandomDiff()
	parts := diff.Parts()
	assert.Equal(t, diff.BaseBlockHash.String(), parts.BaseBlockHash)
	assert.Equal(t, crypto.HashesToStrings(diff.DeletedKeys), parts.DeletedKeys)
	assert.Equal(t, diff.ClaimedRoot.String(), parts.ClaimedRoot)

	// parts are not aliased
	parts.Upserts[0].IsValid = !parts.Upserts[0].IsValid
	assert.NotEqual(t, diff.Upserts[0].IsValid, parts.Upserts[0].IsValid)
	parts.Upserts[0].IsValid = !parts.Upserts[0].IsValid

	restored, err := NewDiffFromParts(parts)
	require.NoError(t, err)
	if d := cmp.Diff(diff, restored, addrPortComparer); d != "" {
		t.Errorf("restored diff mismatch (-want +got):\n%s", d)
	}

	parts.Upserts[1].IsValid = !parts.Upserts[1].IsValid
	assert.NotEqual(t, parts.Upserts[1].IsValid, restored.Upserts[1].IsValid)
}

func TestDiffPartsJSON(t *testing.T) {
	diff := createRandomDiff()
	encoded, err := json.Marshal(diff.Parts())
	require.NoError(t, err)

	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(encoded, &raw))
	for _, key := range []string{"baseBlockHash", "blockHash", "cbTx", "cbTxMerkleTree", "deletedGNs", "gnList", "merkleRootGNList"} {
		assert.Contains(t, raw, key)
	}

	parts := &DiffParts{}
	require.NoError(t, json.Unmarshal(encoded, parts))
	restored, err := NewDiffFromParts(parts)
	require.NoError(t, err)
	if d := cmp.Diff(diff, restored, addrPortComparer); d != "" {
		t.Errorf("restored diff mismatch (-want +got):\n%s", d)
	}
}

func TestNewDiffFromPartsInvalid(t *testing.T) {
	valid := createRandomDiff().Parts()

	missingTx := *valid
	missingTx.CoinbaseTx = nil
	_, err := NewDiffFromParts(&missingTx)
	assert.ErrorIs(t, err, codec.ErrInvalidData)

	missingProof := *valid
	missingProof.CoinbaseProof = nil
	_, err = NewDiffFromParts(&missingProof)
	assert.ErrorIs(t, err, codec.ErrInvalidData)

	badHash := *valid
	badHash.BlockHash = "00"
	_, err = NewDiffFromParts(&badHash)
	assert.ErrorIs(t, err, ErrFormat)

	badDeleted := *valid
	badDeleted.DeletedKeys = []string{"xyz"}
	_, err = NewDiffFromParts(&badDeleted)
	assert.ErrorIs(t, err, ErrFormat)

	noRoot := *valid
	noRoot.ClaimedRoot = ""
	diff, err := NewDiffFromParts(&noRoot)
	assert.NoError(t, err)
	assert.Equal(t, crypto.NullHash, diff.ClaimedRoot)
}

func TestDecodeDiffs(t *testing.T) {
	diffs := []*Diff{createRandomDiff(), createRandomDiff(), createRandomDiff()}
	payloads := make([][]byte, len(diffs))
	for i, diff := range diffs {
		encoded, err := diff.Encode()
		require.NoError(t, err)
		payloads[i] = encoded
	}

	decoded, err := DecodeDiffs(payloads)
	require.NoError(t, err)
	require.Len(t, decoded, len(diffs))
	for i := range diffs {
		assert.Equal(t, diffs[i].BlockHash, decoded[i].BlockHash)
	}

	payloads[1] = payloads[1][:40]
	_, err = DecodeDiffs(payloads)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "decoding diff 1")
}

func TestVerifyCoinbaseInclusion(t *testing.T) {
	diff := createRandomDiff()
	blockRoot, _, err := diff.CoinbaseProof.ExtractMatches()
	require.NoError(t, err)

	assert.NoError(t, diff.VerifyCoinbaseInclusion(blockRoot))
	assert.ErrorIs(t, diff.VerifyCoinbaseInclusion(crypto.RandomHash()), ErrVerification)

	other := diff.CoinbaseTx.Copy()
	other.LockTime++
	diff.CoinbaseTx = other
	assert.ErrorIs(t, diff.VerifyCoinbaseInclusion(blockRoot), ErrVerification)

	assert.ErrorIs(t, (&Diff{}).VerifyCoinbaseInclusion(blockRoot), ErrVerification)
}
