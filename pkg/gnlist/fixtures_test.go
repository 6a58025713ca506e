package gnlist

import (
	"net/netip"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/blockchain"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
	"github.com/guardiannet/gnlist-engine/pkg/merkle"
)

func createRandomEntry(valid bool) *Entry {
	entry := &Entry{
		ProRegTxHash:  crypto.RandomHash(),
		ConfirmedHash: crypto.RandomHash(),
		Service:       netip.AddrPortFrom(netip.AddrFrom4([4]byte{10, 0, 0, byte(crypto.RandomBytes(1)[0])}), 19999),
		IsValid:       valid,
	}
	copy(entry.PubKeyOperator[:], crypto.RandomBytes(PubKeyOperatorSize))
	copy(entry.KeyIDVoting[:], crypto.RandomBytes(KeyIDSize))
	return entry
}

func createRandomEntries(size int) []*Entry {
	entries := make([]*Entry, size)
	for i := range entries {
		entries[i] = createRandomEntry(i%3 != 0)
	}
	return entries
}

// createDiff returns a diff whose coinbase commits to root. The coinbase is proven as the first of
// three block transactions.
func createDiff(base, block chainhash.Hash, deleted []chainhash.Hash, upserts []*Entry, root chainhash.Hash) *Diff {
	tx := blockchain.NewCoinbaseTransaction(&blockchain.CoinbasePayload{
		Version:           2,
		Height:            100,
		MerkleRootGNList:  root,
		MerkleRootQuorums: crypto.RandomHash(),
	}, 1000, []byte{0x51})
	blockTxs := []chainhash.Hash{tx.Hash(), crypto.RandomHash(), crypto.RandomHash()}
	proof := merkle.NewPartialTree(blockTxs, []bool{true, false, false})
	if deleted == nil {
		deleted = []chainhash.Hash{}
	}
	if upserts == nil {
		upserts = []*Entry{}
	}
	return &Diff{
		BaseBlockHash: base,
		BlockHash:     block,
		CoinbaseTx:    tx,
		CoinbaseProof: proof,
		DeletedKeys:   deleted,
		Upserts:       upserts,
		ClaimedRoot:   root,
	}
}

func keys(entries []*Entry) []chainhash.Hash {
	result := make([]chainhash.Hash, len(entries))
	for i, entry := range entries {
		result[i] = entry.Key()
	}
	return result
}
