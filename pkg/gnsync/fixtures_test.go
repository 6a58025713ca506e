package gnsync

import (
	"net/netip"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/guardiannet/gnlist-engine/pkg/blockchain"
	"github.com/guardiannet/gnlist-engine/pkg/config"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
	"github.com/guardiannet/gnlist-engine/pkg/db"
	"github.com/guardiannet/gnlist-engine/pkg/gnlist"
	"github.com/guardiannet/gnlist-engine/pkg/log"
	"github.com/guardiannet/gnlist-engine/pkg/merkle"
)

func createEntry() *gnlist.Entry {
	entry := &gnlist.Entry{
		ProRegTxHash:  crypto.RandomHash(),
		ConfirmedHash: crypto.RandomHash(),
		Service:       netip.MustParseAddrPort("192.168.1.10:9999"),
		IsValid:       true,
	}
	copy(entry.PubKeyOperator[:], crypto.RandomBytes(gnlist.PubKeyOperatorSize))
	copy(entry.KeyIDVoting[:], crypto.RandomBytes(gnlist.KeyIDSize))
	return entry
}

// createDiff returns a diff moving from base to block which commits to the list after the change.
func createDiff(base, block chainhash.Hash, current []*gnlist.Entry, deleted []chainhash.Hash, upserts []*gnlist.Entry) (*gnlist.Diff, []*gnlist.Entry) {
	removed := map[chainhash.Hash]bool{}
	for _, key := range deleted {
		removed[key] = true
	}
	for _, entry := range upserts {
		removed[entry.Key()] = true
	}
	next := []*gnlist.Entry{}
	for _, entry := range current {
		if !removed[entry.Key()] {
			next = append(next, entry)
		}
	}
	next = append(next, upserts...)
	root := gnlist.CalculateMerkleRoot(next)

	tx := blockchain.NewCoinbaseTransaction(&blockchain.CoinbasePayload{
		Version:          1,
		Height:           10,
		MerkleRootGNList: root,
	}, 500, []byte{0x51})
	proof := merkle.NewPartialTree([]chainhash.Hash{tx.Hash(), crypto.RandomHash()}, []bool{true, false})
	if deleted == nil {
		deleted = []chainhash.Hash{}
	}
	return &gnlist.Diff{
		BaseBlockHash: base,
		BlockHash:     block,
		CoinbaseTx:    tx,
		CoinbaseProof: proof,
		DeletedKeys:   deleted,
		Upserts:       upserts,
		ClaimedRoot:   root,
	}, next
}

func encode(t *testing.T, diff *gnlist.Diff) []byte {
	encoded, err := diff.Encode()
	require.NoError(t, err)
	return encoded
}

func newTestSyncer(t *testing.T, database *db.DB, strict bool) *Syncer {
	syncer := NewSyncer(database, &config.Config{StrictContinuity: strict, ApplyRateLimit: 1000}, log.NewSilentLogger())
	require.NoError(t, syncer.Init())
	return syncer
}

func newTestDB(t *testing.T) *db.DB {
	database, err := db.NewInMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}
