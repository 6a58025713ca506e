package gnlist

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ToDiff returns a diff which builds the current list from scratch.
// It fails with ErrState until a diff has been applied successfully.
func (l *List) ToDiff() (*Diff, error) {
	if l.commitmentTx == nil || l.commitmentProof == nil {
		return nil, fmt.Errorf("%w: cannot convert list to diff without coinbase transaction", ErrState)
	}
	upserts := make([]*Entry, len(l.entries))
	for i, entry := range l.entries {
		upserts[i] = entry.Copy()
	}
	return &Diff{
		BaseBlockHash: l.baseBlockHash,
		BlockHash:     l.blockHash,
		CoinbaseTx:    l.commitmentTx.Copy(),
		CoinbaseProof: l.commitmentProof.Copy(),
		DeletedKeys:   []chainhash.Hash{},
		Upserts:       upserts,
		ClaimedRoot:   l.registryRoot,
	}, nil
}
