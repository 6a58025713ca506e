// Package merkle implements the double sha256 binary merkle tree used for block transactions and
// the guardian node list, and the partial merkle tree which proves membership of a subset of
// leaves.
package merkle

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/collection/bytes"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
)

// Tree holds every layer of a merkle tree, leaves first and root last.
type Tree struct {
	nodes []chainhash.Hash
}

// BuildTree returns a tree over the ordered leaves.
// When a layer has an odd number of nodes, the last node is paired with itself.
func BuildTree(leaves []chainhash.Hash) *Tree {
	nodes := make([]chainhash.Hash, len(leaves), 2*len(leaves))
	copy(nodes, leaves)
	offset := 0
	for size := len(leaves); size > 1; size = (size + 1) / 2 {
		for i := 0; i < size; i += 2 {
			right := i + 1
			if right >= size {
				right = size - 1
			}
			nodes = append(nodes, branchHash(nodes[offset+i], nodes[offset+right]))
		}
		offset += size
	}
	return &Tree{nodes: nodes}
}

// Root returns the root of the tree. An empty tree has the null hash as root.
func (t *Tree) Root() chainhash.Hash {
	if len(t.nodes) == 0 {
		return crypto.NullHash
	}
	return t.nodes[len(t.nodes)-1]
}

// CalculateRoot returns the root over the ordered leaves.
func CalculateRoot(leaves []chainhash.Hash) chainhash.Hash {
	return BuildTree(leaves).Root()
}

func branchHash(left, right chainhash.Hash) chainhash.Hash {
	return crypto.HashH(bytes.JoinSize(2*chainhash.HashSize, left[:], right[:]))
}
