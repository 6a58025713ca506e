package merkle

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"

	"github.com/guardiannet/gnlist-engine/pkg/crypto"
)

func TestCalculateRoot(t *testing.T) {
	fixtures := []rootFixture{}
	if err := loadFixture("merkle_root.yaml", &fixtures); err != nil {
		t.Fatal(err)
	}
	assert.NotEmpty(t, fixtures)

	for _, tc := range fixtures {
		leaves, err := crypto.HashesFromStrings(tc.Input)
		assert.NoError(t, err)

		tree := BuildTree(leaves)
		assert.Equal(t, tc.Output, tree.Root().String(), tc.Description)
		assert.Equal(t, tc.Output, CalculateRoot(leaves).String(), tc.Description)
	}
}

func TestBuildTreeDoesNotAliasLeaves(t *testing.T) {
	leaves := []chainhash.Hash{crypto.RandomHash(), crypto.RandomHash(), crypto.RandomHash()}
	tree := BuildTree(leaves)
	root := tree.Root()

	leaves[0] = crypto.RandomHash()
	assert.Equal(t, root, tree.Root())
	// 3 leaves, 2 branches, 1 root
	assert.Len(t, tree.nodes, 6)
}

func TestEmptyTree(t *testing.T) {
	tree := BuildTree(nil)
	assert.Equal(t, crypto.NullHash, tree.Root())
	assert.Empty(t, tree.nodes)
}
