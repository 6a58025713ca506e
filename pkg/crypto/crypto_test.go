package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
)

func TestHash(t *testing.T) {
	// double sha256 of empty input
	assert.Equal(t, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456", hex.EncodeToString(Hash([]byte{})))
	h := HashH([]byte{})
	assert.Equal(t, Hash([]byte{}), h[:])
	assert.Equal(t, "56944c5d3f98413ef45cf54545538103cc9f298e0575820ad3591376e2e0f65d", h.String())
}

func TestHashFromString(t *testing.T) {
	display := "56944c5d3f98413ef45cf54545538103cc9f298e0575820ad3591376e2e0f65d"
	h, err := HashFromString(display)
	assert.NoError(t, err)
	assert.Equal(t, HashH([]byte{}), h)
	assert.Equal(t, display, h.String())

	_, err = HashFromString("5694")
	assert.ErrorIs(t, err, codec.ErrInvalidHex)

	_, err = HashFromString("zz944c5d3f98413ef45cf54545538103cc9f298e0575820ad3591376e2e0f65d")
	assert.ErrorIs(t, err, codec.ErrFormat)
}

func TestHashesFromStrings(t *testing.T) {
	hashes := []string{
		RandomHash().String(),
		RandomHash().String(),
	}
	parsed, err := HashesFromStrings(hashes)
	assert.NoError(t, err)
	assert.Equal(t, hashes, HashesToStrings(parsed))

	_, err = HashesFromStrings([]string{"00"})
	assert.Error(t, err)
}

func TestNullHash(t *testing.T) {
	assert.True(t, IsNullHash(NullHash))
	assert.False(t, IsNullHash(RandomHash()))
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000000", NullHash.String())
}
