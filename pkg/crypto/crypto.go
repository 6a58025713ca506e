// Package crypto provides hashing utilities used by the guardian node list.
//
// All hashes are double sha256 and are kept in internal byte order. The display string of a hash
// is its reversed hex representation, as implemented by chainhash.Hash.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
)

const (
	// HashLength is the size of a hash in bytes.
	HashLength = chainhash.HashSize
)

// NullHash is the all-zero hash used for unset block hashes and the root of an empty list.
var NullHash = chainhash.Hash{}

func RandomBytes(size int) []byte {
	r := make([]byte, size)
	if _, err := rand.Read(r); err != nil {
		panic(err)
	}
	return r
}

// RandomHash returns a random hash.
func RandomHash() chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], RandomBytes(HashLength))
	return h
}

// Hash returns double sha256 of the data.
func Hash(data []byte) []byte {
	return chainhash.DoubleHashB(data)
}

// HashH returns double sha256 of the data as a hash.
func HashH(data []byte) chainhash.Hash {
	return chainhash.DoubleHashH(data)
}

// HashFromString parses a display-orientation hex string.
// Unlike chainhash.NewHashFromStr, it requires the full 64 characters.
func HashFromString(str string) (chainhash.Hash, error) {
	if len(str) != hex.EncodedLen(HashLength) {
		return chainhash.Hash{}, fmt.Errorf("%w: hash string must have length %d but received %d", codec.ErrInvalidHex, hex.EncodedLen(HashLength), len(str))
	}
	h, err := chainhash.NewHashFromStr(str)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: %s", codec.ErrInvalidHex, err.Error())
	}
	return *h, nil
}

// HashesFromStrings parses display-orientation hex strings.
func HashesFromStrings(strs []string) ([]chainhash.Hash, error) {
	result := make([]chainhash.Hash, len(strs))
	for i, str := range strs {
		h, err := HashFromString(str)
		if err != nil {
			return nil, err
		}
		result[i] = h
	}
	return result, nil
}

// HashesToStrings returns display strings of the hashes.
func HashesToStrings(hashes []chainhash.Hash) []string {
	result := make([]string, len(hashes))
	for i, h := range hashes {
		result[i] = h.String()
	}
	return result
}

// IsNullHash returns true if all bytes of the hash are zero.
func IsNullHash(h chainhash.Hash) bool {
	return h == NullHash
}
