package merkle

import "errors"

var (
	// ErrInvalidProof represents partial merkle tree which cannot be traversed consistently.
	ErrInvalidProof = errors.New("invalid partial merkle tree")
)
