package gnlist

import (
	"errors"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
)

var (
	// ErrFormat is returned for malformed, truncated or inconsistent encodings.
	ErrFormat = codec.ErrFormat
	// ErrVerification is returned when the calculated merkle root does not match the root a diff claims.
	ErrVerification = errors.New("merkle root verification failed")
	// ErrState is returned when the list cannot serve the request in its current state.
	ErrState = errors.New("invalid list state")
)
