package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is the base of every decoding failure.
	ErrFormat = errors.New("invalid format")
	// ErrInvalidData represents general invalid data.
	ErrInvalidData = fmt.Errorf("%w: invalid data", ErrFormat)
	// ErrOutOfRange represents a read past the end of the available data.
	ErrOutOfRange = fmt.Errorf("%w: out of range", ErrFormat)
	// ErrInvalidHex represents malformed hex input.
	ErrInvalidHex = fmt.Errorf("%w: invalid hex", ErrFormat)
	// ErrUnreadBytes represents extra bytes not read.
	ErrUnreadBytes = fmt.Errorf("%w: unread bytes exist", ErrFormat)
)
