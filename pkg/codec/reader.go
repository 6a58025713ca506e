package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const protocolVersion uint32 = 0

// Reader reads fixed size and compact-size prefixed values from a byte slice.
type Reader struct {
	index int
	data  []byte
}

// NewReader returns reader with the data given.
func NewReader(data []byte) *Reader {
	return &Reader{
		data:  data,
		index: 0,
	}
}

// Read returns a copy of the next size bytes.
func (r *Reader) Read(size int) ([]byte, error) {
	if size < 0 || size > r.Remaining() {
		return nil, fmt.Errorf("%w: reading %d bytes with %d remaining", ErrOutOfRange, size, r.Remaining())
	}
	result := make([]byte, size)
	copy(result, r.data[r.index:r.index+size])
	r.index += size
	return result, nil
}

// ReadHash reads 32 bytes in internal byte order.
func (r *Reader) ReadHash() (chainhash.Hash, error) {
	val, err := r.Read(chainhash.HashSize)
	if err != nil {
		return chainhash.Hash{}, err
	}
	var h chainhash.Hash
	copy(h[:], val)
	return h, nil
}

// ReadUInt8 reads a single byte.
func (r *Reader) ReadUInt8() (uint8, error) {
	val, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return val[0], nil
}

// ReadBool reads a single byte which must be 0 or 1.
func (r *Reader) ReadBool() (bool, error) {
	val, err := r.ReadUInt8()
	if err != nil {
		return false, err
	}
	switch val {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	}
	return false, fmt.Errorf("%w: boolean byte %d", ErrInvalidData, val)
}

// ReadUInt16 reads little-endian uint16.
func (r *Reader) ReadUInt16() (uint16, error) {
	val, err := r.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(val), nil
}

// ReadUInt32 reads little-endian uint32.
func (r *Reader) ReadUInt32() (uint32, error) {
	val, err := r.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(val), nil
}

// ReadInt32 reads little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	val, err := r.ReadUInt32()
	return int32(val), err
}

// ReadUInt64 reads little-endian uint64.
func (r *Reader) ReadUInt64() (uint64, error) {
	val, err := r.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(val), nil
}

// ReadVarInt reads a compact-size unsigned integer.
func (r *Reader) ReadVarInt() (uint64, error) {
	src := bytes.NewReader(r.data[r.index:])
	val, err := wire.ReadVarInt(src, protocolVersion)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: truncated varint", ErrOutOfRange)
		}
		return 0, fmt.Errorf("%w: %s", ErrInvalidData, err.Error())
	}
	r.index += r.Remaining() - src.Len()
	return val, nil
}

// ReadCount reads a compact-size item count and checks that count items of at least itemSize
// bytes can still be read.
func (r *Reader) ReadCount(itemSize int) (int, error) {
	count, err := r.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if itemSize <= 0 {
		itemSize = 1
	}
	if count > uint64(r.Remaining()/itemSize) {
		return 0, fmt.Errorf("%w: count %d of %d byte items exceeds remaining %d bytes", ErrOutOfRange, count, itemSize, r.Remaining())
	}
	return int(count), nil
}

// ReadVarBytes reads compact-size prefixed bytes.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	size, err := r.ReadCount(1)
	if err != nil {
		return nil, err
	}
	return r.Read(size)
}

// ReadDecodable decodes the next value into target.
func (r *Reader) ReadDecodable(target DecodableReader) error {
	return target.DecodeFromReader(r)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.index
}

// HasUnreadBytes returns true if the reader has not reached the end.
func (r *Reader) HasUnreadBytes() bool {
	return r.index != len(r.data)
}
