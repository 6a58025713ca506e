package codec

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Writer is responsible for writing little-endian and compact-size prefixed data.
type Writer struct {
	result []byte
}

// NewWriter returns a new instances of a writer.
func NewWriter() *Writer {
	return &Writer{
		result: []byte{},
	}
}

// Write appends raw bytes. It implements io.Writer and never fails.
func (w *Writer) Write(data []byte) (int, error) {
	w.result = append(w.result, data...)
	return len(data), nil
}

// WriteBytes appends raw bytes without a length prefix.
func (w *Writer) WriteBytes(data []byte) {
	w.result = append(w.result, data...)
}

// WriteHash writes the hash in internal byte order.
func (w *Writer) WriteHash(h chainhash.Hash) {
	w.result = append(w.result, h[:]...)
}

// WriteUInt8 writes a single byte.
func (w *Writer) WriteUInt8(data uint8) {
	w.result = append(w.result, data)
}

// WriteBool writes a boolean as a single byte.
func (w *Writer) WriteBool(data bool) {
	if data {
		w.WriteUInt8(0x01)
		return
	}
	w.WriteUInt8(0x00)
}

// WriteUInt16 writes little-endian uint16.
func (w *Writer) WriteUInt16(data uint16) {
	w.result = binary.LittleEndian.AppendUint16(w.result, data)
}

// WriteUInt32 writes little-endian uint32.
func (w *Writer) WriteUInt32(data uint32) {
	w.result = binary.LittleEndian.AppendUint32(w.result, data)
}

// WriteInt32 writes little-endian int32.
func (w *Writer) WriteInt32(data int32) {
	w.WriteUInt32(uint32(data))
}

// WriteUInt64 writes little-endian uint64.
func (w *Writer) WriteUInt64(data uint64) {
	w.result = binary.LittleEndian.AppendUint64(w.result, data)
}

// WriteVarInt writes a compact-size unsigned integer.
func (w *Writer) WriteVarInt(data uint64) {
	// Writer.Write never returns an error.
	_ = wire.WriteVarInt(w, protocolVersion, data)
}

// WriteVarBytes writes compact-size prefixed bytes.
func (w *Writer) WriteVarBytes(data []byte) {
	w.WriteVarInt(uint64(len(data)))
	w.WriteBytes(data)
}

// WriteEncodable writes encodable struct to result.
func (w *Writer) WriteEncodable(data Encodable) {
	w.WriteBytes(data.Encode())
}

// Result returns the written bytes.
func (w *Writer) Result() []byte {
	return w.result
}

// Size returns written size.
func (w *Writer) Size() int {
	return len(w.result)
}
