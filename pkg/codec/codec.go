// Package codec implements the little-endian, compact-size prefixed binary encoding used by the
// guardian node list wire messages.
//
// Hashes are written in their internal byte order, which is the reverse of their display string.
package codec

// Encodable is interface for struct which is encodable.
type Encodable interface {
	Encode() []byte
}

// DecodableReader is interface for struct which can decode itself from a shared reader.
// Implementations must consume exactly the bytes which belong to them.
type DecodableReader interface {
	DecodeFromReader(*Reader) error
}

// EncodeDecodable can encode and decode.
type EncodeDecodable interface {
	Encodable
	DecodableReader
}

// Decode decodes val into target and requires that all bytes are consumed.
func Decode(val []byte, target DecodableReader) error {
	reader := NewReader(val)
	if err := target.DecodeFromReader(reader); err != nil {
		return err
	}
	if reader.HasUnreadBytes() {
		return ErrUnreadBytes
	}
	return nil
}
