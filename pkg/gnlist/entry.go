package gnlist

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/netip"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
)

const (
	ServiceAddressSize = 16
	ServicePortSize    = 2
	PubKeyOperatorSize = 48
	KeyIDSize          = 20
	// EntrySize is the fixed size of an encoded entry.
	EntrySize = 2*chainhash.HashSize + ServiceAddressSize + ServicePortSize + PubKeyOperatorSize + KeyIDSize + 1
)

// Entry is a guardian node record of the simplified list.
// Entries are treated as immutable once they are part of a diff or a list.
type Entry struct {
	ProRegTxHash   chainhash.Hash
	ConfirmedHash  chainhash.Hash
	Service        netip.AddrPort
	PubKeyOperator [PubKeyOperatorSize]byte
	KeyIDVoting    [KeyIDSize]byte
	// IsValid is false while the node is banned. Banned nodes remain part of the list and its root.
	IsValid bool
}

// DecodeEntry decodes an entry from exactly EntrySize bytes.
func DecodeEntry(data []byte) (*Entry, error) {
	if len(data) != EntrySize {
		return nil, fmt.Errorf("%w: entry must have size %d but received %d", codec.ErrInvalidData, EntrySize, len(data))
	}
	entry := &Entry{}
	if err := codec.Decode(data, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DecodeFromReader reads EntrySize bytes.
func (e *Entry) DecodeFromReader(reader *codec.Reader) error {
	var err error
	if e.ProRegTxHash, err = reader.ReadHash(); err != nil {
		return fmt.Errorf("reading proRegTxHash: %w", err)
	}
	if e.ConfirmedHash, err = reader.ReadHash(); err != nil {
		return fmt.Errorf("reading confirmedHash: %w", err)
	}
	address, err := reader.Read(ServiceAddressSize)
	if err != nil {
		return fmt.Errorf("reading service address: %w", err)
	}
	port, err := reader.Read(ServicePortSize)
	if err != nil {
		return fmt.Errorf("reading service port: %w", err)
	}
	var ip [ServiceAddressSize]byte
	copy(ip[:], address)
	e.Service = netip.AddrPortFrom(netip.AddrFrom16(ip).Unmap(), uint16(port[0])<<8|uint16(port[1]))
	pubKey, err := reader.Read(PubKeyOperatorSize)
	if err != nil {
		return fmt.Errorf("reading pubKeyOperator: %w", err)
	}
	copy(e.PubKeyOperator[:], pubKey)
	keyID, err := reader.Read(KeyIDSize)
	if err != nil {
		return fmt.Errorf("reading keyIDVoting: %w", err)
	}
	copy(e.KeyIDVoting[:], keyID)
	if e.IsValid, err = reader.ReadBool(); err != nil {
		return fmt.Errorf("reading isValid: %w", err)
	}
	return nil
}

// Encode returns the EntrySize bytes encoding. The service port is big endian.
func (e *Entry) Encode() []byte {
	writer := codec.NewWriter()
	writer.WriteHash(e.ProRegTxHash)
	writer.WriteHash(e.ConfirmedHash)
	ip := e.Service.Addr().As16()
	writer.WriteBytes(ip[:])
	port := e.Service.Port()
	writer.WriteBytes([]byte{byte(port >> 8), byte(port)})
	writer.WriteBytes(e.PubKeyOperator[:])
	writer.WriteBytes(e.KeyIDVoting[:])
	writer.WriteBool(e.IsValid)
	return writer.Result()
}

// Key returns the unique key of the entry in the list.
func (e *Entry) Key() chainhash.Hash {
	return e.ProRegTxHash
}

// Hash returns the leaf hash of the entry in the list merkle tree.
func (e *Entry) Hash() chainhash.Hash {
	return crypto.HashH(e.Encode())
}

// Copy returns a copy of the entry.
func (e *Entry) Copy() *Entry {
	copied := *e
	return &copied
}

type entryJSON struct {
	ProRegTxHash   string `json:"proRegTxHash"`
	ConfirmedHash  string `json:"confirmedHash"`
	Service        string `json:"service"`
	PubKeyOperator string `json:"pubKeyOperator"`
	KeyIDVoting    string `json:"keyIDVoting"`
	IsValid        bool   `json:"isValid"`
}

// MarshalJSON encodes the entry with display hex hashes and keys.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(&entryJSON{
		ProRegTxHash:   e.ProRegTxHash.String(),
		ConfirmedHash:  e.ConfirmedHash.String(),
		Service:        e.Service.String(),
		PubKeyOperator: hex.EncodeToString(e.PubKeyOperator[:]),
		KeyIDVoting:    hex.EncodeToString(e.KeyIDVoting[:]),
		IsValid:        e.IsValid,
	})
}

// UnmarshalJSON decodes the entry from the form written by MarshalJSON.
func (e *Entry) UnmarshalJSON(b []byte) error {
	raw := &entryJSON{}
	if err := json.Unmarshal(b, raw); err != nil {
		return err
	}
	proRegTxHash, err := crypto.HashFromString(raw.ProRegTxHash)
	if err != nil {
		return err
	}
	confirmedHash, err := crypto.HashFromString(raw.ConfirmedHash)
	if err != nil {
		return err
	}
	service, err := netip.ParseAddrPort(raw.Service)
	if err != nil {
		return fmt.Errorf("%w: service %s: %s", codec.ErrInvalidData, raw.Service, err.Error())
	}
	pubKey, err := decodeFixedHex(raw.PubKeyOperator, PubKeyOperatorSize)
	if err != nil {
		return err
	}
	keyID, err := decodeFixedHex(raw.KeyIDVoting, KeyIDSize)
	if err != nil {
		return err
	}
	e.ProRegTxHash = proRegTxHash
	e.ConfirmedHash = confirmedHash
	e.Service = netip.AddrPortFrom(service.Addr().Unmap(), service.Port())
	copy(e.PubKeyOperator[:], pubKey)
	copy(e.KeyIDVoting[:], keyID)
	e.IsValid = raw.IsValid
	return nil
}

func decodeFixedHex(str string, size int) ([]byte, error) {
	res, err := codec.DecodeHex(str)
	if err != nil {
		return nil, err
	}
	if len(res) != size {
		return nil, fmt.Errorf("%w: expected %d bytes but received %d", codec.ErrInvalidHex, size, len(res))
	}
	return res, nil
}
