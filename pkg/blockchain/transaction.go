// Package blockchain implements the transaction format which carries the guardian node list
// commitment.
package blockchain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/collection/bytes"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
)

const (
	// TxTypeNormal is a transaction without extra payload.
	TxTypeNormal uint16 = 0
	// TxTypeCoinbase is the special transaction type of a coinbase carrying CoinbasePayload.
	TxTypeCoinbase uint16 = 5
	// SpecialTxVersion is the first version which may carry an extra payload.
	SpecialTxVersion uint16 = 3

	MaxScriptSize       = 10000
	MaxExtraPayloadSize = 10000

	// minimum encoded size of an input and an output, used to bound counts while decoding.
	minTxInSize  = chainhash.HashSize + 4 + 1 + 4
	minTxOutSize = 8 + 1
)

// OutPoint references an output of a previous transaction.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// IsNull returns true for the outpoint spent by a coinbase input.
func (o OutPoint) IsNull() bool {
	return crypto.IsNullHash(o.Hash) && o.Index == math.MaxUint32
}

// TxIn is a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut is a transaction output.
type TxOut struct {
	Value    uint64
	PkScript []byte
}

// Transaction holds a transaction which may carry a special transaction payload.
// The first 4 bytes on the wire hold the version in the low 16 bits and the type in the high 16 bits.
type Transaction struct {
	Version      uint16
	Type         uint16
	Inputs       []*TxIn
	Outputs      []*TxOut
	LockTime     uint32
	ExtraPayload []byte
}

// DecodeTransaction decodes a transaction and requires that all bytes are consumed.
func DecodeTransaction(data []byte) (*Transaction, error) {
	tx := &Transaction{}
	if err := codec.Decode(data, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// HasExtraPayload returns true if the extra payload is part of the encoding.
func (t *Transaction) HasExtraPayload() bool {
	return t.Version >= SpecialTxVersion && t.Type != TxTypeNormal
}

// DecodeFromReader reads the self-delimiting encoding of the transaction.
func (t *Transaction) DecodeFromReader(reader *codec.Reader) error {
	header, err := reader.ReadUInt32()
	if err != nil {
		return fmt.Errorf("reading transaction header: %w", err)
	}
	t.Version = uint16(header & 0xffff)
	t.Type = uint16(header >> 16)

	inputCount, err := reader.ReadCount(minTxInSize)
	if err != nil {
		return fmt.Errorf("reading input count: %w", err)
	}
	t.Inputs = make([]*TxIn, inputCount)
	for i := range t.Inputs {
		input := &TxIn{}
		if input.PreviousOutPoint.Hash, err = reader.ReadHash(); err != nil {
			return err
		}
		if input.PreviousOutPoint.Index, err = reader.ReadUInt32(); err != nil {
			return err
		}
		if input.SignatureScript, err = reader.ReadVarBytes(); err != nil {
			return err
		}
		if input.Sequence, err = reader.ReadUInt32(); err != nil {
			return err
		}
		t.Inputs[i] = input
	}

	outputCount, err := reader.ReadCount(minTxOutSize)
	if err != nil {
		return fmt.Errorf("reading output count: %w", err)
	}
	t.Outputs = make([]*TxOut, outputCount)
	for i := range t.Outputs {
		output := &TxOut{}
		if output.Value, err = reader.ReadUInt64(); err != nil {
			return err
		}
		if output.PkScript, err = reader.ReadVarBytes(); err != nil {
			return err
		}
		t.Outputs[i] = output
	}

	if t.LockTime, err = reader.ReadUInt32(); err != nil {
		return fmt.Errorf("reading lock time: %w", err)
	}
	t.ExtraPayload = nil
	if t.HasExtraPayload() {
		if t.ExtraPayload, err = reader.ReadVarBytes(); err != nil {
			return fmt.Errorf("reading extra payload: %w", err)
		}
	}
	return nil
}

// Encode returns the self-delimiting encoding of the transaction.
func (t *Transaction) Encode() []byte {
	writer := codec.NewWriter()
	writer.WriteUInt32(uint32(t.Type)<<16 | uint32(t.Version))
	writer.WriteVarInt(uint64(len(t.Inputs)))
	for _, input := range t.Inputs {
		writer.WriteHash(input.PreviousOutPoint.Hash)
		writer.WriteUInt32(input.PreviousOutPoint.Index)
		writer.WriteVarBytes(input.SignatureScript)
		writer.WriteUInt32(input.Sequence)
	}
	writer.WriteVarInt(uint64(len(t.Outputs)))
	for _, output := range t.Outputs {
		writer.WriteUInt64(output.Value)
		writer.WriteVarBytes(output.PkScript)
	}
	writer.WriteUInt32(t.LockTime)
	if t.HasExtraPayload() {
		writer.WriteVarBytes(t.ExtraPayload)
	}
	return writer.Result()
}

// Hash returns the transaction hash.
func (t *Transaction) Hash() chainhash.Hash {
	return crypto.HashH(t.Encode())
}

// Size returns the encoded size.
func (t *Transaction) Size() int {
	return len(t.Encode())
}

// IsCoinbase returns true if the transaction spends only the null outpoint.
func (t *Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 1 && t.Inputs[0].PreviousOutPoint.IsNull()
}

// Copy returns a deep copy of the transaction.
func (t *Transaction) Copy() *Transaction {
	tx := &Transaction{
		Version:  t.Version,
		Type:     t.Type,
		Inputs:   make([]*TxIn, len(t.Inputs)),
		Outputs:  make([]*TxOut, len(t.Outputs)),
		LockTime: t.LockTime,
	}
	for i, input := range t.Inputs {
		tx.Inputs[i] = &TxIn{
			PreviousOutPoint: input.PreviousOutPoint,
			SignatureScript:  bytes.Copy(input.SignatureScript),
			Sequence:         input.Sequence,
		}
	}
	for i, output := range t.Outputs {
		tx.Outputs[i] = &TxOut{
			Value:    output.Value,
			PkScript: bytes.Copy(output.PkScript),
		}
	}
	if t.ExtraPayload != nil {
		tx.ExtraPayload = bytes.Copy(t.ExtraPayload)
	}
	return tx
}

// Validate transaction statically.
func (t *Transaction) Validate() error {
	if len(t.Inputs) == 0 {
		return fmt.Errorf("inputs must have length at least 1 but received %d", len(t.Inputs))
	}
	if len(t.Outputs) == 0 {
		return fmt.Errorf("outputs must have length at least 1 but received %d", len(t.Outputs))
	}
	for i, input := range t.Inputs {
		if len(input.SignatureScript) > MaxScriptSize {
			return fmt.Errorf("input %d script size %d exceeds maximum %d", i, len(input.SignatureScript), MaxScriptSize)
		}
	}
	for i, output := range t.Outputs {
		if len(output.PkScript) > MaxScriptSize {
			return fmt.Errorf("output %d script size %d exceeds maximum %d", i, len(output.PkScript), MaxScriptSize)
		}
	}
	if !t.HasExtraPayload() && len(t.ExtraPayload) != 0 {
		return fmt.Errorf("version %d type %d transaction cannot have extra payload", t.Version, t.Type)
	}
	if len(t.ExtraPayload) > MaxExtraPayloadSize {
		return fmt.Errorf("extra payload size %d exceeds maximum %d", len(t.ExtraPayload), MaxExtraPayloadSize)
	}
	if t.Type == TxTypeCoinbase {
		if !t.IsCoinbase() {
			return fmt.Errorf("coinbase type transaction must spend only the null outpoint")
		}
		if _, err := t.CoinbasePayload(); err != nil {
			return err
		}
	}
	return nil
}

// String returns hex of the encoding.
func (t *Transaction) String() string {
	return hex.EncodeToString(t.Encode())
}

// MarshalJSON encodes the transaction as hex of its encoding.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the transaction from a hex string.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	data := codec.Hex{}
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	decoded, err := DecodeTransaction(data)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}
