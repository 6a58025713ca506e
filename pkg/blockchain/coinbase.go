package blockchain

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
)

const (
	// CoinbasePayloadVersionQuorums is the first payload version which commits to quorums.
	CoinbasePayloadVersionQuorums uint16 = 2
)

// CoinbasePayload is the extra payload of a coinbase special transaction.
type CoinbasePayload struct {
	Version           uint16
	Height            uint32
	MerkleRootGNList  chainhash.Hash
	MerkleRootQuorums chainhash.Hash
}

// DecodeCoinbasePayload decodes the payload and requires that all bytes are consumed.
func DecodeCoinbasePayload(data []byte) (*CoinbasePayload, error) {
	payload := &CoinbasePayload{}
	if err := codec.Decode(data, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// DecodeFromReader reads the payload.
func (p *CoinbasePayload) DecodeFromReader(reader *codec.Reader) error {
	var err error
	if p.Version, err = reader.ReadUInt16(); err != nil {
		return fmt.Errorf("reading coinbase payload version: %w", err)
	}
	if p.Height, err = reader.ReadUInt32(); err != nil {
		return fmt.Errorf("reading coinbase payload height: %w", err)
	}
	if p.MerkleRootGNList, err = reader.ReadHash(); err != nil {
		return fmt.Errorf("reading merkleRootGNList: %w", err)
	}
	p.MerkleRootQuorums = chainhash.Hash{}
	if p.Version >= CoinbasePayloadVersionQuorums {
		if p.MerkleRootQuorums, err = reader.ReadHash(); err != nil {
			return fmt.Errorf("reading merkleRootQuorums: %w", err)
		}
	}
	return nil
}

// Encode returns the encoded payload.
func (p *CoinbasePayload) Encode() []byte {
	writer := codec.NewWriter()
	writer.WriteUInt16(p.Version)
	writer.WriteUInt32(p.Height)
	writer.WriteHash(p.MerkleRootGNList)
	if p.Version >= CoinbasePayloadVersionQuorums {
		writer.WriteHash(p.MerkleRootQuorums)
	}
	return writer.Result()
}

// CoinbasePayload decodes the extra payload of a coinbase special transaction.
func (t *Transaction) CoinbasePayload() (*CoinbasePayload, error) {
	if t.Type != TxTypeCoinbase || !t.HasExtraPayload() {
		return nil, fmt.Errorf("%w: version %d type %d transaction is not a coinbase special transaction", codec.ErrInvalidData, t.Version, t.Type)
	}
	return DecodeCoinbasePayload(t.ExtraPayload)
}

// MerkleRootGNList returns the guardian node list root committed by the coinbase payload.
func (t *Transaction) MerkleRootGNList() (chainhash.Hash, error) {
	payload, err := t.CoinbasePayload()
	if err != nil {
		return chainhash.Hash{}, err
	}
	return payload.MerkleRootGNList, nil
}

// SetCoinbasePayload turns the transaction into a coinbase special transaction carrying payload.
func (t *Transaction) SetCoinbasePayload(payload *CoinbasePayload) {
	if t.Version < SpecialTxVersion {
		t.Version = SpecialTxVersion
	}
	t.Type = TxTypeCoinbase
	t.ExtraPayload = payload.Encode()
}

// NewCoinbaseTransaction returns a coinbase special transaction paying value to pkScript.
func NewCoinbaseTransaction(payload *CoinbasePayload, value uint64, pkScript []byte) *Transaction {
	// BIP34 style height push
	heightScript := make([]byte, 5)
	heightScript[0] = 0x04
	binary.LittleEndian.PutUint32(heightScript[1:], payload.Height)
	tx := &Transaction{
		Inputs: []*TxIn{
			{
				PreviousOutPoint: OutPoint{Index: math.MaxUint32},
				SignatureScript:  heightScript,
				Sequence:         math.MaxUint32,
			},
		},
		Outputs: []*TxOut{
			{
				Value:    value,
				PkScript: pkScript,
			},
		},
	}
	tx.SetCoinbasePayload(payload)
	return tx
}
