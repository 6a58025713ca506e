package codec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hex is bytes which are represented as hex string in JSON.
type Hex []byte

// HexArrayToBytesArray converts hex values to plain byte slices.
func HexArrayToBytesArray(val []Hex) [][]byte {
	converted := make([][]byte, len(val))
	for i, v := range val {
		converted[i] = v
	}
	return converted
}

// BytesArrayToHexArray converts plain byte slices to hex values.
func BytesArrayToHexArray(val [][]byte) []Hex {
	converted := make([]Hex, len(val))
	for i, v := range val {
		converted[i] = v
	}
	return converted
}

// DecodeHex decodes hex string and wraps failure with ErrInvalidHex.
func DecodeHex(str string) ([]byte, error) {
	res, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHex, err.Error())
	}
	return res, nil
}

func (h *Hex) UnmarshalJSON(b []byte) error {
	str := ""
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	res, err := DecodeHex(str)
	if err != nil {
		return err
	}
	*h = res
	return nil
}

func (h Hex) String() string {
	return hex.EncodeToString(h)
}

func (h Hex) MarshalJSON() ([]byte, error) {
	str := hex.EncodeToString(h)
	return json.Marshal(str)
}
