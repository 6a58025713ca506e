package bytes

// IsBitSet reports whether the bit at index is set, counting from the least significant bit of
// the first byte.
//
// []byte{0x00, 0x01} and index 8 looks at the lowest bit of the second byte.
func IsBitSet(bits []byte, index int) bool {
	return bits[index/8]&(1<<uint(index%8)) != 0
}

// FromBools packs the flags into bytes, least significant bit first. The last byte is zero padded.
func FromBools(input []bool) []byte {
	res := make([]byte, (len(input)+7)/8)
	for i, x := range input {
		if x {
			res[i/8] |= 1 << uint(i%8)
		}
	}
	return res
}

// ToBools unpacks every bit of val, least significant bit first.
func ToBools(val []byte) []bool {
	res := make([]bool, 8*len(val))
	for i := range res {
		res[i] = IsBitSet(val, i)
	}
	return res
}
