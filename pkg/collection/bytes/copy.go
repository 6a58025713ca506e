package bytes

// Copy returns a new slice with the bytes of val. A nil slice stays nil.
func Copy(val []byte) []byte {
	if val == nil {
		return nil
	}
	dest := make([]byte, len(val))
	copy(dest, val)
	return dest
}
