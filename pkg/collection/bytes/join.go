package bytes

// Join concatenates the slices into a new slice.
func Join(s ...[]byte) []byte {
	n := 0
	for _, v := range s {
		n += len(v)
	}
	return JoinSize(n, s...)
}

// JoinSize concatenates the slices into a new slice of size. It is faster than Join when the
// size is known.
func JoinSize(size int, s ...[]byte) []byte {
	b, i := make([]byte, size), 0
	for _, v := range s {
		i += copy(b[i:], v)
	}
	return b
}
