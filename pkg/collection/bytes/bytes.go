// Package bytes provides utility functions for byte slices.
package bytes

import "bytes"

// Equal reports whether a and b are the same length and contain the same bytes. A nil argument is equivalent to an empty slice.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// Compare returns an integer comparing two byte slices lexicographically. The result will be 0 if a == b, -1 if a < b, and +1 if a > b.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}
