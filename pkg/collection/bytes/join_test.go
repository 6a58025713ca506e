package bytes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	key    = []byte{1, 2, 3, 4, 5, 6, 7, 7}
	prefix = []byte{3}
)

func TestJoin(t *testing.T) {
	assert.Equal(t, []byte{3, 1, 2, 3, 4, 5, 6, 7, 7}, Join(prefix, key))
	assert.Equal(t, []byte{}, Join())
}

func TestJoinSize(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 7, 3}, JoinSize(9, key, prefix))
}

func BenchmarkJoin(b *testing.B) {
	for n := 0; n < b.N; n++ {
		Join(prefix, key)
	}
	b.StopTimer()
}

func BenchmarkJoinSize(b *testing.B) {
	for n := 0; n < b.N; n++ {
		JoinSize(len(key)+len(prefix), prefix, key)
	}
	b.StopTimer()
}
