package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteQueueOrder(t *testing.T) {
	q := newByteQueue(8)
	q.PushAll([]byte{0x90, 60, 100})

	for _, want := range []byte{0x90, 60, 100} {
		b, ok := q.TryByte()
		require.True(t, ok)
		assert.Equal(t, want, b)
	}

	_, ok := q.TryByte()
	assert.False(t, ok, "drained queue must not block")
}

func TestByteQueueDropsWhenFull(t *testing.T) {
	q := newByteQueue(2)
	q.PushAll([]byte{1, 2, 3, 4})

	assert.Equal(t, uint64(2), q.Drops())

	b, ok := q.TryByte()
	require.True(t, ok)
	assert.Equal(t, byte(1), b, "oldest bytes are kept, newest dropped")
}
