package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelStateCoalescing(t *testing.T) {
	var s levelState
	assert.True(t, s.dirty(), "nothing has been transmitted yet")

	s.markSent()
	assert.False(t, s.dirty())

	s.SetPitch(96)
	assert.True(t, s.dirty())
	s.markSent()

	s.SetPitch(96) // same value, nothing new to send
	assert.False(t, s.dirty())

	s.SetGate(true)
	assert.True(t, s.dirty())
}

func TestLogSinkFlushClearsDirty(t *testing.T) {
	s := newLogSink()
	s.SetGate(true)
	s.Flush()
	assert.False(t, s.dirty())

	s.Flush() // no change, nothing logged, still clean
	assert.False(t, s.dirty())
}
