package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTranslator(t *testing.T, mutate func(*Config)) (*translator, *captureSink, *fakeClock) {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clk := &fakeClock{}
	sink := &captureSink{}
	voice, err := NewVoice(cfg, clk, sink)
	require.NoError(t, err)

	q := newByteQueue(64)
	return &translator{
		src:   q,
		dec:   NewDecoder(cfg.Channel),
		voice: voice,
		sink:  sink,
	}, sink, clk
}

func TestTranslatorByteStreamToOutputs(t *testing.T) {
	tr, sink, _ := testTranslator(t, nil)
	q := tr.src.(*byteQueue)

	// Note on C4, then running-status note on E4 with a clock byte in the
	// middle of the stream.
	q.PushAll([]byte{0x90, 60, 100, 0xF8, 64, 110})
	tr.tick()

	assert.Equal(t, uint64(2), tr.events)
	assert.True(t, sink.st.Gate)
	assert.Equal(t, (64-36)*4, sink.st.Pitch)
	assert.Equal(t, 1, sink.gateOns, "overlap slides, it does not retrigger")

	q.PushAll([]byte{0x80, 64, 0})
	tr.tick()
	assert.False(t, sink.st.Gate)
}

func TestTranslatorWrongChannelIgnored(t *testing.T) {
	tr, sink, _ := testTranslator(t, func(c *Config) { c.Channel = 2 })
	q := tr.src.(*byteQueue)

	q.PushAll([]byte{0x90, 60, 100}) // channel 1, not ours
	tr.tick()

	assert.Equal(t, uint64(0), tr.events)
	assert.False(t, sink.st.Gate)

	q.PushAll([]byte{0x91, 60, 100}) // channel 2
	tr.tick()
	assert.True(t, sink.st.Gate)
}

func TestTranslatorInputLostSilences(t *testing.T) {
	tr, sink, _ := testTranslator(t, nil)
	q := tr.src.(*byteQueue)

	q.PushAll([]byte{0x90, 60, 100})
	tr.tick()
	require.True(t, sink.st.Gate)

	tr.lost.Store(true)
	tr.tick()

	assert.False(t, sink.st.Gate)
	assert.False(t, sink.st.Trigger)
	assert.False(t, tr.lost.Load(), "the flag is consumed by the tick")
}

func TestTranslatorTickDrivesVoiceTimers(t *testing.T) {
	tr, sink, clk := testTranslator(t, nil)
	q := tr.src.(*byteQueue)

	q.PushAll([]byte{0x90, 60, 100})
	tr.tick()
	require.True(t, sink.st.Trigger)

	clk.us += 1000
	tr.tick()
	assert.False(t, sink.st.Trigger)
	assert.True(t, sink.st.Gate)
}

func TestPitchName(t *testing.T) {
	assert.Equal(t, "C4", pitchName(60))
	assert.Equal(t, "A4", pitchName(69))
	assert.Equal(t, "C2", pitchName(36))
	assert.Equal(t, "B6", pitchName(95))
}
