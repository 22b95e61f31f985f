package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameEncodeLayout(t *testing.T) {
	f := Frame{Pitch: 96, Amp: 187, Flags: FlagGate | FlagTrigger, Seq: 7}
	raw := f.Encode()

	require.Len(t, raw, FrameLen)
	assert.Equal(t, byte(SOF0), raw[0])
	assert.Equal(t, byte(SOF1), raw[1])
	assert.Equal(t, byte(5), raw[2], "length covers command plus payload")
	assert.Equal(t, byte(CmdApplyState), raw[3])
	assert.Equal(t, []byte{96, 187, 3, 7}, raw[4:8])
}

func TestFrameRoundTrip(t *testing.T) {
	for _, f := range []Frame{
		{},
		{Pitch: 239, Amp: 238, Flags: FlagGate, Seq: 255},
		frameFromState(OutputState{Pitch: 96, Amp: 120, Gate: true, Trigger: true}, 9),
	} {
		got, err := DecodeFrame(f.Encode())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestFrameFlagBits(t *testing.T) {
	f := frameFromState(OutputState{Gate: true}, 0)
	assert.True(t, f.Gate())
	assert.False(t, f.TriggerOn())

	f = frameFromState(OutputState{Trigger: true}, 0)
	assert.False(t, f.Gate())
	assert.True(t, f.TriggerOn())
}

func TestDecodeFrameRejects(t *testing.T) {
	good := (&Frame{Pitch: 10, Amp: 20, Flags: FlagGate, Seq: 1}).Encode()

	_, err := DecodeFrame(good[:FrameLen-1])
	assert.ErrorContains(t, err, "length")

	bad := append([]byte(nil), good...)
	bad[0] = 0xAB
	_, err = DecodeFrame(bad)
	assert.ErrorContains(t, err, "start of frame")

	bad = append([]byte(nil), good...)
	bad[2] = 6
	_, err = DecodeFrame(bad)
	assert.ErrorContains(t, err, "length byte")

	bad = append([]byte(nil), good...)
	bad[3] = 0x21
	_, err = DecodeFrame(bad)
	assert.ErrorContains(t, err, "command")

	bad = append([]byte(nil), good...)
	bad[5] ^= 0x01 // payload flipped, checksum now stale
	_, err = DecodeFrame(bad)
	assert.ErrorContains(t, err, "checksum")
}
