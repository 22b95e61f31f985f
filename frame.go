package main

import "fmt"

const (
	CmdApplyState = 0x20
	SOF0          = 0xAA
	SOF1          = 0x55

	FlagGate    = 0x01
	FlagTrigger = 0x02

	// FrameLen is the total on-wire size: SOF pair, length, command, four
	// payload bytes, checksum.
	FrameLen = 9
)

// Frame is a full-state snapshot of the four outputs sent to the interface
// board in one bulk transfer. Pitch and Amp are duty levels, Flags carries
// the gate and trigger bits, Seq increments per frame so the board can spot
// gaps.
type Frame struct {
	Pitch byte
	Amp   byte
	Flags byte
	Seq   byte
}

// Encode builds the on-wire representation:
//
//	[SOF0][SOF1][LEN][CMD][Pitch][Amp][Flags][Seq][CKS]
func (f *Frame) Encode() []byte {
	payload := []byte{f.Pitch, f.Amp, f.Flags, f.Seq}

	length := byte(len(payload) + 1) // +1 for CMD byte
	cks := length ^ CmdApplyState
	for _, b := range payload {
		cks ^= b
	}

	out := []byte{SOF0, SOF1, length, CmdApplyState}
	out = append(out, payload...)
	out = append(out, cks)
	return out
}

// Gate reports the state of the gate bit.
func (f *Frame) Gate() bool { return f.Flags&FlagGate != 0 }

// TriggerOn reports the state of the trigger bit.
func (f *Frame) TriggerOn() bool { return f.Flags&FlagTrigger != 0 }

// DecodeFrame parses a complete frame the way the interface board firmware
// does, verifying framing and checksum.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) != FrameLen {
		return Frame{}, fmt.Errorf("frame: length %d, want %d", len(data), FrameLen)
	}
	if data[0] != SOF0 || data[1] != SOF1 {
		return Frame{}, fmt.Errorf("frame: bad start of frame % X", data[:2])
	}
	if data[2] != FrameLen-4 {
		return Frame{}, fmt.Errorf("frame: bad length byte %d", data[2])
	}
	if data[3] != CmdApplyState {
		return Frame{}, fmt.Errorf("frame: unknown command %#02x", data[3])
	}
	cks := data[2] ^ data[3]
	for _, b := range data[4 : FrameLen-1] {
		cks ^= b
	}
	if cks != data[FrameLen-1] {
		return Frame{}, fmt.Errorf("frame: checksum %#02x, want %#02x", data[FrameLen-1], cks)
	}
	return Frame{Pitch: data[4], Amp: data[5], Flags: data[6], Seq: data[7]}, nil
}
