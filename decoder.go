package main

// MIDI status byte layout: upper nibble selects the message type, lower
// nibble the channel. Everything from 0xF0 up is channel-less system traffic.
const (
	StatusNoteOff       = 0x80
	StatusNoteOn        = 0x90
	StatusControlChange = 0xB0

	StatusTypeMask    = 0xF0
	StatusChannelMask = 0x0F
)

// Controllers the voice reacts to. All other controller numbers are consumed
// without effect.
const (
	CCModulation = 1
	CCBreath     = 2
)

// EventType identifies a decoded channel-voice message.
type EventType uint8

const (
	EventNoteOn EventType = iota
	EventNoteOff
	EventControlChange
)

func (t EventType) String() string {
	switch t {
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventControlChange:
		return "control-change"
	}
	return "unknown"
}

// Event is one complete channel-voice message on the serviced channel.
// Note and Velocity are set for note events, Controller and Value for
// control changes.
type Event struct {
	Type       EventType
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
}

// Decoder turns a raw MIDI byte stream into Events for a single channel,
// honouring running status: once a status byte arrives, any number of data
// byte pairs may follow without the status being repeated. System Real-Time
// bytes may be interleaved anywhere, including mid-message. Messages for
// other channels and unrecognised message types are parsed structurally so
// the decoder stays byte-aligned, but emit nothing.
//
// The decoder keeps no timing state and performs no I/O; feeding it the same
// bytes in any call granularity yields the same events.
type Decoder struct {
	channel byte // 0-based wire channel

	status    byte
	hasStatus bool
	data1     byte
	hasData1  bool
}

// NewDecoder returns a decoder servicing the given 1-based MIDI channel
// (1-16).
func NewDecoder(channel int) *Decoder {
	return &Decoder{channel: byte(channel-1) & StatusChannelMask}
}

// ProcessByte consumes the next byte of the stream. It returns the decoded
// event and true when the byte completes a recognised message on the
// serviced channel.
func (d *Decoder) ProcessByte(b byte) (Event, bool) {
	switch {
	case b >= 0xF8:
		// System Real-Time: transparent, never disturbs a message in
		// progress.
		return Event{}, false
	case b >= 0xF0:
		// System Common cancels running status and any partial message.
		d.hasStatus = false
		d.hasData1 = false
		return Event{}, false
	case b >= 0x80:
		d.status = b
		d.hasStatus = true
		d.hasData1 = false
		return Event{}, false
	}

	// Data byte. Without running status the stream is not synchronised yet
	// and the byte is dropped.
	if !d.hasStatus {
		return Event{}, false
	}
	if !d.hasData1 {
		d.data1 = b
		d.hasData1 = true
		return Event{}, false
	}

	// Second data byte completes the message. Running status stays armed so
	// further data pairs decode without a new status byte.
	data1 := d.data1
	d.hasData1 = false
	return d.dispatch(data1, b)
}

func (d *Decoder) dispatch(data1, data2 byte) (Event, bool) {
	if d.status&StatusChannelMask != d.channel {
		return Event{}, false
	}
	switch d.status & StatusTypeMask {
	case StatusNoteOff:
		return Event{Type: EventNoteOff, Note: data1}, true
	case StatusNoteOn:
		if data2 == 0 {
			// Velocity 0 means Note Off by MIDI convention.
			return Event{Type: EventNoteOff, Note: data1}, true
		}
		return Event{Type: EventNoteOn, Note: data1, Velocity: data2}, true
	case StatusControlChange:
		if data1 == CCModulation || data1 == CCBreath {
			return Event{Type: EventControlChange, Controller: data1, Value: data2}, true
		}
	}
	return Event{}, false
}
