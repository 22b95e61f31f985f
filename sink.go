package main

// OutputState is the externally visible state of the four outputs: two duty
// levels in [0, resolution-1] and the two digital lines.
type OutputState struct {
	Pitch   int
	Amp     int
	Gate    bool
	Trigger bool
}

// OutputSink receives output changes from the voice. Implementations
// coalesce repeated writes: Set calls only record state, Flush pushes the
// state out when it differs from what was last transmitted.
type OutputSink interface {
	SetPitch(level int)
	SetAmp(level int)
	SetGate(on bool)
	SetTrigger(on bool)
	Flush()
	State() OutputState
}

// levelState is the shared bookkeeping for sinks: current state plus the
// last transmitted state (nil until the first flush).
type levelState struct {
	cur  OutputState
	sent *OutputState
}

func (s *levelState) SetPitch(level int) { s.cur.Pitch = level }
func (s *levelState) SetAmp(level int)   { s.cur.Amp = level }
func (s *levelState) SetGate(on bool)    { s.cur.Gate = on }
func (s *levelState) SetTrigger(on bool) { s.cur.Trigger = on }
func (s *levelState) State() OutputState { return s.cur }

// dirty reports whether the current state has not been transmitted yet.
func (s *levelState) dirty() bool {
	return s.sent == nil || *s.sent != s.cur
}

func (s *levelState) markSent() {
	c := s.cur
	s.sent = &c
}

// frameSink transmits output state to the interface board as frames over
// serial. Frames are sent only on change; the board holds the last state.
type frameSink struct {
	levelState
	port *CVPort
	seq  byte
}

func newFrameSink(port *CVPort) *frameSink {
	return &frameSink{port: port}
}

func (s *frameSink) Flush() {
	if !s.dirty() {
		return
	}
	f := frameFromState(s.cur, s.seq)
	s.port.SendFrame(f)
	s.seq++
	s.markSent()
}

// frameFromState packs an output state into a wire frame.
func frameFromState(st OutputState, seq byte) Frame {
	f := Frame{Pitch: byte(st.Pitch), Amp: byte(st.Amp), Seq: seq}
	if st.Gate {
		f.Flags |= FlagGate
	}
	if st.Trigger {
		f.Flags |= FlagTrigger
	}
	return f
}

// logSink records output transitions through the logger instead of driving
// hardware. Used for dry runs and when no board is attached.
type logSink struct {
	levelState
}

func newLogSink() *logSink {
	return &logSink{}
}

func (s *logSink) Flush() {
	if !s.dirty() {
		return
	}
	logger.Info("cv: state",
		"pitch", s.cur.Pitch,
		"amp", s.cur.Amp,
		"gate", s.cur.Gate,
		"trigger", s.cur.Trigger,
	)
	s.markSent()
}
