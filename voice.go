package main

import (
	"fmt"
	"strings"
)

// AmpSource selects what drives the amplitude CV output.
type AmpSource uint8

const (
	AmpVelocity AmpSource = iota
	AmpModulation
	AmpBreath
)

func (a AmpSource) String() string {
	switch a {
	case AmpVelocity:
		return "velocity"
	case AmpModulation:
		return "modulation"
	case AmpBreath:
		return "breath"
	}
	return "unknown"
}

// ParseAmpSource maps a configuration string onto an amplitude source.
func ParseAmpSource(s string) (AmpSource, error) {
	switch strings.ToLower(s) {
	case "velocity", "vel":
		return AmpVelocity, nil
	case "modulation", "mod", "cc1":
		return AmpModulation, nil
	case "breath", "cc2":
		return AmpBreath, nil
	}
	return AmpVelocity, fmt.Errorf("amp_source %q: want velocity, modulation or breath", s)
}

// Voice owns the monophonic note state and drives the four outputs through
// a sink. At most one note plays at a time; a second note arriving while one
// is held either slides the pitch (legato) or forces a full gate-off/gate-on
// retrigger cycle (multi-trigger mode), which monophonic analog envelope
// generators need in order to re-attack.
//
// All methods must be called from a single goroutine. NoteOn, NoteOff and
// ControlChange are event-driven; Tick services the two time-based
// transitions (trigger pulse expiry, retrigger promotion) and must be called
// frequently.
type Voice struct {
	clk Clock
	out OutputSink

	lowNote      uint8
	highNote     uint8
	resolution   int
	unitsPerSemi int
	multiTrigger bool
	ampSource    AmpSource
	pulseUs      uint32
	retriggerMs  uint32

	playing   *uint8
	pending   *uint8
	gateOffAt uint32 // ms, valid while pending is set
	triggerAt uint32 // us, valid while triggerOn
	triggerOn bool
}

// NewVoice builds a voice from the configuration. The clock and sink are the
// voice's only collaborators; it performs no I/O of its own.
func NewVoice(cfg Config, clk Clock, out OutputSink) (*Voice, error) {
	src, err := ParseAmpSource(cfg.AmpSource)
	if err != nil {
		return nil, err
	}
	span := int(cfg.HighNote-cfg.LowNote) + 1
	ups := cfg.Resolution / span
	if ups < 1 {
		ups = 1
	}
	return &Voice{
		clk:          clk,
		out:          out,
		lowNote:      cfg.LowNote,
		highNote:     cfg.HighNote,
		resolution:   cfg.Resolution,
		unitsPerSemi: ups,
		multiTrigger: cfg.MultiTrigger,
		ampSource:    src,
		pulseUs:      cfg.TriggerPulseUs,
		retriggerMs:  cfg.RetriggerMs,
	}, nil
}

// NoteOn handles a key press. Out-of-range notes are clamped into the
// configured range, never rejected.
func (v *Voice) NoteOn(note, velocity uint8) {
	n := v.clampNote(note)
	if v.ampSource == AmpVelocity {
		v.out.SetAmp(scaleLevel(velocity, v.resolution))
	}

	if v.playing == nil {
		if v.pending != nil {
			// A retrigger is already in flight: the newest key takes over
			// the pending slot and the gate-off interval restarts.
			v.pending = &n
			v.gateOffAt = v.clk.Millis()
			logger.Debug("voice: retrigger re-armed", "note", pitchName(int(n)))
			return
		}
		// Fresh attack.
		v.out.SetPitch(v.pitchLevel(n))
		v.out.SetGate(true)
		v.startTrigger()
		v.playing = &n
		logger.Debug("voice: attack", "note", pitchName(int(n)), "velocity", velocity)
		return
	}

	if v.multiTrigger {
		// Force an audible gate-off gap; the new note is promoted by Tick
		// once the retrigger delay has elapsed.
		v.out.SetGate(false)
		v.playing = nil
		v.pending = &n
		v.gateOffAt = v.clk.Millis()
		logger.Debug("voice: retrigger armed", "note", pitchName(int(n)))
		return
	}

	// Legato: slide the pitch, leave gate and trigger alone.
	v.out.SetPitch(v.pitchLevel(n))
	v.playing = &n
	logger.Debug("voice: legato slide", "note", pitchName(int(n)))
}

// NoteOff handles a key release. Only the currently playing note releases
// the gate; a stale release (from overlapping keys) is a no-op, and a
// pending retrigger note is never cancelled.
func (v *Voice) NoteOff(note uint8) {
	n := v.clampNote(note)
	if v.playing == nil || *v.playing != n {
		return
	}
	v.out.SetGate(false)
	v.playing = nil
	logger.Debug("voice: release", "note", pitchName(int(n)))
}

// ControlChange updates the amplitude output when the controller matches the
// configured source. Everything else is ignored.
func (v *Voice) ControlChange(cc, value uint8) {
	if (cc == CCModulation && v.ampSource == AmpModulation) ||
		(cc == CCBreath && v.ampSource == AmpBreath) {
		v.out.SetAmp(scaleLevel(value, v.resolution))
	}
}

// Tick services the time-based transitions. Comparisons are wraparound-safe:
// elapsed time is always computed as now - start in unsigned arithmetic.
func (v *Voice) Tick() {
	if v.triggerOn && v.clk.Micros()-v.triggerAt >= v.pulseUs {
		v.out.SetTrigger(false)
		v.triggerOn = false
	}
	if v.pending != nil && v.clk.Millis()-v.gateOffAt >= v.retriggerMs {
		n := *v.pending
		v.pending = nil
		v.out.SetPitch(v.pitchLevel(n))
		v.out.SetGate(true)
		v.startTrigger()
		v.playing = &n
		logger.Debug("voice: retrigger fired", "note", pitchName(int(n)))
	}
}

// Silence drops everything: gate low, trigger low, note state cleared. Used
// on input disconnect and at shutdown so no note hangs.
func (v *Voice) Silence() {
	v.out.SetGate(false)
	v.out.SetTrigger(false)
	v.triggerOn = false
	v.playing = nil
	v.pending = nil
}

// Playing reports the currently sounding note, if any.
func (v *Voice) Playing() (uint8, bool) {
	if v.playing == nil {
		return 0, false
	}
	return *v.playing, true
}

func (v *Voice) startTrigger() {
	v.out.SetTrigger(true)
	v.triggerAt = v.clk.Micros()
	v.triggerOn = true
}

func (v *Voice) clampNote(n uint8) uint8 {
	if n < v.lowNote {
		return v.lowNote
	}
	if n > v.highNote {
		return v.highNote
	}
	return n
}

// pitchLevel maps a clamped note linearly onto the duty range.
func (v *Voice) pitchLevel(n uint8) int {
	lvl := int(n-v.lowNote) * v.unitsPerSemi
	if lvl > v.resolution-1 {
		lvl = v.resolution - 1
	}
	return lvl
}

// scaleLevel maps a 7-bit MIDI value onto the duty range [0, res-1].
func scaleLevel(value uint8, res int) int {
	lvl := res * int(value) / 128
	if lvl > res-1 {
		lvl = res - 1
	}
	return lvl
}
