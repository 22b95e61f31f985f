package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// -------------------- Hot-plug config --------------------

// EXCLUDED_PATTERNS: virtual/system ports that are never auto-connected.
var EXCLUDED_PATTERNS = []string{"Midi Through", "Through Port", "Dummy"}

const midiRescanInterval = 1000 * time.Millisecond

// -------------------- PortWatcher --------------------

// PortWatcher monitors available MIDI inputs and maintains a connection to
// the preferred device. It handles hot-plug (new device appears) and
// hot-unplug (device disappears) transparently.
//
// onBytes is called from the listener goroutine with the raw bytes of every
// incoming message, so port input flows through the same decoder as serial
// input. onDisconnect is called (from a goroutine) when the active device is
// lost; callers should use it to silence the voice immediately.
type PortWatcher struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time
	preferred    []string

	onBytes      func([]byte)
	onDisconnect func()
}

// NewPortWatcher creates a watcher and initialises the underlying rtmidi
// driver. preferred lists name substrings to pick first; with none given,
// the watcher only auto-connects when exactly one input exists. Call Close()
// when done.
func NewPortWatcher(preferred []string, onBytes func([]byte), onDisconnect func()) (*PortWatcher, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &PortWatcher{
		drv:          drv,
		preferred:    preferred,
		onBytes:      onBytes,
		onDisconnect: onDisconnect,
	}, nil
}

// Close shuts down the active MIDI connection and the rtmidi driver.
func (w *PortWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeConn()
	w.drv.Close()
}

// Selected returns the connected device name, if any.
func (w *PortWatcher) Selected() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedName, w.connected
}

// Tick should be called on a regular interval from the main loop. It scans
// for devices, auto-connects to a preferred one, and detects disappearances.
// Scans are internally rate-limited, so calling it every poll tick is fine.
func (w *PortWatcher) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < midiRescanInterval {
		return
	}
	w.lastRescanAt = now

	inputs := w.listInputs()

	if w.connected {
		// Verify the selected device is still present.
		for _, n := range inputs {
			if n == w.selectedName {
				return // still there, nothing to do
			}
		}
		// Device disappeared.
		logger.Warn("midi: device disappeared", "device", w.selectedName)
		w.closeConn()
		w.lastRescanAt = time.Time{} // rescan immediately next tick
		if w.onDisconnect != nil {
			go w.onDisconnect()
		}
		return
	}

	// Not connected - try to connect.
	if len(inputs) == 0 {
		return
	}
	cand, ok := w.pickPreferred(inputs)
	if !ok {
		return
	}
	if err := w.openByName(cand); err != nil {
		logger.Error("midi: connect failed", "device", cand, "err", err)
	}
}

// -------------------- internal --------------------

func (w *PortWatcher) listInputs() []string {
	ins, err := w.drv.Ins()
	if err != nil {
		logger.Error("midi: list inputs failed", "err", err)
		return nil
	}
	var names []string
	for _, in := range ins {
		name := in.String()
		excluded := false
		for _, pat := range EXCLUDED_PATTERNS {
			if containsCI(name, pat) {
				excluded = true
				break
			}
		}
		if excluded {
			logger.Debug("midi: input excluded", "device", name)
		} else {
			names = append(names, name)
		}
	}
	logger.Debug("midi: inputs found", "count", len(names), "devices", strings.Join(names, ", "))
	return names
}

func (w *PortWatcher) pickPreferred(inputs []string) (string, bool) {
	for _, pat := range w.preferred {
		for _, name := range inputs {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(w.preferred) == 0 && len(inputs) == 1 {
		return inputs[0], true
	}
	return "", false
}

func (w *PortWatcher) closeConn() {
	if w.stopFn != nil {
		w.stopFn()
		w.stopFn = nil
	}
	if w.inPort != nil {
		_ = w.inPort.Close()
		w.inPort = nil
	}
	w.connected = false
	w.selectedName = ""
}

func (w *PortWatcher) openByName(name string) error {
	ins, err := w.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		w.onBytes(msg.Bytes())
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("midi: listener error", "device", name, "err", listenErr)
		// Must not call closeConn from within the listener goroutine, so
		// we dispatch to a new goroutine and re-acquire the mutex.
		go func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.connected && w.selectedName == name {
				w.closeConn()
				w.lastRescanAt = time.Time{} // trigger immediate rescan
				if w.onDisconnect != nil {
					go w.onDisconnect()
				}
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	w.inPort = found
	w.stopFn = stop
	w.connected = true
	w.selectedName = name
	logger.Info("midi: connected", "device", name)
	return nil
}

// listAllInputs enumerates every MIDI input, including excluded ones. Used
// by -list, which brings up its own short-lived driver.
func listAllInputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// -------------------- utility --------------------

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
