package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// -------------------- Logger --------------------

// logger is the package-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler. quiet drops
// the level to Warn, used while the monitor owns the terminal.
func initLogger(debug, quiet bool) {
	level := slog.LevelInfo
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger = slog.New(h)
	slog.SetDefault(logger) // stdlib log.* now routes through slog
}

// -------------------- Pitch helpers --------------------

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func pitchName(pitch int) string {
	if pitch < 0 {
		return fmt.Sprintf("?\"%d\"", pitch)
	}
	return fmt.Sprintf("%s%d", noteNames[pitch%12], (pitch/12)-1)
}

// -------------------- Tunables --------------------

const POLL_INTERVAL_MS = 1
const BYTE_BUDGET = 256
const QUEUE_BYTES = 1024

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// -------------------- Translator --------------------

// translator wires the byte queue, decoder, voice and sink together. All of
// their state is owned by the run loop goroutine; the input goroutines only
// touch the queue, and device loss is handed over through an atomic flag.
type translator struct {
	src     ByteSource
	dec     *Decoder
	voice   *Voice
	sink    OutputSink
	watcher *PortWatcher // nil when running serial-only
	input   string       // fixed input description when no port is connected

	lost   atomic.Bool
	events uint64
	snaps  chan<- monitorSnap // nil without -tui
}

func (t *translator) run(stop <-chan struct{}) {
	ticker := time.NewTicker(ms(POLL_INTERVAL_MS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick is one pass of the poll loop: queued input bytes through the decoder
// into the voice, then the time-based voice transitions, then the sink.
func (t *translator) tick() {
	if t.watcher != nil {
		t.watcher.Tick()
	}
	if t.lost.Swap(false) {
		logger.Warn("voice: input lost, silencing")
		t.voice.Silence()
	}
	for i := 0; i < BYTE_BUDGET; i++ {
		b, ok := t.src.TryByte()
		if !ok {
			break
		}
		if ev, ok := t.dec.ProcessByte(b); ok {
			t.events++
			t.apply(ev)
		}
	}
	t.voice.Tick()
	t.sink.Flush()
	t.pushSnap()
}

func (t *translator) apply(ev Event) {
	switch ev.Type {
	case EventNoteOn:
		logger.Info("decode: note on", "note", pitchName(int(ev.Note)), "velocity", ev.Velocity)
		t.voice.NoteOn(ev.Note, ev.Velocity)
	case EventNoteOff:
		logger.Info("decode: note off", "note", pitchName(int(ev.Note)))
		t.voice.NoteOff(ev.Note)
	case EventControlChange:
		logger.Debug("decode: control change", "controller", ev.Controller, "value", ev.Value)
		t.voice.ControlChange(ev.Controller, ev.Value)
	}
}

func (t *translator) pushSnap() {
	if t.snaps == nil {
		return
	}
	input := t.input
	if t.watcher != nil {
		if name, ok := t.watcher.Selected(); ok {
			input = name
		}
	}
	snap := monitorSnap{
		Out:    t.sink.State(),
		Input:  input,
		Events: t.events,
		Drops:  t.src.Drops(),
	}
	if n, ok := t.voice.Playing(); ok {
		snap.Note = n
		snap.HasNote = true
	}
	select {
	case t.snaps <- snap:
	default:
	}
}

// -------------------- List mode --------------------

func runList() int {
	code := 0

	fmt.Println("MIDI inputs:")
	ins, err := listAllInputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, "  error:", err)
		code = 1
	} else if len(ins) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, n := range ins {
			fmt.Printf("  %s\n", n)
		}
	}

	fmt.Println("Serial ports:")
	ports, err := listSerialPorts()
	if err != nil {
		fmt.Fprintln(os.Stderr, "  error:", err)
		code = 1
	} else if len(ports) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, p := range ports {
			fmt.Printf("  %s\n", p)
		}
	}

	return code
}

// -------------------- Main --------------------

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	list := flag.Bool("list", false, "list MIDI inputs and serial ports, then exit")
	dry := flag.Bool("dry", false, "log output transitions instead of driving the board")
	tui := flag.Bool("tui", false, "show live voice state in the terminal")
	configPath := flag.String("config", "", "YAML config file")
	writeConfig := flag.Bool("write-config", false, "write the effective configuration to -config and exit")
	channel := flag.Int("channel", 0, "MIDI channel 1-16")
	ampSource := flag.String("amp-source", "", "amplitude source: velocity, modulation or breath")
	multiTrigger := flag.Bool("multi-trigger", false, "retrigger the envelope on overlapping notes")
	midiIn := flag.String("midi-in", "", "preferred MIDI input name (substring match)")
	serialIn := flag.String("serial-in", "", "DIN MIDI serial device (e.g. /dev/ttyUSB0)")
	cvPort := flag.String("cv-port", "", "interface board serial device")
	flag.Parse()

	initLogger(*debug, *tui && !*debug)

	if *list {
		os.Exit(runList())
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			logger.Error("config: load failed", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}

	// Flags given explicitly override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "channel":
			cfg.Channel = *channel
		case "amp-source":
			cfg.AmpSource = *ampSource
		case "multi-trigger":
			cfg.MultiTrigger = *multiTrigger
		case "midi-in":
			cfg.MIDIInput = *midiIn
		case "serial-in":
			cfg.SerialIn = *serialIn
		case "cv-port":
			cfg.CVPort = *cvPort
		}
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("config: invalid", "err", err)
		os.Exit(1)
	}

	if *writeConfig {
		if *configPath == "" {
			logger.Error("config: -write-config needs -config")
			os.Exit(1)
		}
		if err := SaveConfig(*configPath, cfg); err != nil {
			logger.Error("config: save failed", "err", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("midi2cv starting",
		"channel", cfg.Channel,
		"amp_source", cfg.AmpSource,
		"multi_trigger", cfg.MultiTrigger,
		"notes", fmt.Sprintf("%s-%s", pitchName(int(cfg.LowNote)), pitchName(int(cfg.HighNote))),
		"resolution", cfg.Resolution,
		"debug", *debug,
	)

	// Output sink: the interface board over serial, or the logger.
	var sink OutputSink
	if cfg.CVPort != "" && !*dry {
		port, err := OpenCVPort(cfg.CVPort, cfg.CVBaud)
		if err != nil {
			logger.Error("serial: cv port failed", "err", err)
			os.Exit(1)
		}
		defer port.Close()
		sink = newFrameSink(port)
	} else {
		if cfg.CVPort == "" && !*dry {
			logger.Info("cv: no board configured, logging output state")
		}
		sink = newLogSink()
	}

	clock := newSystemClock()
	voice, err := NewVoice(cfg, clock, sink)
	if err != nil {
		logger.Error("voice: init failed", "err", err)
		os.Exit(1)
	}

	q := newByteQueue(QUEUE_BYTES)
	t := &translator{
		src:   q,
		dec:   NewDecoder(cfg.Channel),
		voice: voice,
		sink:  sink,
	}

	// Inputs: DIN serial, hot-plug MIDI port, or both feeding one queue.
	if cfg.SerialIn != "" {
		sin, err := OpenSerialIn(cfg.SerialIn, cfg.SerialBaud, q)
		if err != nil {
			logger.Error("serial: midi input failed", "err", err)
			os.Exit(1)
		}
		defer sin.Close()
		t.input = cfg.SerialIn
	}
	if cfg.SerialIn == "" || cfg.MIDIInput != "" {
		var preferred []string
		if cfg.MIDIInput != "" {
			preferred = []string{cfg.MIDIInput}
		}
		watcher, err := NewPortWatcher(preferred, q.PushAll, func() { t.lost.Store(true) })
		if err != nil {
			logger.Error("midi: watcher init failed", "err", err)
			os.Exit(1)
		}
		defer watcher.Close()
		t.watcher = watcher
	}

	var snaps chan monitorSnap
	if *tui {
		snaps = make(chan monitorSnap, 1)
		t.snaps = snaps
	}

	if t.watcher != nil {
		logger.Info("running, waiting for MIDI device")
	} else {
		logger.Info("running", "input", cfg.SerialIn)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		t.run(stop)
		close(done)
	}()

	if *tui {
		p := tea.NewProgram(newMonitorModel(cfg, snaps))
		if _, err := p.Run(); err != nil {
			logger.Error("monitor: terminal failed", "err", err)
		}
	} else {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		logger.Info("shutting down", "signal", s.String())
	}

	close(stop)
	<-done

	// Drop the outputs before the ports close so no note hangs.
	voice.Silence()
	sink.Flush()
}
