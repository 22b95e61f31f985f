package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the translator: the voice behaviour
// on top, the I/O devices below. Zero values are filled from DefaultConfig
// when loading.
type Config struct {
	Channel      int    `yaml:"channel"`       // MIDI channel, 1-16
	AmpSource    string `yaml:"amp_source"`    // velocity | modulation | breath
	MultiTrigger bool   `yaml:"multi_trigger"` // force gate-off/on on overlapping notes
	LowNote      uint8  `yaml:"low_note"`
	HighNote     uint8  `yaml:"high_note"`

	TriggerPulseUs uint32 `yaml:"trigger_pulse_us"`
	RetriggerMs    uint32 `yaml:"retrigger_ms"`
	Resolution     int    `yaml:"resolution"` // duty steps per output

	MIDIInput  string `yaml:"midi_input"`  // preferred port name substring
	SerialIn   string `yaml:"serial_in"`   // DIN MIDI serial device
	SerialBaud int    `yaml:"serial_baud"` // DIN line rate
	CVPort     string `yaml:"cv_port"`     // interface board serial device
	CVBaud     int    `yaml:"cv_baud"`
}

// DefaultConfig returns the settings matching the stock interface board:
// a 5-octave range starting at C2 and a 240-step output.
func DefaultConfig() Config {
	return Config{
		Channel:        1,
		AmpSource:      "velocity",
		MultiTrigger:   false,
		LowNote:        36,
		HighNote:       95,
		TriggerPulseUs: 1000,
		RetriggerMs:    5,
		Resolution:     240,
		SerialBaud:     MIDIBaud,
		CVBaud:         115200,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file is
// not an error; the defaults are returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("config: no file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	logger.Info("config: loaded", "path", path)
	return cfg, nil
}

// SaveConfig writes the configuration as YAML, creating parent directories
// as needed.
func SaveConfig(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logger.Info("config: saved", "path", path)
	return nil
}

// Validate checks every field against its legal range and returns an error
// naming the first offending field.
func (c Config) Validate() error {
	if c.Channel < 1 || c.Channel > 16 {
		return fmt.Errorf("channel %d out of range 1-16", c.Channel)
	}
	if _, err := ParseAmpSource(c.AmpSource); err != nil {
		return err
	}
	if c.HighNote > 127 {
		return fmt.Errorf("high_note %d out of range 0-127", c.HighNote)
	}
	if c.LowNote >= c.HighNote {
		return fmt.Errorf("note range %d-%d is empty", c.LowNote, c.HighNote)
	}
	if c.TriggerPulseUs == 0 {
		return fmt.Errorf("trigger_pulse_us must be positive")
	}
	if c.RetriggerMs == 0 {
		return fmt.Errorf("retrigger_ms must be positive")
	}
	if c.Resolution < 2 || c.Resolution > 256 {
		return fmt.Errorf("resolution %d out of range 2-256", c.Resolution)
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("serial_baud must be positive")
	}
	if c.CVBaud <= 0 {
		return fmt.Errorf("cv_baud must be positive")
	}
	return nil
}
