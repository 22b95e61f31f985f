package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"channel low", func(c *Config) { c.Channel = 0 }, "channel"},
		{"channel high", func(c *Config) { c.Channel = 17 }, "channel"},
		{"amp source", func(c *Config) { c.AmpSource = "loudness" }, "amp_source"},
		{"high note", func(c *Config) { c.HighNote = 128 }, "high_note"},
		{"empty range", func(c *Config) { c.LowNote = 95 }, "note range"},
		{"inverted range", func(c *Config) { c.LowNote = 96 }, "note range"},
		{"zero pulse", func(c *Config) { c.TriggerPulseUs = 0 }, "trigger_pulse_us"},
		{"zero retrigger", func(c *Config) { c.RetriggerMs = 0 }, "retrigger_ms"},
		{"resolution low", func(c *Config) { c.Resolution = 1 }, "resolution"},
		{"resolution high", func(c *Config) { c.Resolution = 500 }, "resolution"},
		{"serial baud", func(c *Config) { c.SerialBaud = 0 }, "serial_baud"},
		{"cv baud", func(c *Config) { c.CVBaud = -1 }, "cv_baud"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestParseAmpSourceAliases(t *testing.T) {
	cases := map[string]AmpSource{
		"velocity":   AmpVelocity,
		"vel":        AmpVelocity,
		"Velocity":   AmpVelocity,
		"modulation": AmpModulation,
		"mod":        AmpModulation,
		"cc1":        AmpModulation,
		"breath":     AmpBreath,
		"cc2":        AmpBreath,
	}
	for in, want := range cases {
		got, err := ParseAmpSource(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "midi2cv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channel: 4\nmulti_trigger: true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Channel)
	assert.True(t, cfg.MultiTrigger)
	assert.Equal(t, 240, cfg.Resolution, "unset fields keep their defaults")
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channel: [\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "midi2cv.yaml")

	want := DefaultConfig()
	want.Channel = 7
	want.AmpSource = "breath"
	want.MultiTrigger = true
	want.CVPort = "/dev/ttyUSB1"

	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
