// SPDX-License-Identifier: MIT
package config

import (
	"audiostate/internal/adaptive"
	"audiostate/internal/classify"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestDefault_Validates(t *testing.T) {
	t.Parallel()
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration should validate, got %v", err)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("expected read error for missing file, got %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
mode: emotion
log_level: debug
analysis:
  frame_size: 2048
  hop_size: 256
  window: blackman
breathing:
  thresholds:
    normal_rate_min: 10
    normal_rate_max: 18
    deep: 0.8
    shallow: 0.2
    rapid: 30
    irregularity: 0.5
adaptation:
  sensitivity: 0.5
  presets:
    calm:
      volume: 0.5
      tempo: 0.8
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.1:7000"
  udp_send_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Mode != ModeEmotion {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeEmotion)
	}
	if cfg.Analysis.FrameSize != 2048 || cfg.Analysis.HopSize != 256 {
		t.Errorf("Analysis = %+v, want frame 2048 hop 256", cfg.Analysis)
	}
	if cfg.Breathing.Thresholds.Rapid != 30 {
		t.Errorf("Thresholds.Rapid = %.1f, want 30", cfg.Breathing.Thresholds.Rapid)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Breathing.HistorySize != 20 {
		t.Errorf("Breathing.HistorySize = %d, want default 20", cfg.Breathing.HistorySize)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("Audio.SampleRate = %.0f, want default %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("UDPSendInterval = %s, want 50ms", cfg.Transport.UDPSendInterval)
	}

	presets, err := cfg.Adaptation.EmotionPresets()
	if err != nil {
		t.Fatalf("EmotionPresets() error = %v", err)
	}
	if got := presets[classify.Calm].Volume; got != 0.5 {
		t.Errorf("calm preset volume = %.2f, want 0.5", got)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "mode: breathing\n")
	t.Setenv("ENV_MODE", "emotion")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "192.168.1.2:9000")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("ENV_ANALYSIS_FRAME_SIZE", "not-a-number")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Mode != ModeEmotion {
		t.Errorf("Mode = %q, want env override %q", cfg.Mode, ModeEmotion)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "192.168.1.2:9000" {
		t.Errorf("Transport = %+v, want UDP enabled at 192.168.1.2:9000", cfg.Transport)
	}
	if cfg.Transport.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("UDPSendInterval = %s, want 10ms", cfg.Transport.UDPSendInterval)
	}
	if cfg.Analysis.FrameSize != DefaultFrameSize {
		t.Errorf("FrameSize = %d, unparseable override should be ignored", cfg.Analysis.FrameSize)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad mode", func(c *Config) { c.Mode = "music" }},
		{"frame not power of two", func(c *Config) { c.Analysis.FrameSize = 1000 }},
		{"zero frame", func(c *Config) { c.Analysis.FrameSize = 0 }},
		{"hop larger than frame", func(c *Config) { c.Analysis.HopSize = 4096 }},
		{"negative hop", func(c *Config) { c.Analysis.HopSize = -1 }},
		{"unknown window", func(c *Config) { c.Analysis.Window = "kaiser" }},
		{"rolloff above one", func(c *Config) { c.Analysis.RolloffFraction = 1.5 }},
		{"breathing history", func(c *Config) { c.Breathing.HistorySize = 0 }},
		{"inverted rate band", func(c *Config) { c.Breathing.Thresholds.NormalRateMin = 30 }},
		{"adaptation history", func(c *Config) { c.Adaptation.HistorySize = 0 }},
		{"sensitivity above one", func(c *Config) { c.Adaptation.Sensitivity = 2 }},
		{"negative smoothing", func(c *Config) { c.Adaptation.Smoothing = -0.1 }},
		{"unknown preset", func(c *Config) { c.Adaptation.Presets = map[string]adaptive.Parameters{"angry": {}} }},
		{"device below default", func(c *Config) { c.Audio.InputDevice = -2 }},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }},
		{"sample rate too high", func(c *Config) { c.Audio.SampleRate = 384000 }},
		{"buffer too large", func(c *Config) { c.Audio.FramesPerBuffer = MaxBufferFrames + 1 }},
		{"no channels", func(c *Config) { c.Audio.InputChannels = 0 }},
		{"silence above one", func(c *Config) { c.Audio.SilenceThreshold = 2 }},
		{"recording bit depth", func(c *Config) { c.Recording.Enabled = true; c.Recording.BitDepth = 8 }},
		{"recording without dir", func(c *Config) { c.Recording.Enabled = true; c.Recording.OutputDir = "" }},
		{"udp bad address", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "nowhere" }},
		{"udp zero interval", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPSendInterval = 0 }},
		{"websocket bad address", func(c *Config) { c.Transport.WebSocketEnabled = true; c.Transport.WebSocketAddress = "" }},
		{"negative field interval", func(c *Config) { c.Field.Interval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}

func TestValidate_WrapsSentinels(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analysis.FrameSize = 100
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}

	cfg = Default()
	cfg.Breathing.Thresholds.Deep = 0.1
	if err := cfg.Validate(); !errors.Is(err, classify.ErrInvalidThresholds) {
		t.Errorf("expected classify.ErrInvalidThresholds, got %v", err)
	}
}

func TestMarshal_RoundTripsThroughLoad(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Mode = ModeEmotion
	cfg.Field.Enabled = true

	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	loaded, err := LoadConfig(writeTempConfig(t, string(data)))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Mode != ModeEmotion || !loaded.Field.Enabled {
		t.Errorf("loaded = %+v, want mode emotion with field enabled", loaded)
	}
}
