// SPDX-License-Identifier: MIT
package config

import (
	"audiostate/internal/adaptive"
	"audiostate/internal/classify"
	"fmt"
	"time"
)

// Boundaries and defaults for the engine.
const (
	DefaultFrameSize       = 1024
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
	DefaultInputChannels   = 1
	DefaultSilenceLevel    = 0.01
	DefaultWindow          = "Hann"

	MinDeviceID     = -1     // -1 represents the system default device
	MinSampleRate   = 8000   // Hz
	MaxSampleRate   = 192000 // Hz
	MaxBufferFrames = 8192

	// Consecutive recording write failures before recording is disabled.
	DefaultMaxConsecutiveWriteFailures = 5
)

// Analysis modes.
const (
	ModeBreathing = "breathing"
	ModeEmotion   = "emotion"
)

// Config is the application configuration, loaded from YAML.
type Config struct {
	Debug      bool             `yaml:"debug"`     // Enable debug logging.
	LogLevel   string           `yaml:"log_level"` // "debug", "info", "warn" or "error".
	Mode       string           `yaml:"mode"`      // "breathing" or "emotion".
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Breathing  BreathingConfig  `yaml:"breathing"`
	Adaptation AdaptationConfig `yaml:"adaptation"`
	Audio      AudioConfig      `yaml:"audio"`
	Recording  RecordingConfig  `yaml:"recording"`
	Transport  TransportConfig  `yaml:"transport"`
	Field      FieldConfig      `yaml:"field"`
}

// AnalysisConfig holds frame pipeline settings shared by both analyzers.
type AnalysisConfig struct {
	FrameSize       int     `yaml:"frame_size"`       // Transform size, a power of two.
	HopSize         int     `yaml:"hop_size"`         // Overlap hop in samples, 0 for frame_size/4.
	Window          string  `yaml:"window"`           // Window function name, e.g. "Hann".
	RolloffFraction float64 `yaml:"rolloff_fraction"` // Energy fraction for spectral rolloff.
	Overlap         bool    `yaml:"overlap"`          // Analyze files as overlapping frames.
}

// BreathingConfig holds breathing analyzer settings.
type BreathingConfig struct {
	HistorySize int                 `yaml:"history_size"`
	Thresholds  classify.Thresholds `yaml:"thresholds"`
}

// AdaptationConfig holds emotion processor settings. Presets are keyed by
// emotion name and replace the built-in entry for that emotion.
type AdaptationConfig struct {
	HistorySize int                            `yaml:"history_size"`
	Sensitivity float64                        `yaml:"sensitivity"`
	Smoothing   float64                        `yaml:"smoothing"`
	Presets     map[string]adaptive.Parameters `yaml:"presets,omitempty"`
}

// AudioConfig holds live capture settings.
type AudioConfig struct {
	InputDevice      int     `yaml:"input_device"`      // PortAudio device index, -1 for default.
	SampleRate       float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer  int     `yaml:"frames_per_buffer"` // Frames per capture callback.
	LowLatency       bool    `yaml:"low_latency"`       // Request the device's low latency setting.
	InputChannels    int     `yaml:"input_channels"`    // Captured channels, down-mixed to mono.
	SilenceThreshold float64 `yaml:"silence_threshold"` // Peak level below which blocks are not analyzed.
}

// RecordingConfig holds capture-to-file settings.
type RecordingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	OutputDir   string `yaml:"output_dir"`
	BitDepth    int    `yaml:"bit_depth"`            // 16, 24 or 32.
	MaxDuration int    `yaml:"max_duration_seconds"` // 0 for unlimited.
}

// TransportConfig holds result publishing settings.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// FieldConfig holds background field loop settings.
type FieldConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Seed     int64         `yaml:"seed"`
	Count    int           `yaml:"count"` // Fields created at startup.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Mode:     ModeBreathing,
		Analysis: AnalysisConfig{
			FrameSize: DefaultFrameSize,
			Window:    DefaultWindow,
		},
		Breathing: BreathingConfig{
			HistorySize: 20,
			Thresholds:  classify.DefaultThresholds(),
		},
		Adaptation: AdaptationConfig{
			HistorySize: adaptive.DefaultHistorySize,
			Sensitivity: adaptive.DefaultSensitivity,
			Smoothing:   adaptive.DefaultSmoothing,
		},
		Audio: AudioConfig{
			InputDevice:      MinDeviceID,
			SampleRate:       DefaultSampleRate,
			FramesPerBuffer:  DefaultFramesPerBuffer,
			InputChannels:    DefaultInputChannels,
			SilenceThreshold: DefaultSilenceLevel,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WebSocketAddress: "127.0.0.1:8080",
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond,
		},
		Field: FieldConfig{
			Interval: 16 * time.Millisecond,
			Seed:     1,
			Count:    4,
		},
	}
}

// EmotionPresets converts the configured presets to emotion keys.
func (c *AdaptationConfig) EmotionPresets() (map[classify.Emotion]adaptive.Parameters, error) {
	out := make(map[classify.Emotion]adaptive.Parameters, len(c.Presets))
	for name, p := range c.Presets {
		e, ok := classify.ParseEmotion(name)
		if !ok {
			return nil, fmt.Errorf("adaptation.presets: unknown emotion '%s'", name)
		}
		out[e] = p
	}
	return out, nil
}
