// SPDX-License-Identifier: MIT
package config

import (
	"audiostate/internal/dsp"
	"audiostate/internal/log"
	"audiostate/pkg/bitint"
	"errors"
	"fmt"
	"net"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration value")

func invalid(format string, v ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, v...), ErrInvalid)
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return invalid("log_level '%s'", c.LogLevel)
	}
	if c.Mode != ModeBreathing && c.Mode != ModeEmotion {
		return invalid("mode '%s' (want %s or %s)", c.Mode, ModeBreathing, ModeEmotion)
	}

	// Analysis
	a := c.Analysis
	if !bitint.IsPowerOfTwo(a.FrameSize) {
		return invalid("analysis.frame_size %d is not a power of 2", a.FrameSize)
	}
	if a.HopSize < 0 || a.HopSize > a.FrameSize {
		return invalid("analysis.hop_size %d outside [0, %d]", a.HopSize, a.FrameSize)
	}
	if _, err := dsp.ParseWindowFunc(a.Window); err != nil {
		return invalid("analysis.window: %v", err)
	}
	if a.RolloffFraction < 0 || a.RolloffFraction > 1 {
		return invalid("analysis.rolloff_fraction %.2f outside [0, 1]", a.RolloffFraction)
	}

	// Breathing
	if c.Breathing.HistorySize < 1 {
		return invalid("breathing.history_size %d", c.Breathing.HistorySize)
	}
	if err := c.Breathing.Thresholds.Validate(); err != nil {
		return fmt.Errorf("breathing.thresholds: %w", err)
	}

	// Adaptation
	ad := c.Adaptation
	if ad.HistorySize < 1 {
		return invalid("adaptation.history_size %d", ad.HistorySize)
	}
	if ad.Sensitivity < 0 || ad.Sensitivity > 1 {
		return invalid("adaptation.sensitivity %.2f outside [0, 1]", ad.Sensitivity)
	}
	if ad.Smoothing < 0 || ad.Smoothing > 1 {
		return invalid("adaptation.smoothing %.2f outside [0, 1]", ad.Smoothing)
	}
	if _, err := ad.EmotionPresets(); err != nil {
		return invalid("%v", err)
	}

	// Audio
	au := c.Audio
	if au.InputDevice < MinDeviceID {
		return invalid("audio.input_device %d", au.InputDevice)
	}
	if au.SampleRate < MinSampleRate || au.SampleRate > MaxSampleRate {
		return invalid("audio.sample_rate %.0f outside [%d, %d]", au.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if au.FramesPerBuffer <= 0 || au.FramesPerBuffer > MaxBufferFrames {
		return invalid("audio.frames_per_buffer %d outside [1, %d]", au.FramesPerBuffer, MaxBufferFrames)
	}
	if au.InputChannels < 1 {
		return invalid("audio.input_channels %d", au.InputChannels)
	}
	if au.SilenceThreshold < 0 || au.SilenceThreshold > 1 {
		return invalid("audio.silence_threshold %.3f outside [0, 1]", au.SilenceThreshold)
	}

	// Recording
	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			return invalid("recording.bit_depth %d (want 16, 24 or 32)", c.Recording.BitDepth)
		}
		if c.Recording.OutputDir == "" {
			return invalid("recording.output_dir must be set when recording is enabled")
		}
	}
	if c.Recording.MaxDuration < 0 {
		return invalid("recording.max_duration_seconds %d", c.Recording.MaxDuration)
	}

	// Transport
	t := c.Transport
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			return invalid("transport.udp_target_address '%s': %v", t.UDPTargetAddress, err)
		}
		if t.UDPSendInterval <= 0 {
			return invalid("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if t.WebSocketEnabled {
		if _, _, err := net.SplitHostPort(t.WebSocketAddress); err != nil {
			return invalid("transport.websocket_address '%s': %v", t.WebSocketAddress, err)
		}
	}

	// Field
	if c.Field.Interval < 0 {
		return invalid("field.interval %s", c.Field.Interval)
	}
	if c.Field.Count < 0 {
		return invalid("field.count %d", c.Field.Count)
	}
	return nil
}
