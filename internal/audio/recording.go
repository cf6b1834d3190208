// SPDX-License-Identifier: MIT
package audio

import (
	"audiostate/internal/config"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrRecorderClosed is returned by Write after Close.
	ErrRecorderClosed = errors.New("recorder closed")
	// ErrRecordingFull is returned by Write once the frame limit is reached.
	ErrRecordingFull = errors.New("recording reached its maximum duration")
)

// Recorder writes float samples in [-1, 1] to a PCM WAV file.
type Recorder struct {
	mu        sync.Mutex
	file      *os.File
	encoder   *wav.Encoder
	buf       *audio.IntBuffer
	scale     float64
	channels  int
	maxFrames int // 0 for unlimited.
	frames    int
	failures  int
	closed    bool
}

// NewRecorder creates path and prepares a WAV encoder. bitDepth must be 16,
// 24 or 32. maxFrames limits the recording length; 0 means unlimited.
func NewRecorder(path string, sampleRate float64, channels, bitDepth, maxFrames int) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	logger.Infof("Recording to %s (%.0f Hz, %d-bit, %d ch)", path, sampleRate, bitDepth, channels)
	return &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, int(sampleRate), bitDepth, channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: int(sampleRate)},
			SourceBitDepth: bitDepth,
		},
		scale:     float64(int64(1)<<(bitDepth-1) - 1),
		channels:  channels,
		maxFrames: maxFrames,
	}, nil
}

// Write appends interleaved samples. After
// config.DefaultMaxConsecutiveWriteFailures failed writes in a row the
// recorder closes itself.
func (r *Recorder) Write(samples []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}

	frames := len(samples) / r.channels
	if r.maxFrames > 0 {
		if r.frames >= r.maxFrames {
			return ErrRecordingFull
		}
		frames = min(frames, r.maxFrames-r.frames)
	}
	samples = samples[:frames*r.channels]

	data := r.buf.Data[:0]
	for _, s := range samples {
		data = append(data, int(math.Round(max(-1, min(1, s))*r.scale)))
	}
	r.buf.Data = data

	if err := r.encoder.Write(r.buf); err != nil {
		r.failures++
		if r.failures >= config.DefaultMaxConsecutiveWriteFailures {
			logger.Errorf("Recording disabled after %d consecutive write failures: %v", r.failures, err)
			r.closeLocked()
		}
		return fmt.Errorf("writing WAV data: %w", err)
	}
	r.failures = 0
	r.frames += frames
	return nil
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close finalizes the WAV header and closes the file. Further calls are
// no-ops.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) closeLocked() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.encoder.Close(), r.file.Close())
}

// WriteWAV writes mono samples to path in one call.
func WriteWAV(path string, samples []float64, sampleRate float64, bitDepth int) error {
	r, err := NewRecorder(path, sampleRate, 1, bitDepth, 0)
	if err != nil {
		return err
	}
	if err := r.Write(samples); err != nil {
		r.Close()
		return err
	}
	return r.Close()
}
