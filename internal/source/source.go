// SPDX-License-Identifier: MIT

// Package source decodes audio files into mono float64 samples in [-1, 1].
package source

import (
	"audiostate/internal/log"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned for file extensions with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

var logger = log.Component("Source")

// Audio is a decoded file, down-mixed to one channel.
type Audio struct {
	Samples    []float64
	SampleRate float64
	Channels   int // Channel count before down-mixing.
	Format     string
}

// Duration returns the playing time of the samples.
func (a *Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(a.Samples)) / a.SampleRate * float64(time.Second))
}

// Formats lists the supported file extensions.
func Formats() []string {
	return []string{".wav", ".flac", ".mp3", ".ogg"}
}

// Load opens path and decodes it by extension.
func Load(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	var a *Audio
	switch ext {
	case ".wav":
		a, err = DecodeWAV(f)
	case ".flac":
		a, err = DecodeFLAC(f)
	case ".mp3":
		a, err = DecodeMP3(f)
	case ".ogg":
		a, err = DecodeOGG(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	logger.Infof("Loaded %s (%s, %.0f Hz, %d ch, %s)",
		filepath.Base(path), a.Format, a.SampleRate, a.Channels, a.Duration().Round(time.Millisecond))
	return a, nil
}

// Mono averages interleaved frames of channels samples. A trailing partial
// frame is dropped.
func Mono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	out := make([]float64, len(interleaved)/channels)
	for i := range out {
		var sum float64
		for _, v := range interleaved[i*channels : (i+1)*channels] {
			sum += v
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// readAll drains a reader that reports io.EOF together with its last data.
func readAll[T any](read func([]T) (int, error), chunk int) ([]T, error) {
	var out []T
	buf := make([]T, chunk)
	for {
		n, err := read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
