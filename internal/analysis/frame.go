// SPDX-License-Identifier: MIT
package analysis

import (
	"audiostate/internal/dsp"
	"audiostate/internal/features"
	"audiostate/internal/log"
	"audiostate/pkg/bitint"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrInvalidSampleRate is returned when an analyzer is configured with a
	// non-positive sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")

	// ErrNotInitialized is returned by operations that need a configured
	// analyzer when Initialize has not succeeded.
	ErrNotInitialized = errors.New("analyzer not initialized")
)

var logger = log.Component("Analysis")

// Config describes a frame pipeline. Zero values select defaults: Hann
// window, DefaultRolloffFraction and a hop of FrameSize/4.
type Config struct {
	FrameSize       int
	SampleRate      float64
	Window          dsp.WindowFunc
	RolloffFraction float64
	HopSize         int
}

// Frame is the analysis of one block of samples.
type Frame struct {
	Samples  []float64 // Samples is the raw block as given, before padding.
	Spectrum dsp.Spectrum
	Features features.Set
}

// Pre-allocated buffers for a single pass through the pipeline.
type workspace struct {
	padded []float64
	coeffs []complex128
}

// FrameAnalyzer runs window, transform and feature extraction over fixed-size
// frames. Everything except the hop size is fixed at construction, so Analyze
// and Segment are safe for concurrent use.
type FrameAnalyzer struct {
	frameSize  int
	sampleRate float64
	hop        atomic.Int64
	window     *dsp.Window
	transform  *dsp.Transform
	extractor  *features.Extractor
	pool       sync.Pool
}

// NewFrameAnalyzer validates cfg and precomputes the window and transform
// tables.
func NewFrameAnalyzer(cfg Config) (*FrameAnalyzer, error) {
	if !bitint.IsPowerOfTwo(cfg.FrameSize) {
		return nil, fmt.Errorf("frame size %d: %w", cfg.FrameSize, dsp.ErrNotPowerOfTwo)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %.1f: %w", cfg.SampleRate, ErrInvalidSampleRate)
	}

	transform, err := dsp.NewTransform(cfg.FrameSize)
	if err != nil {
		return nil, err
	}

	n := cfg.FrameSize
	a := &FrameAnalyzer{
		frameSize:  n,
		sampleRate: cfg.SampleRate,
		window:     dsp.NewWindow(n, cfg.Window),
		transform:  transform,
		extractor:  features.NewExtractor(cfg.SampleRate, n, cfg.RolloffFraction),
	}
	a.pool.New = func() any {
		return &workspace{
			padded: make([]float64, n),
			coeffs: make([]complex128, n),
		}
	}

	hop := cfg.HopSize
	if hop == 0 {
		hop = DefaultHopSize(n)
	}
	a.SetHopSize(hop)

	logger.Debugf("Initialized frame analyzer (Size: %d, SampleRate: %.1f Hz, Window: %v, Hop: %d)",
		n, cfg.SampleRate, cfg.Window, a.HopSize())
	return a, nil
}

// DefaultHopSize is a quarter of the frame, never less than one sample.
func DefaultHopSize(frameSize int) int {
	return max(1, frameSize/4)
}

// FrameSize returns the number of samples per frame.
func (a *FrameAnalyzer) FrameSize() int { return a.frameSize }

// SampleRate returns the configured sample rate in Hz.
func (a *FrameAnalyzer) SampleRate() float64 { return a.sampleRate }

// Extractor returns the feature extractor used for every frame.
func (a *FrameAnalyzer) Extractor() *features.Extractor { return a.extractor }

// HopSize returns the distance in samples between consecutive frames.
func (a *FrameAnalyzer) HopSize() int { return int(a.hop.Load()) }

// SetHopSize sets the segmentation hop, clamped to [1, FrameSize].
func (a *FrameAnalyzer) SetHopSize(hop int) {
	hop = max(1, min(hop, a.frameSize))
	a.hop.Store(int64(hop))
}

// Analyze windows and transforms one block. Blocks shorter than the frame are
// zero-padded and longer ones truncated for the spectrum; time-domain
// features use the block as given. samples is never modified.
func (a *FrameAnalyzer) Analyze(samples []float64) Frame {
	ws := a.pool.Get().(*workspace)
	defer a.pool.Put(ws)

	// --- 1. Window (pads or truncates to frame size) ---
	a.window.ApplyInto(ws.padded, samples)

	// --- 2. Transform ---
	a.transform.Forward(ws.coeffs, ws.padded)

	// --- 3. Spectrum and features ---
	spectrum := dsp.NewSpectrum(ws.coeffs)
	return Frame{
		Samples:  samples,
		Spectrum: spectrum,
		Features: a.extractor.Extract(spectrum.Magnitude, samples),
	}
}

// Segment analyzes samples as overlapping frames and returns the results in
// temporal order.
func (a *FrameAnalyzer) Segment(samples []float64) []Frame {
	frames := a.Frames(samples)
	results := make([]Frame, len(frames))
	for i, f := range frames {
		results[i] = a.Analyze(f)
	}
	return results
}

// Frames splits samples into frames of FrameSize at the current hop. The
// returned slices alias samples. A buffer shorter than one frame yields
// itself as the only frame.
func (a *FrameAnalyzer) Frames(samples []float64) [][]float64 {
	n, hop := a.frameSize, a.HopSize()
	count := FrameCount(len(samples), n, hop)
	if len(samples) < n {
		return [][]float64{samples}
	}
	frames := make([][]float64, 0, count)
	for start := 0; start+n <= len(samples); start += hop {
		frames = append(frames, samples[start:start+n:start+n])
	}
	return frames
}

// FrameCount returns how many frames Frames produces for a buffer of length
// total: floor((total-frameSize)/hop)+1, or 1 when the buffer is shorter than
// a frame.
func FrameCount(total, frameSize, hop int) int {
	if total < frameSize || frameSize <= 0 {
		return 1
	}
	hop = max(1, hop)
	return (total-frameSize)/hop + 1
}
