// SPDX-License-Identifier: MIT
package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Feature extraction defaults.
const (
	DefaultRolloffFraction = 0.85  // Share of spectral magnitude below the rolloff frequency
	MinTempo               = 60.0  // BPM floor of the tempo heuristic
	MaxTempo               = 200.0 // BPM ceiling of the tempo heuristic
	tempoPerCrossingRate   = 120.0 // BPM per unit zero-crossing rate
)

// Set is the scalar description of one analyzed frame. Frequencies are in Hz
// and lie in [0, sampleRate/2]; Volume and ZeroCrossingRate lie in [0, 1].
type Set struct {
	Fundamental      float64   `json:"fundamental_hz"`
	Centroid         float64   `json:"centroid_hz"`
	Rolloff          float64   `json:"rolloff_hz"`
	ZeroCrossingRate float64   `json:"zero_crossing_rate"`
	Tempo            float64   `json:"tempo_bpm"`
	Volume           float64   `json:"volume"`
	Timestamp        time.Time `json:"timestamp"`
}

// Extractor derives a Set from a one-sided magnitude spectrum and the raw
// frame it came from. It holds configuration only, so it is safe for
// concurrent use.
type Extractor struct {
	sampleRate      float64
	frameSize       int
	rolloffFraction float64
}

// NewExtractor creates an extractor for spectra of frameSize-point transforms
// at the given sample rate. A rolloff fraction outside (0, 1] falls back to
// DefaultRolloffFraction.
func NewExtractor(sampleRate float64, frameSize int, rolloffFraction float64) *Extractor {
	if rolloffFraction <= 0 || rolloffFraction > 1 {
		rolloffFraction = DefaultRolloffFraction
	}
	return &Extractor{
		sampleRate:      sampleRate,
		frameSize:       frameSize,
		rolloffFraction: rolloffFraction,
	}
}

// RolloffFraction returns the configured rolloff energy fraction.
func (e *Extractor) RolloffFraction() float64 {
	return e.rolloffFraction
}

// Extract computes every feature. raw is the unwindowed frame; magnitude is
// the spectrum of its windowed, zero-padded copy.
func (e *Extractor) Extract(magnitude, raw []float64) Set {
	zcr := ZeroCrossingRate(raw)
	return Set{
		Fundamental:      e.Fundamental(magnitude),
		Centroid:         e.Centroid(magnitude),
		Rolloff:          e.Rolloff(magnitude),
		ZeroCrossingRate: zcr,
		Tempo:            Tempo(zcr),
		Volume:           Volume(raw),
		Timestamp:        time.Now(),
	}
}

// BinFrequency returns the center frequency of a bin in Hz.
func (e *Extractor) BinFrequency(bin int) float64 {
	if bin <= 0 || e.frameSize <= 0 {
		return 0
	}
	return float64(bin) * e.sampleRate / float64(e.frameSize)
}

// FrequencyBin returns the bin holding the given frequency, truncating.
func (e *Extractor) FrequencyBin(frequency float64) int {
	if frequency <= 0 || e.sampleRate <= 0 {
		return 0
	}
	return int(frequency * float64(e.frameSize) / e.sampleRate)
}

// Fundamental returns the frequency of the loudest bin. This is a plain peak
// pick: it follows the strongest partial rather than the perceived pitch.
func (e *Extractor) Fundamental(magnitude []float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}
	return e.BinFrequency(floats.MaxIdx(magnitude))
}

// Centroid returns the magnitude-weighted mean frequency, or 0 for a silent
// spectrum.
func (e *Extractor) Centroid(magnitude []float64) float64 {
	total := floats.Sum(magnitude)
	if total <= 0 {
		return 0
	}
	var weighted float64
	for i, m := range magnitude {
		weighted += e.BinFrequency(i) * m
	}
	return weighted / total
}

// Rolloff returns the frequency of the first bin at which the cumulative
// magnitude reaches the configured fraction of the total.
func (e *Extractor) Rolloff(magnitude []float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}
	total := floats.Sum(magnitude)
	if total <= 0 {
		return 0
	}
	target := total * e.rolloffFraction
	var cumulative float64
	for i, m := range magnitude {
		cumulative += m
		if cumulative >= target {
			return e.BinFrequency(i)
		}
	}
	return e.BinFrequency(len(magnitude) - 1)
}

// ZeroCrossingRate returns the fraction of adjacent sample pairs whose signs
// differ, treating zero as positive.
func ZeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i] >= 0) != (frame[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}

// Tempo maps a zero-crossing rate to beats per minute, clamped to
// [MinTempo, MaxTempo]. It is a coarse heuristic, not a beat tracker.
func Tempo(zcr float64) float64 {
	return clamp(zcr*tempoPerCrossingRate, MinTempo, MaxTempo)
}

// Volume returns the RMS level of the frame, clamped to [0, 1].
func Volume(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	rms := math.Sqrt(floats.Dot(frame, frame) / float64(len(frame)))
	return math.Min(1, rms)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
