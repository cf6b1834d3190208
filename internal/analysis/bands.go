// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// levelScale maps mean band magnitude to a display level before clamping.
const levelScale = 50.0

// Band is a named frequency range [LowHz, HighHz).
type Band struct {
	Name   string  `json:"name" yaml:"name"`
	LowHz  float64 `json:"low_hz" yaml:"low_hz"`
	HighHz float64 `json:"high_hz" yaml:"high_hz"`
}

// DefaultBands returns the six display bands up to Nyquist.
func DefaultBands(sampleRate float64) []Band {
	return []Band{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: sampleRate/2 + 1},
	}
}

// BandLevels returns one level in [0, 1] per band: the RMS of the bin
// magnitudes falling inside the band, scaled and normalized by frame size.
// Bands with no bins report 0.
func (a *FrameAnalyzer) BandLevels(magnitude []float64, bands []Band) []float64 {
	energy := make([]float64, len(bands))
	counts := make([]int, len(bands))

	for i, m := range magnitude {
		freq := a.extractor.BinFrequency(i)
		for b, band := range bands {
			if freq >= band.LowHz && freq < band.HighHz {
				energy[b] += m * m
				counts[b]++
				break
			}
		}
	}

	for b := range energy {
		if counts[b] > 0 {
			energy[b] = math.Sqrt(energy[b] / float64(counts[b]))
		}
	}
	floats.Scale(2.0/float64(a.frameSize)*levelScale, energy)
	for b, v := range energy {
		energy[b] = math.Min(1, v)
	}
	return energy
}
