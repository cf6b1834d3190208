// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// Gate passes blocks whose peak level reaches a threshold. The threshold is
// read on the audio thread, so it is stored atomically as float bits.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Uint64
}

// NewGate returns an enabled gate with the given threshold.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.enabled.Store(true)
	g.SetThreshold(threshold)
	return g
}

func (g *Gate) Enable()  { g.enabled.Store(true) }
func (g *Gate) Disable() { g.enabled.Store(false) }

// Enabled reports whether the gate is active.
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// SetThreshold sets the peak level in [0, 1]: 0 is always open, 1 only
// passes full-scale blocks.
func (g *Gate) SetThreshold(threshold float64) {
	g.threshold.Store(math.Float64bits(max(0, min(1, threshold))))
}

// Threshold returns the current threshold.
func (g *Gate) Threshold() float64 {
	return math.Float64frombits(g.threshold.Load())
}

// Open reports whether samples should be analyzed. A disabled gate is
// always open.
func (g *Gate) Open(samples []float64) bool {
	if !g.enabled.Load() {
		return true
	}
	return Peak(samples) >= g.Threshold()
}

// Peak returns the largest absolute sample.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		peak = max(peak, math.Abs(s))
	}
	return peak
}
