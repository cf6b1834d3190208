// SPDX-License-Identifier: MIT
package adaptive

import "math"

const (
	tempoTolerance  = 0.01
	boostScale      = 0.1
	reverbDelay     = 0.1 // seconds at full amount
	reverbDecay     = 0.3
	echoLevel       = 0.3
	effectsMinLevel = -1.0
	effectsMaxLevel = 1.0
)

// Effects applies Parameters to sample blocks at a fixed sample rate. Every
// stage returns a new slice and clips to [-1, 1].
type Effects struct {
	sampleRate float64
}

// NewEffects returns an effects chain for the given sample rate.
func NewEffects(sampleRate float64) Effects {
	return Effects{sampleRate: sampleRate}
}

// Apply runs volume, tempo, bass, treble, reverb and echo in that order.
// The result may differ in length from samples when tempo is not 1.
func (e Effects) Apply(samples []float64, p Parameters) []float64 {
	out := Gain(samples, p.Volume)
	out = Tempo(out, p.Tempo)
	out = Boost(out, p.Bass)
	out = Boost(out, p.Treble)
	out = e.Reverb(out, p.Reverb)
	out = e.Echo(out, p.Echo)
	return out
}

// Gain scales every sample by multiplier.
func Gain(samples []float64, multiplier float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = clip(s * multiplier)
	}
	return out
}

// Tempo resamples by stepping through samples multiplier indices at a time.
// Multipliers within 1% of 1, or not positive, leave the block unchanged.
func Tempo(samples []float64, multiplier float64) []float64 {
	if math.Abs(multiplier-1) < tempoTolerance || multiplier <= 0 {
		return append([]float64(nil), samples...)
	}
	out := make([]float64, 0, int(float64(len(samples))/multiplier)+1)
	for pos := 0.0; pos < float64(len(samples)); pos += multiplier {
		out = append(out, samples[int(pos)])
	}
	return out
}

// Boost adds a first-difference emphasis scaled by 0.1*amount. Bass and
// treble share this filter.
func Boost(samples []float64, amount float64) []float64 {
	out := append([]float64(nil), samples...)
	if amount <= 0 {
		return out
	}
	alpha := amount * boostScale
	for i := 1; i < len(out); i++ {
		out[i] = clip(out[i] + alpha*(out[i]-out[i-1]))
	}
	return out
}

// Reverb mixes in a copy delayed by 100 ms * amount at 0.3 * amount.
func (e Effects) Reverb(samples []float64, amount float64) []float64 {
	if amount <= 0 {
		return append([]float64(nil), samples...)
	}
	delay := int(e.sampleRate * reverbDelay * amount)
	return delayMix(samples, delay, reverbDecay*amount)
}

// Echo mixes in a copy delayed by the given seconds at level 0.3.
func (e Effects) Echo(samples []float64, seconds float64) []float64 {
	if seconds <= 0 {
		return append([]float64(nil), samples...)
	}
	return delayMix(samples, int(e.sampleRate*seconds), echoLevel)
}

func delayMix(samples []float64, delay int, level float64) []float64 {
	out := append([]float64(nil), samples...)
	for i := delay; i < len(out); i++ {
		out[i] = clip(out[i] + level*samples[i-delay])
	}
	return out
}

func clip(v float64) float64 {
	return math.Max(effectsMinLevel, math.Min(effectsMaxLevel, v))
}
