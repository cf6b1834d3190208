// SPDX-License-Identifier: MIT
package adaptive

import (
	"audiostate/internal/classify"
	"maps"
)

// Parameters are the playback adjustments applied for an emotion.
type Parameters struct {
	Volume float64 `yaml:"volume" json:"volume"` // Gain multiplier (0 to 2)
	Tempo  float64 `yaml:"tempo" json:"tempo"`   // Playback rate multiplier (0.5 to 2)
	Bass   float64 `yaml:"bass" json:"bass"`     // Low boost (0 to 1)
	Treble float64 `yaml:"treble" json:"treble"` // High boost (0 to 1)
	Reverb float64 `yaml:"reverb" json:"reverb"` // Reverb amount (0 to 1)
	Echo   float64 `yaml:"echo" json:"echo"`     // Echo delay in seconds (0 to 1)
}

// Neutral returns parameters that leave audio unchanged.
func Neutral() Parameters {
	return Parameters{Volume: 1, Tempo: 1}
}

// Blend returns (1-alpha)*next + alpha*prev for every field.
func Blend(prev, next Parameters, alpha float64) Parameters {
	mix := func(p, n float64) float64 { return (1-alpha)*n + alpha*p }
	return Parameters{
		Volume: mix(prev.Volume, next.Volume),
		Tempo:  mix(prev.Tempo, next.Tempo),
		Bass:   mix(prev.Bass, next.Bass),
		Treble: mix(prev.Treble, next.Treble),
		Reverb: mix(prev.Reverb, next.Reverb),
		Echo:   mix(prev.Echo, next.Echo),
	}
}

// DefaultPresets returns the stock parameters for each emotion.
func DefaultPresets() map[classify.Emotion]Parameters {
	return map[classify.Emotion]Parameters{
		classify.Calm:     {Volume: 0.8, Tempo: 0.9, Bass: 0.2, Treble: 0.1, Reverb: 0.3, Echo: 0.1},
		classify.Excited:  {Volume: 1.2, Tempo: 1.1, Bass: 0.4, Treble: 0.3, Reverb: 0.1, Echo: 0.0},
		classify.Stressed: {Volume: 0.7, Tempo: 0.8, Bass: 0.1, Treble: 0.0, Reverb: 0.5, Echo: 0.2},
		classify.Focused:  {Volume: 1.0, Tempo: 1.0, Bass: 0.0, Treble: 0.2, Reverb: 0.0, Echo: 0.0},
		classify.Relaxed:  {Volume: 0.9, Tempo: 0.85, Bass: 0.3, Treble: 0.0, Reverb: 0.4, Echo: 0.15},
	}
}

// DefaultSmoothing is the weight given to the previous mapping.
const DefaultSmoothing = 0.3

// Mapper turns emotions into smoothed Parameters. It is not safe for
// concurrent use; Processor serializes access.
type Mapper struct {
	presets   map[classify.Emotion]Parameters
	smoothing float64
	previous  Parameters
	primed    bool
}

// NewMapper returns a mapper over the default presets. A smoothing factor
// outside [0, 1] falls back to DefaultSmoothing.
func NewMapper(smoothing float64) *Mapper {
	if smoothing < 0 || smoothing > 1 {
		smoothing = DefaultSmoothing
	}
	return &Mapper{
		presets:   DefaultPresets(),
		smoothing: smoothing,
	}
}

// SetPreset overrides the parameters for e.
func (m *Mapper) SetPreset(e classify.Emotion, p Parameters) {
	m.presets[e] = p
}

// Preset returns the unsmoothed parameters for e, or Neutral when none is
// registered.
func (m *Mapper) Preset(e classify.Emotion) Parameters {
	if p, ok := m.presets[e]; ok {
		return p
	}
	return Neutral()
}

// Presets returns a copy of the preset table.
func (m *Mapper) Presets() map[classify.Emotion]Parameters {
	return maps.Clone(m.presets)
}

// Smoothing returns the smoothing factor.
func (m *Mapper) Smoothing() float64 { return m.smoothing }

// Map returns the preset for e smoothed against the previous output. The
// first mapping after construction or Reset is returned as is.
func (m *Mapper) Map(e classify.Emotion) Parameters {
	next := m.Preset(e)
	if m.primed {
		next = Blend(m.previous, next, m.smoothing)
	}
	m.previous, m.primed = next, true
	return next
}

// Reset forgets the previous output.
func (m *Mapper) Reset() {
	m.previous, m.primed = Parameters{}, false
}
