// SPDX-License-Identifier: MIT
package classify

import (
	"math"
	"strings"
)

// Breathing rate limits in breaths per minute.
const (
	MinBreathingRate = 4.0
	MaxBreathingRate = 60.0
)

// Pattern classification boundaries.
const (
	PatternMinHistory    = 3
	regularVariation     = 0.1
	irregularVariation   = 0.3
	relaxedPatternRate   = 8.0
	stressedPatternRate  = 20.0
	exercisePatternRate  = 15.0
	irregularStressScale = 0.5
	relaxationInBand     = 0.4
	relaxationPerRegular = 0.3
	relaxationPerDepth   = 0.3
)

// State is the instantaneous breathing classification.
type State int

const (
	Unknown State = iota
	Normal
	Deep
	Shallow
	Rapid
	Irregular
	Holding
)

var stateNames = [...]string{"UNKNOWN", "NORMAL", "DEEP", "SHALLOW", "RAPID", "IRREGULAR", "HOLDING"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return stateNames[Unknown]
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseState converts a name, case-insensitive, to a State.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), true
		}
	}
	return Unknown, false
}

// Pattern describes the breathing rate trend over the history window.
type Pattern int

const (
	PatternUnknown Pattern = iota
	PatternRegular
	PatternIrregular
	PatternRelaxed
	PatternStressed
	PatternExercise
	PatternCyclical
)

var patternNames = [...]string{"UNKNOWN", "REGULAR", "IRREGULAR", "RELAXED", "STRESSED", "EXERCISE", "CYCLICAL"}

func (p Pattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return patternNames[PatternUnknown]
	}
	return patternNames[p]
}

// MarshalText encodes the pattern by name.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Measurement is the input to the breathing decision table.
type Measurement struct {
	Rate       float64 // breaths per minute
	Depth      float64 // [0, 1]
	Regularity float64 // [0, 1], 1 = perfectly regular
}

type rule struct {
	match  func(m Measurement, t Thresholds) bool
	result func(m Measurement, t Thresholds) State
}

func always(s State) func(Measurement, Thresholds) State {
	return func(Measurement, Thresholds) State { return s }
}

// The decision table, evaluated top to bottom; the first match wins.
var stateRules = []rule{
	{
		match: func(m Measurement, t Thresholds) bool { return m.Rate < t.NormalRateMin },
		result: func(m Measurement, t Thresholds) State {
			if m.Depth > t.Deep {
				return Deep
			}
			return Holding
		},
	},
	{
		match:  func(m Measurement, t Thresholds) bool { return m.Rate > t.Rapid },
		result: always(Rapid),
	},
	{
		match: func(m Measurement, t Thresholds) bool { return m.Rate > t.NormalRateMax },
		result: func(m Measurement, t Thresholds) State {
			if m.Depth < t.Shallow {
				return Shallow
			}
			return Rapid
		},
	},
	{
		match:  func(m Measurement, t Thresholds) bool { return m.Regularity < t.Irregularity },
		result: always(Irregular),
	},
	{
		match:  func(m Measurement, t Thresholds) bool { return m.Depth > t.Deep },
		result: always(Deep),
	},
	{
		match:  func(m Measurement, t Thresholds) bool { return m.Depth < t.Shallow },
		result: always(Shallow),
	},
}

// Classify runs the breathing decision table.
func Classify(m Measurement, t Thresholds) State {
	for _, r := range stateRules {
		if r.match(m, t) {
			return r.result(m, t)
		}
	}
	return Normal
}

// BreathingRate converts a dominant frequency in Hz to breaths per minute,
// clamped to [MinBreathingRate, MaxBreathingRate].
func BreathingRate(fundamental float64) float64 {
	return clamp(fundamental*60, MinBreathingRate, MaxBreathingRate)
}

// BreathingDepth maps frame volume to depth: min(1, 2*volume).
func BreathingDepth(volume float64) float64 {
	return math.Min(1, volume*2)
}

// Regularity returns 1 - min(1, sd/mean) for the rate history, floored at
// zero. Fewer than two entries count as perfectly regular.
func Regularity(mean, stdDev float64, n int) float64 {
	if n < 2 || mean <= 0 {
		return 1
	}
	return math.Max(0, 1-math.Min(1, stdDev/mean))
}

// ClassifyPattern labels a rate history from its mean, population standard
// deviation and length. Histories shorter than PatternMinHistory are
// PatternUnknown; a zero mean has no variation and counts as regular.
func ClassifyPattern(mean, stdDev float64, n int) Pattern {
	if n < PatternMinHistory {
		return PatternUnknown
	}
	if mean == 0 {
		return PatternRegular
	}
	cv := stdDev / mean
	switch {
	case cv < regularVariation:
		return PatternRegular
	case cv > irregularVariation:
		return PatternIrregular
	case mean < relaxedPatternRate:
		return PatternRelaxed
	case mean > stressedPatternRate:
		return PatternStressed
	case mean > exercisePatternRate:
		return PatternExercise
	}
	return PatternCyclical
}

// Stress scores rate excess, irregularity and shallowness, clamped to [0, 1].
func Stress(m Measurement, t Thresholds) float64 {
	var stress float64
	if span := t.Rapid - t.NormalRateMax; m.Rate > t.NormalRateMax && span > 0 {
		stress += (m.Rate - t.NormalRateMax) / span
	}
	stress += (1 - m.Regularity) * irregularStressScale
	if m.Depth < t.Shallow && t.Shallow > 0 {
		stress += (t.Shallow - m.Depth) / t.Shallow
	}
	return clamp(stress, 0, 1)
}

// Relaxation scores an in-band rate, regularity and depth beyond the deep
// boundary, clamped to [0, 1].
func Relaxation(m Measurement, t Thresholds) float64 {
	var relaxation float64
	if m.Rate >= t.NormalRateMin && m.Rate <= t.NormalRateMax {
		relaxation += relaxationInBand
	}
	relaxation += m.Regularity * relaxationPerRegular
	if m.Depth > t.Deep {
		relaxation += (m.Depth - t.Deep) * relaxationPerDepth
	}
	return clamp(relaxation, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
