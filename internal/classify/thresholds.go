// SPDX-License-Identifier: MIT
package classify

import (
	"errors"
	"fmt"
)

// ErrInvalidThresholds is returned by Thresholds.Validate when the bands
// are not ordered.
var ErrInvalidThresholds = errors.New("invalid breathing thresholds")

// Thresholds are the breathing classification boundaries. Rates are in
// breaths per minute; depths and regularity are fractions in [0, 1].
type Thresholds struct {
	NormalRateMin float64 `yaml:"normal_rate_min" json:"normal_rate_min"`
	NormalRateMax float64 `yaml:"normal_rate_max" json:"normal_rate_max"`
	Deep          float64 `yaml:"deep" json:"deep"`
	Shallow       float64 `yaml:"shallow" json:"shallow"`
	Rapid         float64 `yaml:"rapid" json:"rapid"`
	Irregularity  float64 `yaml:"irregularity" json:"irregularity"`
}

// DefaultThresholds returns the stock classification boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NormalRateMin: 8,
		NormalRateMax: 20,
		Deep:          0.7,
		Shallow:       0.3,
		Rapid:         25,
		Irregularity:  0.7,
	}
}

// Validate checks that the rate and depth bands are ordered.
func (t Thresholds) Validate() error {
	if t.NormalRateMin <= 0 || t.NormalRateMin >= t.NormalRateMax {
		return fmt.Errorf("normal rate band [%.1f, %.1f]: %w", t.NormalRateMin, t.NormalRateMax, ErrInvalidThresholds)
	}
	if t.Rapid < t.NormalRateMax {
		return fmt.Errorf("rapid %.1f below normal max %.1f: %w", t.Rapid, t.NormalRateMax, ErrInvalidThresholds)
	}
	if t.Shallow < 0 || t.Deep > 1 || t.Shallow >= t.Deep {
		return fmt.Errorf("depth band shallow %.2f deep %.2f: %w", t.Shallow, t.Deep, ErrInvalidThresholds)
	}
	if t.Irregularity < 0 || t.Irregularity > 1 {
		return fmt.Errorf("irregularity %.2f: %w", t.Irregularity, ErrInvalidThresholds)
	}
	return nil
}

// ThresholdUpdate is a partial change to Thresholds. Nil fields are left
// untouched.
type ThresholdUpdate struct {
	NormalRateMin *float64
	NormalRateMax *float64
	Deep          *float64
	Shallow       *float64
	Rapid         *float64
	Irregularity  *float64
}

// Apply returns t with every non-nil field of u substituted.
func (u ThresholdUpdate) Apply(t Thresholds) Thresholds {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.NormalRateMin, u.NormalRateMin)
	set(&t.NormalRateMax, u.NormalRateMax)
	set(&t.Deep, u.Deep)
	set(&t.Shallow, u.Shallow)
	set(&t.Rapid, u.Rapid)
	set(&t.Irregularity, u.Irregularity)
	return t
}

// RateBand returns an update for the normal rate band.
func RateBand(minRate, maxRate float64) ThresholdUpdate {
	return ThresholdUpdate{NormalRateMin: &minRate, NormalRateMax: &maxRate}
}

// DepthBand returns an update for the deep and shallow boundaries.
func DepthBand(deep, shallow float64) ThresholdUpdate {
	return ThresholdUpdate{Deep: &deep, Shallow: &shallow}
}

// RapidRate returns an update for the rapid breathing boundary.
func RapidRate(rate float64) ThresholdUpdate {
	return ThresholdUpdate{Rapid: &rate}
}

// IrregularityLimit returns an update for the regularity boundary.
func IrregularityLimit(limit float64) ThresholdUpdate {
	return ThresholdUpdate{Irregularity: &limit}
}
