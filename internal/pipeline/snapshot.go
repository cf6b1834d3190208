// SPDX-License-Identifier: MIT
package pipeline

import (
	"audiostate/internal/adaptive"
	"audiostate/internal/breathing"
	"audiostate/internal/transport"
)

// FromBreathing converts a breathing result. Levels and Source are filled in
// by the caller.
func FromBreathing(r breathing.Result) transport.Snapshot {
	return transport.Snapshot{
		Kind:        transport.KindBreathing,
		Label:       r.State.String(),
		Pattern:     r.Pattern.String(),
		Rate:        r.Rate,
		Depth:       r.Depth,
		Stress:      r.Stress,
		Relaxation:  r.Relaxation,
		Fundamental: r.Features.Fundamental,
		Volume:      r.Features.Volume,
		Timestamp:   r.Timestamp,
	}
}

// FromEmotion converts an emotion result.
func FromEmotion(r adaptive.Result) transport.Snapshot {
	return transport.Snapshot{
		Kind:        transport.KindEmotion,
		Label:       r.Emotion.String(),
		Confidence:  r.Confidence,
		Fundamental: r.Features.Fundamental,
		Volume:      r.Features.Volume,
		Timestamp:   r.Timestamp,
	}
}
