// SPDX-License-Identifier: MIT
package classify

import (
	"audiostate/internal/features"
	"fmt"
	"strings"
)

// Emotion is the affective category inferred from a frame.
type Emotion int

const (
	EmotionUnknown Emotion = iota
	Calm
	Excited
	Stressed
	Focused
	Relaxed
)

var emotionNames = [...]string{"UNKNOWN", "CALM", "EXCITED", "STRESSED", "FOCUSED", "RELAXED"}

func (e Emotion) String() string {
	if e < 0 || int(e) >= len(emotionNames) {
		return emotionNames[EmotionUnknown]
	}
	return emotionNames[e]
}

// MarshalText encodes the emotion by name.
func (e Emotion) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes a case-insensitive emotion name.
func (e *Emotion) UnmarshalText(text []byte) error {
	parsed, ok := ParseEmotion(string(text))
	if !ok {
		return &UnknownNameError{Kind: "emotion", Name: string(text)}
	}
	*e = parsed
	return nil
}

// ParseEmotion converts a name, case-insensitive, to an Emotion.
func ParseEmotion(name string) (Emotion, bool) {
	for i, n := range emotionNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Emotion(i), true
		}
	}
	return EmotionUnknown, false
}

// Emotions lists the categories the heuristics can produce.
func Emotions() []Emotion {
	return []Emotion{Calm, Excited, Stressed, Focused, Relaxed}
}

// UnknownNameError reports an enumeration name that could not be parsed.
type UnknownNameError struct {
	Kind string
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown %s name: '%s'", e.Kind, e.Name)
}

// Heuristic maps one frame's features to an emotion.
type Heuristic struct {
	Name     string
	Classify func(features.Set) Emotion
}

// Heuristics returns the voting heuristics in registration order. Their
// thresholds overlap and sometimes disagree; the vote settles it.
func Heuristics() []Heuristic {
	return []Heuristic{
		{Name: "breathing", Classify: BreathingHeuristic},
		{Name: "rhythmic", Classify: RhythmicHeuristic},
		{Name: "spectral", Classify: SpectralHeuristic},
	}
}

// BreathingHeuristic reads slow modulation: a very low dominant frequency is
// relaxed, a high one excited, a loud frame stressed.
func BreathingHeuristic(f features.Set) Emotion {
	switch {
	case f.Fundamental < 0.5:
		return Relaxed
	case f.Fundamental > 2:
		return Excited
	case f.Volume > 0.7:
		return Stressed
	}
	return Calm
}

// RhythmicHeuristic reads the tempo estimate and zero-crossing rate.
func RhythmicHeuristic(f features.Set) Emotion {
	switch {
	case f.Tempo > 120:
		return Excited
	case f.Tempo < 80:
		return Relaxed
	case f.ZeroCrossingRate > 0.3:
		return Focused
	}
	return Calm
}

// SpectralHeuristic reads the spectral centroid and rolloff.
func SpectralHeuristic(f features.Set) Emotion {
	switch {
	case f.Centroid > 2000:
		return Focused
	case f.Centroid < 500:
		return Relaxed
	case f.Rolloff > 4000:
		return Excited
	}
	return Calm
}

// Ballot is the outcome of a vote.
type Ballot struct {
	Winner Emotion
	Votes  []Emotion // One per heuristic, in registration order.
	Agree  int       // Number of heuristics that voted for Winner.
}

// Share returns the fraction of heuristics that agreed with the winner.
func (b Ballot) Share() float64 {
	if len(b.Votes) == 0 {
		return 0
	}
	return float64(b.Agree) / float64(len(b.Votes))
}

// Vote runs every heuristic and returns the majority choice. When no
// emotion gets more votes than the others the earliest heuristic's choice
// wins.
func Vote(f features.Set, heuristics []Heuristic) Ballot {
	if len(heuristics) == 0 {
		return Ballot{Winner: EmotionUnknown}
	}
	votes := make([]Emotion, len(heuristics))
	counts := make(map[Emotion]int, len(heuristics))
	for i, h := range heuristics {
		votes[i] = h.Classify(f)
		counts[votes[i]]++
	}

	winner := votes[0]
	for _, v := range votes[1:] {
		if counts[v] > counts[winner] {
			winner = v
		}
	}
	return Ballot{Winner: winner, Votes: votes, Agree: counts[winner]}
}

// Confidence blends heuristic agreement with history stability, weighted by
// sensitivity in [0, 1]: sensitivity*agreement + (1-sensitivity)*stability.
func Confidence(agreement, stability, sensitivity float64) float64 {
	sensitivity = clamp(sensitivity, 0, 1)
	return clamp(sensitivity*agreement+(1-sensitivity)*stability, 0, 1)
}
