// SPDX-License-Identifier: MIT
package transport

import (
	"audiostate/internal/log"
	"errors"
	"sync"
	"time"
)

var logger = log.Component("Transport")

// Transport sends processed results somewhere. Implementations must be safe
// for concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}

// Kind identifies which analyzer produced a snapshot.
type Kind uint8

const (
	KindBreathing Kind = iota + 1
	KindEmotion
)

func (k Kind) String() string {
	switch k {
	case KindBreathing:
		return "breathing"
	case KindEmotion:
		return "emotion"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Snapshot is the transport-neutral view of one analysis result. Label is
// the breathing state or the emotion; fields that do not apply to a Kind are
// left at zero.
type Snapshot struct {
	Source      string    `json:"source"`
	Kind        Kind      `json:"kind"`
	Label       string    `json:"label"`
	Pattern     string    `json:"pattern,omitempty"`
	Rate        float64   `json:"rate_bpm,omitempty"`
	Depth       float64   `json:"depth,omitempty"`
	Stress      float64   `json:"stress,omitempty"`
	Relaxation  float64   `json:"relaxation,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	Fundamental float64   `json:"fundamental_hz"`
	Volume      float64   `json:"volume"`
	Levels      []float64 `json:"levels"`
	Timestamp   time.Time `json:"timestamp"`
}

// Latest keeps the most recent Snapshot sent to it. It is the hand-off point
// between the analysis path and periodic publishers.
type Latest struct {
	mu   sync.RWMutex
	snap Snapshot
	ok   bool
}

// Send stores data if it is a Snapshot and ignores anything else.
func (l *Latest) Send(data any) error {
	var s Snapshot
	switch v := data.(type) {
	case Snapshot:
		s = v
	case *Snapshot:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return nil
	}
	s.Levels = append([]float64(nil), s.Levels...)

	l.mu.Lock()
	l.snap, l.ok = s, true
	l.mu.Unlock()
	return nil
}

// Load returns a copy of the latest snapshot and whether one has been sent.
func (l *Latest) Load() (Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.snap
	s.Levels = append([]float64(nil), s.Levels...)
	return s, l.ok
}

func (l *Latest) Close() error { return nil }

// Multi fans every Send out to a fixed set of transports.
type Multi []Transport

// Send delivers data to every transport and joins their errors.
func (m Multi) Send(data any) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Transport = (*Latest)(nil)
	_ Transport = Multi(nil)
)
