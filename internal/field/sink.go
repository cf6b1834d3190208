// SPDX-License-Identifier: MIT
package field

import (
	"audiostate/internal/transport"
	"sync"
)

// Sink is a transport that steers a Collection from analysis snapshots:
// the volume becomes the intensity target and every label change excites
// the resting fields.
type Sink struct {
	c *Collection

	mu    sync.Mutex
	label string
}

// NewSink returns a sink driving c.
func NewSink(c *Collection) *Sink {
	return &Sink{c: c}
}

func (s *Sink) Send(data any) error {
	snap, ok := data.(transport.Snapshot)
	if !ok {
		return nil
	}
	s.c.SetTarget(snap.Volume)

	s.mu.Lock()
	changed := snap.Label != s.label
	s.label = snap.Label
	s.mu.Unlock()
	if changed {
		s.c.Excite()
	}
	return nil
}

func (s *Sink) Close() error { return nil }

var _ transport.Transport = (*Sink)(nil)
