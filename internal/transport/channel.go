// SPDX-License-Identifier: MIT
package transport

import "sync"

// Channel delivers snapshots to a single in-process consumer such as the
// terminal monitor. Send drops when the buffer is full.
type Channel struct {
	mu      sync.Mutex
	ch      chan Snapshot
	closed  bool
	dropped uint64
}

// NewChannel returns a Channel buffering up to size snapshots.
func NewChannel(size int) *Channel {
	return &Channel{ch: make(chan Snapshot, max(1, size))}
}

// C returns the receive side. It is closed by Close.
func (c *Channel) C() <-chan Snapshot { return c.ch }

// Send forwards Snapshot values and ignores anything else.
func (c *Channel) Send(data any) error {
	s, ok := data.(Snapshot)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrTransportClosed
	}
	select {
	case c.ch <- s:
	default:
		c.dropped++
	}
	return nil
}

// Dropped returns how many snapshots were discarded because the consumer
// fell behind.
func (c *Channel) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close closes the receive side. Further calls are no-ops.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}

var _ Transport = (*Channel)(nil)
