// SPDX-License-Identifier: MIT
package udp

import (
	"audiostate/internal/transport"
	"bytes"
	"errors"
	"sync"
	"time"
)

// DefaultInterval is used when a publisher is given a non-positive interval.
const DefaultInterval = 16 * time.Millisecond

// PacketSender delivers one encoded packet. UDPSender is the production
// implementation.
type PacketSender interface {
	Send(packet []byte) error
}

// SnapshotSource yields the snapshot to publish on each tick.
type SnapshotSource interface {
	Load() (transport.Snapshot, bool)
}

// UDPPublisher periodically encodes the latest snapshot and sends it. It
// runs in its own goroutine between Start and Stop.
type UDPPublisher struct {
	sender   PacketSender
	source   SnapshotSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum  uint32
	lastSent     time.Time     // Timestamp of the last snapshot sent.
	packetBuffer *bytes.Buffer // Reused between ticks.
}

// NewUDPPublisher creates a publisher reading from source.
func NewUDPPublisher(interval time.Duration, sender PacketSender, source SnapshotSource) (*UDPPublisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: sender cannot be nil")
	}
	if source == nil {
		return nil, errors.New("UDPPublisher: snapshot source cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
		logger.Warnf("Invalid publish interval, defaulting to %s", interval)
	}

	logger.Infof("Publisher initializing (Interval: %s)", interval)
	return &UDPPublisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		logger.Warnf("Publisher Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		logger.Debugf("Publisher goroutine started")
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				logger.Debugf("Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the goroutine and waits for it to exit. Safe to call more
// than once.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	logger.Infof("Publisher stopped after %d packets.", p.Sequence())
	return nil
}

// Sequence returns the sequence number of the last packet built.
func (p *UDPPublisher) Sequence() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sequenceNum
}

// publish sends the current snapshot. Nothing is sent before the first
// snapshot arrives or when it has not changed since the previous tick.
func (p *UDPPublisher) publish() {
	snap, ok := p.source.Load()
	if !ok {
		return
	}

	p.mu.Lock()
	if snap.Timestamp.Equal(p.lastSent) {
		p.mu.Unlock()
		return
	}
	p.lastSent = snap.Timestamp
	p.sequenceNum++
	seq := p.sequenceNum
	p.mu.Unlock()

	if err := Encode(p.packetBuffer, seq, snap); err != nil {
		logger.Errorf("Error packing snapshot: %v", err)
		return
	}
	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		return
	}
	logger.Debugf("Sent packet %d (%d bytes)", seq, p.packetBuffer.Len())
}

// Close stops the publisher.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*UDPPublisher)(nil)
