// SPDX-License-Identifier: MIT
package udp

import (
	"audiostate/internal/transport"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Kind              | uint8          | 1            | 1 breathing, 2 emotion  |
| Label Length      | uint8          | 1            | Bytes in Label (L)      |
| Label             | []byte         | L            | State or emotion name   |
| Rate              | float32        | 4            | Breaths per minute      |
| Depth             | float32        | 4            | 0 to 1                  |
| Stress            | float32        | 4            | 0 to 1                  |
| Relaxation        | float32        | 4            | 0 to 1                  |
| Confidence        | float32        | 4            | 0 to 1                  |
| Level Count       | uint16         | 2            | Number of levels (N)    |
| Levels            | []float32      | N * 4        | Band levels, 0 to 1     |
+-----------------------------------------------------------------------------+
*/

// HeaderSize is the encoded size of a packet with no label and no levels.
const HeaderSize = 4 + 8 + 1 + 1 + 5*4 + 2

// ErrShortPacket is returned when a packet ends before its declared length.
var ErrShortPacket = errors.New("udp: short packet")

type scalars struct {
	Rate, Depth, Stress, Relaxation, Confidence float32
}

// Encode writes s into buf, replacing its contents.
func Encode(buf *bytes.Buffer, seq uint32, s transport.Snapshot) error {
	label := s.Label
	if len(label) > 255 {
		label = label[:255]
	}
	levels := make([]float32, min(len(s.Levels), 0xFFFF))
	for i := range levels {
		levels[i] = float32(s.Levels[i])
	}

	buf.Reset()
	fields := []any{
		seq,
		s.Timestamp.UnixNano(),
		uint8(s.Kind),
		uint8(len(label)),
		[]byte(label),
		scalars{
			Rate:       float32(s.Rate),
			Depth:      float32(s.Depth),
			Stress:     float32(s.Stress),
			Relaxation: float32(s.Relaxation),
			Confidence: float32(s.Confidence),
		},
		uint16(len(levels)),
		levels,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.BigEndian, f); err != nil {
			return fmt.Errorf("udp: packing %T: %w", f, err)
		}
	}
	return nil
}

// Decode parses a packet produced by Encode. Source and the fields not
// carried on the wire are left empty.
func Decode(packet []byte) (uint32, transport.Snapshot, error) {
	var s transport.Snapshot
	if len(packet) < HeaderSize {
		return 0, s, ErrShortPacket
	}
	r := bytes.NewReader(packet)

	var (
		seq      uint32
		ts       int64
		kind     uint8
		labelLen uint8
	)
	for _, f := range []any{&seq, &ts, &kind, &labelLen} {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return 0, s, ErrShortPacket
		}
	}
	label := make([]byte, labelLen)
	var sc scalars
	var count uint16
	for _, f := range []any{label, &sc, &count} {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return 0, s, ErrShortPacket
		}
	}
	levels := make([]float32, count)
	if err := binary.Read(r, binary.BigEndian, levels); err != nil {
		return 0, s, ErrShortPacket
	}

	s = transport.Snapshot{
		Kind:       transport.Kind(kind),
		Label:      string(label),
		Rate:       float64(sc.Rate),
		Depth:      float64(sc.Depth),
		Stress:     float64(sc.Stress),
		Relaxation: float64(sc.Relaxation),
		Confidence: float64(sc.Confidence),
		Levels:     make([]float64, count),
		Timestamp:  time.Unix(0, ts),
	}
	for i, v := range levels {
		s.Levels[i] = float64(v)
	}
	return seq, s, nil
}
