// Package utils provides synthetic signals and small helpers shared by the
// package tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport records everything sent through it instead of transmitting.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores data for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport as closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockTransport) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// GenerateComplexWave returns a 440Hz fundamental with two harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = (math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2) * 0.9
	}
	return buffer
}

// GenerateSineWave returns a sine at 90% of full scale.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	return GenerateTone(size, sampleRate, frequency, 0.9)
}

// GenerateTone returns a sine of the given peak amplitude.
func GenerateTone(size int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return buffer
}

// GenerateSquareWave returns a full-scale square wave that flips sign every
// halfPeriod samples. A halfPeriod of 1 gives the ±1 alternating sequence.
func GenerateSquareWave(size, halfPeriod int) []float64 {
	if halfPeriod < 1 {
		halfPeriod = 1
	}
	buffer := make([]float64, size)
	for i := range buffer {
		if (i/halfPeriod)%2 == 0 {
			buffer[i] = 1
		} else {
			buffer[i] = -1
		}
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
