// SPDX-License-Identifier: MIT
package analysis

// Processor is the interface for components that consume blocks of mono
// samples. Implementations are usually called from the capture callback and
// should return quickly.
type Processor interface {
	Process(samples []float64)
}

// ClosableProcessor combines Processor with a Close method for cleanup.
type ClosableProcessor interface {
	Processor
	Close() error
}

// ProcessorFunc adapts an ordinary function to the Processor interface.
type ProcessorFunc func(samples []float64)

// Process calls f(samples).
func (f ProcessorFunc) Process(samples []float64) { f(samples) }
