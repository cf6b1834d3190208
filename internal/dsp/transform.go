// SPDX-License-Identifier: MIT
package dsp

import (
	"audiostate/pkg/bitint"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrNotPowerOfTwo is returned when a transform or analyzer is configured with
// a frame size the radix-2 transform cannot handle.
var ErrNotPowerOfTwo = errors.New("frame size must be a power of 2")

// Transform is a fixed-size forward discrete Fourier transform over real
// input. It uses iterative radix-2 decimation in time: a bit-reversal
// permutation followed by log2(N) butterfly stages. Output is unnormalized.
//
// A Transform is immutable after construction and safe for concurrent use;
// all scratch space is supplied by the caller.
type Transform struct {
	size     int
	stages   int
	reversed []int        // reversed[i] is the bit-reversed position of i.
	twiddle  []complex128 // twiddle[k] = exp(-2πik/N) for k < N/2.
}

// NewTransform precomputes the permutation and twiddle tables for an n point
// transform. n must be a power of two; n = 1 is the degenerate identity.
func NewTransform(n int) (*Transform, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("transform size %d: %w", n, ErrNotPowerOfTwo)
	}

	stages := bitint.Log2(n)
	reversed := make([]int, n)
	for i := range n {
		reversed[i] = int(bitint.ReverseBits(uint(i), stages))
	}

	twiddle := make([]complex128, n/2)
	for k := range twiddle {
		angle := -2 * math.Pi * float64(k) / float64(n)
		twiddle[k] = complex(math.Cos(angle), math.Sin(angle))
	}

	return &Transform{
		size:     n,
		stages:   stages,
		reversed: reversed,
		twiddle:  twiddle,
	}, nil
}

// Size returns the number of points.
func (t *Transform) Size() int {
	return t.size
}

// Forward transforms src into dst. Both must have length Size(); src is read
// only. Samples beyond len(src) are treated as zero, so a shorter src is
// implicitly zero-padded.
func (t *Transform) Forward(dst []complex128, src []float64) {
	n := t.size
	if len(dst) != n {
		panic(fmt.Sprintf("dsp: destination length %d does not match transform size %d", len(dst), n))
	}

	// --- 1. Bit-reversal permutation ---
	for i := range n {
		j := t.reversed[i]
		if j < len(src) {
			dst[i] = complex(src[j], 0)
		} else {
			dst[i] = 0
		}
	}

	// --- 2. Butterfly stages ---
	// Stage s merges pairs of length-half transforms. The twiddle for butterfly
	// j in a block of length size is exp(-2πij/size) = twiddle[j*n/size].
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size
		for start := 0; start < n; start += size {
			for j := range half {
				w := t.twiddle[j*step]
				u := dst[start+j]
				v := dst[start+j+half] * w
				dst[start+j] = u + v
				dst[start+j+half] = u - v
			}
		}
	}
}

// Coefficients is a convenience wrapper around Forward that allocates the
// output slice.
func (t *Transform) Coefficients(src []float64) []complex128 {
	dst := make([]complex128, t.size)
	t.Forward(dst, src)
	return dst
}

// Spectrum holds the one-sided magnitude and phase of a transform, N/2+1 bins.
// It is created per frame and not modified afterwards.
type Spectrum struct {
	Magnitude []float64
	Phase     []float64
}

// NewSpectrum derives the one-sided spectrum from full transform output.
func NewSpectrum(coeffs []complex128) Spectrum {
	if len(coeffs) == 0 {
		return Spectrum{}
	}
	bins := len(coeffs)/2 + 1
	s := Spectrum{
		Magnitude: make([]float64, bins),
		Phase:     make([]float64, bins),
	}
	for i := range bins {
		s.Magnitude[i] = cmplx.Abs(coeffs[i])
		s.Phase[i] = cmplx.Phase(coeffs[i])
	}
	return s
}

// Bins returns the number of frequency bins.
func (s Spectrum) Bins() int {
	return len(s.Magnitude)
}
