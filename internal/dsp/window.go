// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the taper applied to each frame before the transform.
type WindowFunc int

// Available window functions. Hann is the default used by the analyzers.
const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Nuttall
	Lanczos
)

// String returns the configuration name of the window.
func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case BartlettHann:
		return "bartletthann"
	case Nuttall:
		return "nuttall"
	case Lanczos:
		return "lanczos"
	default:
		return "unknown"
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "nuttall":
		return Nuttall, nil
	case "lanczos":
		return Lanczos, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// Window holds precomputed taper coefficients for one frame length.
// Coefficients are computed once and only read afterwards, so a Window is
// safe for concurrent use.
type Window struct {
	kind   WindowFunc
	coeffs []float64
}

// NewWindow computes the coefficients of the given window for a frame of n
// samples. A one-sample window is the identity.
func NewWindow(n int, kind WindowFunc) *Window {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	// The gonum windows divide by n-1; a single coefficient stays at 1.
	if n > 1 {
		switch kind {
		case Hamming:
			window.Hamming(coeffs)
		case Blackman:
			window.Blackman(coeffs)
		case BlackmanNuttall:
			window.BlackmanNuttall(coeffs)
		case BartlettHann:
			window.BartlettHann(coeffs)
		case Nuttall:
			window.Nuttall(coeffs)
		case Lanczos:
			window.Lanczos(coeffs)
		default:
			kind = Hann
			window.Hann(coeffs)
		}
	}
	return &Window{kind: kind, coeffs: coeffs}
}

// Kind returns the window function in use.
func (w *Window) Kind() WindowFunc {
	return w.kind
}

// Len returns the frame length the window was built for.
func (w *Window) Len() int {
	return len(w.coeffs)
}

// Coefficients returns a copy of the taper.
func (w *Window) Coefficients() []float64 {
	out := make([]float64, len(w.coeffs))
	copy(out, w.coeffs)
	return out
}

// ApplyInto writes src tapered by the window into dst. dst must have the
// window length; src samples past its end are taken as zero and extra src
// samples are ignored.
func (w *Window) ApplyInto(dst, src []float64) {
	for i, c := range w.coeffs {
		if i < len(src) {
			dst[i] = src[i] * c
		} else {
			dst[i] = 0
		}
	}
}

// Apply returns a new tapered copy of src, padded or truncated to the window
// length. src is not modified.
func (w *Window) Apply(src []float64) []float64 {
	dst := make([]float64, len(w.coeffs))
	w.ApplyInto(dst, src)
	return dst
}
