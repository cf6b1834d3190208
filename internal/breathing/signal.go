// SPDX-License-Identifier: MIT
package breathing

// Minimum filtered amplitude for a local maximum to count as a breath peak.
const peakThreshold = 0.1

// LowPass applies the 3-tap smoother 0.25*(x[i-1] + 2x[i] + x[i+1]) to the
// interior samples, leaving the endpoints as they are. It returns a new
// slice.
func LowPass(samples []float64) []float64 {
	out := make([]float64, len(samples))
	copy(out, samples)
	for i := 1; i < len(samples)-1; i++ {
		out[i] = 0.25 * (samples[i-1] + 2*samples[i] + samples[i+1])
	}
	return out
}

// Peaks returns the indices of strict local maxima above peakThreshold.
func Peaks(samples []float64) []int {
	var peaks []int
	for i := 1; i < len(samples)-1; i++ {
		s := samples[i]
		if s > samples[i-1] && s > samples[i+1] && s > peakThreshold {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// Intervals converts consecutive peak positions to durations in seconds.
func Intervals(peaks []int, sampleRate float64) []float64 {
	if len(peaks) < 2 || sampleRate <= 0 {
		return nil
	}
	out := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		out[i-1] = float64(peaks[i]-peaks[i-1]) / sampleRate
	}
	return out
}

// Cycle returns the samples between the first two peaks, or a copy of the
// whole buffer when fewer than two peaks exist.
func Cycle(samples []float64, peaks []int) []float64 {
	if len(peaks) >= 2 && peaks[1] > peaks[0] && peaks[1] < len(samples) {
		return append([]float64(nil), samples[peaks[0]:peaks[1]]...)
	}
	return append([]float64(nil), samples...)
}
