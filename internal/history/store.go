// SPDX-License-Identifier: MIT
package history

import (
	"gonum.org/v1/gonum/stat"
)

// Store is a bounded FIFO of recent values. When full, Push evicts the
// oldest entry. A Store is not safe for concurrent use; the owning analyzer
// serializes access.
type Store[T any] struct {
	buf   []T
	start int // Index of the oldest entry.
	n     int
}

// NewStore returns an empty store holding at most capacity entries. A
// capacity below one is raised to one.
func NewStore[T any](capacity int) *Store[T] {
	return &Store[T]{buf: make([]T, max(1, capacity))}
}

// Push appends v, evicting the oldest entry when the store is full.
func (s *Store[T]) Push(v T) {
	if s.n < len(s.buf) {
		s.buf[(s.start+s.n)%len(s.buf)] = v
		s.n++
		return
	}
	s.buf[s.start] = v
	s.start = (s.start + 1) % len(s.buf)
}

// Len returns the number of stored entries.
func (s *Store[T]) Len() int { return s.n }

// Cap returns the maximum number of entries.
func (s *Store[T]) Cap() int { return len(s.buf) }

// Reset removes every entry.
func (s *Store[T]) Reset() {
	clear(s.buf)
	s.start, s.n = 0, 0
}

// At returns the i-th entry, oldest first. It panics if i is out of range.
func (s *Store[T]) At(i int) T {
	if i < 0 || i >= s.n {
		panic("history: index out of range")
	}
	return s.buf[(s.start+i)%len(s.buf)]
}

// Last returns the newest entry and whether one exists.
func (s *Store[T]) Last() (T, bool) {
	if s.n == 0 {
		var zero T
		return zero, false
	}
	return s.At(s.n - 1), true
}

// Items returns a copy of the entries, oldest first.
func (s *Store[T]) Items() []T {
	out := make([]T, s.n)
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// Values projects every entry through field, oldest first.
func (s *Store[T]) Values(field func(T) float64) []float64 {
	out := make([]float64, s.n)
	for i := range out {
		out[i] = field(s.At(i))
	}
	return out
}

// MeanOf returns the mean of field over all entries, or 0 when empty.
func (s *Store[T]) MeanOf(field func(T) float64) float64 {
	if s.n == 0 {
		return 0
	}
	return stat.Mean(s.Values(field), nil)
}

// StdDevOf returns the population standard deviation of field, or 0 when
// empty.
func (s *Store[T]) StdDevOf(field func(T) float64) float64 {
	_, std := s.MeanStdDevOf(field)
	return std
}

// MeanStdDevOf returns the mean and population standard deviation of field.
func (s *Store[T]) MeanStdDevOf(field func(T) float64) (mean, std float64) {
	if s.n == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(s.Values(field), nil)
}

// Count returns how many entries satisfy match.
func (s *Store[T]) Count(match func(T) bool) int {
	c := 0
	for i := range s.n {
		if match(s.At(i)) {
			c++
		}
	}
	return c
}

// MostFrequent returns the key that occurs most often in s. Ties go to the
// key seen first, oldest entry first. An empty store yields neutral.
func MostFrequent[T any, K comparable](s *Store[T], key func(T) K, neutral K) K {
	if s.Len() == 0 {
		return neutral
	}
	counts := make(map[K]int)
	order := make([]K, 0, s.Len())
	for i := range s.Len() {
		k := key(s.At(i))
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}
