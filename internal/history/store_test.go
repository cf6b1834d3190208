// SPDX-License-Identifier: MIT
package history

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"
)

func identity(v float64) float64 { return v }

func TestStoreEviction(t *testing.T) {
	s := NewStore[float64](3)
	if s.Cap() != 3 || s.Len() != 0 {
		t.Fatalf("new store Cap=%d Len=%d, want 3 and 0", s.Cap(), s.Len())
	}

	for i := 1; i <= 5; i++ {
		s.Push(float64(i))
		if s.Len() > s.Cap() {
			t.Fatalf("Len %d exceeds Cap %d after push %d", s.Len(), s.Cap(), i)
		}
	}

	if got, want := s.Items(), []float64{3, 4, 5}; !slices.Equal(got, want) {
		t.Errorf("Items() = %v, want %v", got, want)
	}
	if last, ok := s.Last(); !ok || last != 5 {
		t.Errorf("Last() = %v, %v, want 5, true", last, ok)
	}
}

func TestStoreCapacityEvictsOldest(t *testing.T) {
	const capacity = 20
	s := NewStore[int](capacity)
	for i := range capacity + 1 {
		s.Push(i)
	}
	if s.Len() != capacity {
		t.Fatalf("Len() = %d, want %d", s.Len(), capacity)
	}
	if first := s.At(0); first != 1 {
		t.Errorf("oldest entry = %d, want 1 (entry 0 evicted)", first)
	}
}

func TestStoreMinimumCapacity(t *testing.T) {
	s := NewStore[string](0)
	s.Push("a")
	s.Push("b")
	if s.Cap() != 1 || s.Len() != 1 {
		t.Fatalf("Cap=%d Len=%d, want 1 and 1", s.Cap(), s.Len())
	}
	if last, _ := s.Last(); last != "b" {
		t.Errorf("Last() = %q, want \"b\"", last)
	}
}

func TestStoreEmptyQueries(t *testing.T) {
	s := NewStore[float64](5)
	if _, ok := s.Last(); ok {
		t.Error("Last() on empty store reported ok")
	}
	if got := s.MeanOf(identity); got != 0 {
		t.Errorf("MeanOf(empty) = %v, want 0", got)
	}
	if got := s.StdDevOf(identity); got != 0 {
		t.Errorf("StdDevOf(empty) = %v, want 0", got)
	}
	if got := MostFrequent(s, func(v float64) string { return "x" }, "none"); got != "none" {
		t.Errorf("MostFrequent(empty) = %q, want neutral", got)
	}
	if items := s.Items(); len(items) != 0 {
		t.Errorf("Items() = %v, want empty", items)
	}
}

func TestStoreStatistics(t *testing.T) {
	s := NewStore[float64](10)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Push(v)
	}
	if got := s.MeanOf(identity); math.Abs(got-5) > 1e-12 {
		t.Errorf("MeanOf = %v, want 5", got)
	}
	if got := s.StdDevOf(identity); math.Abs(got-2) > 1e-12 {
		t.Errorf("StdDevOf = %v, want population std 2", got)
	}
	if got := s.Count(func(v float64) bool { return v > 4 }); got != 4 {
		t.Errorf("Count(>4) = %d, want 4", got)
	}
}

func TestMostFrequent(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"a"}, "a"},
		{[]string{"a", "b", "b"}, "b"},
		{[]string{"b", "a", "a", "b"}, "b"},
		{[]string{"c", "a", "b"}, "c"},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.in), func(t *testing.T) {
			s := NewStore[string](10)
			for _, v := range tc.in {
				s.Push(v)
			}
			key := func(v string) string { return v }
			if got := MostFrequent(s, key, ""); got != tc.want {
				t.Errorf("MostFrequent(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStoreReset(t *testing.T) {
	s := NewStore[int](2)
	s.Push(1)
	s.Push(2)
	s.Push(3)
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Len() after Reset = %d", s.Len())
	}
	s.Push(9)
	if got := s.Items(); !slices.Equal(got, []int{9}) {
		t.Errorf("Items() after Reset and Push = %v", got)
	}
}

func TestArenaIndependentStreams(t *testing.T) {
	a := NewArena[string, int](3)

	var wg sync.WaitGroup
	for _, key := range []string{"left", "right", "mic"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				a.Push(key, i)
			}
		}()
	}
	wg.Wait()

	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	keys := a.Keys(func(x, y string) bool { return x < y })
	if !slices.Equal(keys, []string{"left", "mic", "right"}) {
		t.Errorf("Keys() = %v", keys)
	}
	for _, key := range keys {
		if got := a.Items(key); !slices.Equal(got, []int{97, 98, 99}) {
			t.Errorf("Items(%q) = %v, want last three pushes", key, got)
		}
	}

	a.Delete("mic")
	if a.Len() != 2 {
		t.Errorf("Len() after Delete = %d, want 2", a.Len())
	}
	if got := a.Items("mic"); got != nil {
		t.Errorf("Items() of deleted key = %v, want nil", got)
	}
	if a.Len() != 2 {
		t.Errorf("Items() of unknown key should not create a store")
	}
}

func BenchmarkStorePush(b *testing.B) {
	s := NewStore[float64](20)
	for b.Loop() {
		s.Push(1)
	}
}
