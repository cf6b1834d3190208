// SPDX-License-Identifier: MIT
package breathing

import (
	"audiostate/internal/analysis"
	"audiostate/internal/classify"
	"audiostate/internal/dsp"
	"audiostate/pkg/utils"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
)

// A low sample rate keeps breathing frequencies on exact bins: 1024 points
// at 64 Hz resolve 0.0625 Hz, so 0.25 Hz lands on bin 4 (15 breaths/min).
const (
	testFrameSize  = 1024
	testSampleRate = 64.0
	// RMS 0.25, so depth 0.5.
	normalAmplitude = 0.25 * math.Sqrt2
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a := New(DefaultConfig())
	if err := a.Initialize(testFrameSize, testSampleRate); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return a
}

func breath(bpm float64) []float64 {
	return utils.GenerateTone(testFrameSize, testSampleRate, bpm/60, normalAmplitude)
}

func TestInitializeErrors(t *testing.T) {
	tests := []struct {
		name       string
		frameSize  int
		sampleRate float64
		want       error
	}{
		{"zero frame", 0, testSampleRate, dsp.ErrNotPowerOfTwo},
		{"odd frame", 1000, testSampleRate, dsp.ErrNotPowerOfTwo},
		{"zero rate", testFrameSize, 0, analysis.ErrInvalidSampleRate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := New(DefaultConfig())
			err := a.Initialize(tc.frameSize, tc.sampleRate)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Initialize error = %v, want %v", err, tc.want)
			}
			if a.Initialized() {
				t.Error("analyzer reports initialized after failure")
			}
			res := a.Analyze(breath(15))
			if res.State != classify.Unknown || res.Pattern != classify.PatternUnknown {
				t.Errorf("Analyze after failed Initialize = %v/%v, want UNKNOWN", res.State, res.Pattern)
			}
			if len(a.History()) != 0 {
				t.Error("failed analyzer recorded history")
			}
			if err := a.SetHopSize(4); !errors.Is(err, analysis.ErrNotInitialized) {
				t.Errorf("SetHopSize error = %v, want ErrNotInitialized", err)
			}
		})
	}
}

func TestFailedReinitializeDropsState(t *testing.T) {
	a := newTestAnalyzer(t)
	a.Analyze(breath(15))
	if err := a.Initialize(3, testSampleRate); err == nil {
		t.Fatal("Initialize(3) succeeded")
	}
	if a.Initialized() || len(a.History()) != 0 {
		t.Error("state retained after failed Initialize")
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := newTestAnalyzer(t)
	res := a.Analyze(nil)
	if res.State != classify.Unknown || res.Pattern != classify.PatternUnknown {
		t.Errorf("Analyze(nil) = %v/%v, want UNKNOWN", res.State, res.Pattern)
	}
	if res.Timestamp.IsZero() {
		t.Error("neutral result has no timestamp")
	}
	if len(a.History()) != 0 {
		t.Error("empty input recorded in history")
	}
}

func TestAnalyzeNormalBreathing(t *testing.T) {
	a := newTestAnalyzer(t)
	res := a.Analyze(breath(15))

	if math.Abs(res.Rate-15) > 1e-9 {
		t.Errorf("Rate = %v, want 15", res.Rate)
	}
	if math.Abs(res.Depth-0.5) > 0.01 {
		t.Errorf("Depth = %v, want ≈0.5", res.Depth)
	}
	if res.Regularity != 1 {
		t.Errorf("Regularity with empty history = %v, want 1", res.Regularity)
	}
	if res.State != classify.Normal {
		t.Errorf("State = %v, want NORMAL", res.State)
	}
	if res.Pattern != classify.PatternUnknown {
		t.Errorf("Pattern with empty history = %v, want UNKNOWN", res.Pattern)
	}
	if res.Stress != 0 {
		t.Errorf("Stress = %v, want 0", res.Stress)
	}
	if math.Abs(res.Relaxation-0.7) > 1e-9 {
		t.Errorf("Relaxation = %v, want 0.7", res.Relaxation)
	}
	if a.CurrentState() != classify.Normal {
		t.Errorf("CurrentState() = %v, want NORMAL", a.CurrentState())
	}
}

func TestAnalyzeRapidBreathing(t *testing.T) {
	a := newTestAnalyzer(t)
	res := a.Analyze(breath(30))
	if math.Abs(res.Rate-30) > 1e-9 {
		t.Fatalf("Rate = %v, want 30", res.Rate)
	}
	if res.State != classify.Rapid {
		t.Errorf("State = %v, want RAPID", res.State)
	}
	if res.Stress <= 0 {
		t.Errorf("Stress = %v, want > 0 for rapid breathing", res.Stress)
	}
}

func TestPatternNeedsThreeEntries(t *testing.T) {
	a := newTestAnalyzer(t)
	input := breath(15)
	want := []classify.Pattern{
		classify.PatternUnknown,
		classify.PatternUnknown,
		classify.PatternUnknown,
		classify.PatternRegular,
	}
	for i, w := range want {
		if got := a.Analyze(input).Pattern; got != w {
			t.Errorf("call %d: Pattern = %v, want %v", i+1, got, w)
		}
	}
	if a.Pattern() != classify.PatternRegular {
		t.Errorf("Pattern() = %v, want REGULAR", a.Pattern())
	}
}

func TestSetThresholdsAffectsNextCall(t *testing.T) {
	a := newTestAnalyzer(t)
	input := breath(15)
	if got := a.Analyze(input).State; got != classify.Normal {
		t.Fatalf("State before update = %v, want NORMAL", got)
	}

	a.SetThresholds(classify.RapidRate(12))
	if got := a.Thresholds().Rapid; got != 12 {
		t.Errorf("Thresholds().Rapid = %v, want 12", got)
	}
	if got := a.Thresholds().NormalRateMax; got != 20 {
		t.Errorf("untouched NormalRateMax = %v, want 20", got)
	}
	if got := a.Analyze(input).State; got != classify.Rapid {
		t.Errorf("State after update = %v, want RAPID", got)
	}
}

func TestAnalyzeWithOverlap(t *testing.T) {
	a := newTestAnalyzer(t)
	input := utils.GenerateTone(testFrameSize*4, testSampleRate, 0.25, normalAmplitude)

	results := a.AnalyzeWithOverlap(input)
	if want := analysis.FrameCount(len(input), testFrameSize, testFrameSize/4); len(results) != want {
		t.Fatalf("len(results) = %d, want %d", len(results), want)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Timestamp.Before(results[i-1].Timestamp) {
			t.Fatalf("result %d out of temporal order", i)
		}
	}
	if got := len(a.History()); got != len(results) {
		t.Errorf("History length = %d, want %d", got, len(results))
	}

	short := a.AnalyzeWithOverlap(make([]float64, 10))
	if len(short) != 1 {
		t.Errorf("short buffer gave %d results, want 1", len(short))
	}

	if err := a.SetHopSize(testFrameSize); err != nil {
		t.Fatalf("SetHopSize: %v", err)
	}
	if got := len(a.AnalyzeWithOverlap(input)); got != 4 {
		t.Errorf("len(results) with full-frame hop = %d, want 4", got)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistorySize = 5
	a := New(cfg)
	if err := a.Initialize(testFrameSize, testSampleRate); err != nil {
		t.Fatal(err)
	}
	for range 12 {
		a.Analyze(breath(15))
	}
	if got := len(a.History()); got != 5 {
		t.Errorf("History length = %d, want 5", got)
	}
}

func TestStatistics(t *testing.T) {
	a := newTestAnalyzer(t)

	empty := a.Statistics()
	if empty.TotalAnalyses != 0 || empty.MostCommonState != classify.Unknown {
		t.Errorf("empty Statistics = %+v", empty)
	}

	for range 3 {
		a.Analyze(breath(15))
	}
	a.Analyze(breath(30))

	stats := a.Statistics()
	if stats.TotalAnalyses != 4 {
		t.Errorf("TotalAnalyses = %d, want 4", stats.TotalAnalyses)
	}
	if math.Abs(stats.AverageRate-18.75) > 1e-9 {
		t.Errorf("AverageRate = %v, want 18.75", stats.AverageRate)
	}
	if math.Abs(a.AverageRate()-stats.AverageRate) > 1e-12 {
		t.Errorf("AverageRate() = %v, Statistics().AverageRate = %v", a.AverageRate(), stats.AverageRate)
	}
	if stats.MostCommonState != classify.Normal {
		t.Errorf("MostCommonState = %v, want NORMAL", stats.MostCommonState)
	}
	if stats.MostCommonPattern != classify.PatternUnknown {
		t.Errorf("MostCommonPattern = %v, want UNKNOWN", stats.MostCommonPattern)
	}
	if a.StressLevel() <= 0 {
		t.Errorf("StressLevel() = %v, want > 0 after rapid breathing", a.StressLevel())
	}
}

func TestAnalyzeConcurrent(t *testing.T) {
	a := newTestAnalyzer(t)
	input := breath(15)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				if res := a.Analyze(input); res.State == classify.Unknown {
					t.Error("concurrent Analyze returned UNKNOWN state")
					return
				}
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.SetThresholds(classify.IrregularityLimit(0.5))
			_ = a.Statistics()
		}()
	}
	wg.Wait()

	if got := len(a.History()); got != DefaultHistorySize {
		t.Errorf("History length = %d, want %d", got, DefaultHistorySize)
	}
}

func TestAnalyzeDoesNotModifyInput(t *testing.T) {
	a := newTestAnalyzer(t)
	input := breath(15)
	original := slices.Clone(input)
	a.Analyze(input)
	if !slices.Equal(input, original) {
		t.Error("Analyze modified its input")
	}
}
