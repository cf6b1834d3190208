// SPDX-License-Identifier: MIT
package breathing

import (
	"audiostate/internal/analysis"
	"audiostate/internal/classify"
	"audiostate/internal/dsp"
	"audiostate/internal/features"
	"audiostate/internal/history"
	"audiostate/internal/log"
	"fmt"
	"sync"
	"time"
)

// DefaultHistorySize is the number of past results kept for regularity and
// pattern classification.
const DefaultHistorySize = 20

var logger = log.Component("Breathing")

// Config holds construction-time settings. Zero values select defaults.
type Config struct {
	HistorySize int
	Thresholds  classify.Thresholds
	Window      dsp.WindowFunc
	HopSize     int
	Rolloff     float64 // Spectral rolloff fraction, 0 for the default.
}

// DefaultConfig returns the stock analyzer settings.
func DefaultConfig() Config {
	return Config{
		HistorySize: DefaultHistorySize,
		Thresholds:  classify.DefaultThresholds(),
		Window:      dsp.Hann,
	}
}

// Result is the breathing analysis of one block.
type Result struct {
	State      classify.State   `json:"state"`
	Pattern    classify.Pattern `json:"pattern"`
	Rate       float64          `json:"rate_bpm"`
	Depth      float64          `json:"depth"`
	Regularity float64          `json:"regularity"`
	Stress     float64          `json:"stress"`
	Relaxation float64          `json:"relaxation"`
	Cycle      []float64        `json:"-"`
	Intervals  []float64        `json:"intervals_s,omitempty"`
	Features   features.Set     `json:"features"`
	Timestamp  time.Time        `json:"timestamp"`
}

func neutralResult() Result {
	return Result{
		State:     classify.Unknown,
		Pattern:   classify.PatternUnknown,
		Timestamp: time.Now(),
	}
}

// Statistics summarizes the retained history.
type Statistics struct {
	AverageRate       float64          `json:"average_rate_bpm"`
	AverageStress     float64          `json:"average_stress"`
	AverageRelaxation float64          `json:"average_relaxation"`
	MostCommonState   classify.State   `json:"most_common_state"`
	MostCommonPattern classify.Pattern `json:"most_common_pattern"`
	TotalAnalyses     int              `json:"total_analyses"`
}

// Analyzer classifies breathing from low-frequency audio. Spectral work runs
// outside the lock; history and thresholds are guarded by mu, so concurrent
// Analyze calls are safe but their history order follows lock acquisition.
type Analyzer struct {
	mu         sync.Mutex
	frames     *analysis.FrameAnalyzer
	thresholds classify.Thresholds
	results    *history.Store[Result]
	window     dsp.WindowFunc
	hop        int
	rolloff    float64
}

// New creates an analyzer. It is unusable until Initialize succeeds.
func New(cfg Config) *Analyzer {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.Thresholds == (classify.Thresholds{}) {
		cfg.Thresholds = classify.DefaultThresholds()
	}
	return &Analyzer{
		thresholds: cfg.Thresholds,
		results:    history.NewStore[Result](cfg.HistorySize),
		window:     cfg.Window,
		hop:        cfg.HopSize,
		rolloff:    cfg.Rolloff,
	}
}

// Initialize configures the analyzer for frames of frameSize samples at
// sampleRate Hz and clears any history. On error the analyzer is left
// uninitialized and Analyze returns neutral results.
func (a *Analyzer) Initialize(frameSize int, sampleRate float64) error {
	frames, err := analysis.NewFrameAnalyzer(analysis.Config{
		FrameSize:       frameSize,
		SampleRate:      sampleRate,
		Window:          a.window,
		HopSize:         a.hop,
		RolloffFraction: a.rolloff,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.results.Reset()
	if err != nil {
		a.frames = nil
		logger.Warnf("Initialize failed: %v", err)
		return fmt.Errorf("breathing analyzer: %w", err)
	}
	a.frames = frames
	logger.Debugf("Initialized (Frame: %d, SampleRate: %.1f Hz, History: %d)", frameSize, sampleRate, a.results.Cap())
	return nil
}

func (a *Analyzer) frameAnalyzer() *analysis.FrameAnalyzer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// Initialized reports whether Initialize has succeeded.
func (a *Analyzer) Initialized() bool {
	return a.frameAnalyzer() != nil
}

// Analyze classifies one block of samples and records the result. Empty
// input, or an uninitialized analyzer, yields a neutral result that is not
// recorded.
func (a *Analyzer) Analyze(samples []float64) Result {
	frames := a.frameAnalyzer()
	if len(samples) == 0 || frames == nil {
		return neutralResult()
	}

	filtered := LowPass(samples)
	frame := frames.Analyze(filtered)
	peaks := Peaks(filtered)

	res := Result{
		Rate:      classify.BreathingRate(frame.Features.Fundamental),
		Depth:     classify.BreathingDepth(frame.Features.Volume),
		Cycle:     Cycle(filtered, peaks),
		Intervals: Intervals(peaks, frames.SampleRate()),
		Features:  frame.Features,
		Timestamp: frame.Features.Timestamp,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	th := a.thresholds
	mean, sd := a.results.MeanStdDevOf(rateOf)
	n := a.results.Len()

	res.Regularity = classify.Regularity(mean, sd, n)
	m := classify.Measurement{Rate: res.Rate, Depth: res.Depth, Regularity: res.Regularity}
	res.State = classify.Classify(m, th)
	res.Pattern = classify.ClassifyPattern(mean, sd, n)
	res.Stress = classify.Stress(m, th)
	res.Relaxation = classify.Relaxation(m, th)

	a.results.Push(res)
	return res
}

// AnalyzeWithOverlap analyzes samples as overlapping frames and returns one
// result per frame, in order. A buffer shorter than one frame yields exactly
// one result.
func (a *Analyzer) AnalyzeWithOverlap(samples []float64) []Result {
	frames := a.frameAnalyzer()
	if frames == nil {
		return []Result{neutralResult()}
	}
	blocks := frames.Frames(samples)
	results := make([]Result, len(blocks))
	for i, b := range blocks {
		results[i] = a.Analyze(b)
	}
	return results
}

// Process implements analysis.Processor, discarding the result.
func (a *Analyzer) Process(samples []float64) {
	a.Analyze(samples)
}

// SetHopSize sets the overlap hop, clamped to [1, frame size]. It returns
// analysis.ErrNotInitialized before Initialize has succeeded.
func (a *Analyzer) SetHopSize(hop int) error {
	frames := a.frameAnalyzer()
	if frames == nil {
		return analysis.ErrNotInitialized
	}
	frames.SetHopSize(hop)
	return nil
}

// SetThresholds applies a partial threshold change. It takes effect from the
// next Analyze call.
func (a *Analyzer) SetThresholds(u classify.ThresholdUpdate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.thresholds = u.Apply(a.thresholds)
}

// Thresholds returns the current thresholds.
func (a *Analyzer) Thresholds() classify.Thresholds {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.thresholds
}

// CurrentState returns the most recent state, or Unknown.
func (a *Analyzer) CurrentState() classify.State {
	if last, ok := a.last(); ok {
		return last.State
	}
	return classify.Unknown
}

// Pattern returns the most recent pattern, or PatternUnknown.
func (a *Analyzer) Pattern() classify.Pattern {
	if last, ok := a.last(); ok {
		return last.Pattern
	}
	return classify.PatternUnknown
}

// StressLevel returns the most recent stress level, or 0.
func (a *Analyzer) StressLevel() float64 {
	last, _ := a.last()
	return last.Stress
}

// RelaxationLevel returns the most recent relaxation level, or 0.
func (a *Analyzer) RelaxationLevel() float64 {
	last, _ := a.last()
	return last.Relaxation
}

// AverageRate returns the mean breathing rate over the history, or 0.
func (a *Analyzer) AverageRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.results.MeanOf(rateOf)
}

// History returns a copy of the retained results, oldest first.
func (a *Analyzer) History() []Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.results.Items()
}

// Statistics summarizes the retained history. Ties for the most common state
// or pattern go to the one seen first.
func (a *Analyzer) Statistics() Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.results.Len() == 0 {
		return Statistics{MostCommonState: classify.Unknown, MostCommonPattern: classify.PatternUnknown}
	}
	return Statistics{
		AverageRate:       a.results.MeanOf(rateOf),
		AverageStress:     a.results.MeanOf(func(r Result) float64 { return r.Stress }),
		AverageRelaxation: a.results.MeanOf(func(r Result) float64 { return r.Relaxation }),
		MostCommonState:   history.MostFrequent(a.results, func(r Result) classify.State { return r.State }, classify.Unknown),
		MostCommonPattern: history.MostFrequent(a.results, func(r Result) classify.Pattern { return r.Pattern }, classify.PatternUnknown),
		TotalAnalyses:     a.results.Len(),
	}
}

func (a *Analyzer) last() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.results.Last()
}

func rateOf(r Result) float64 { return r.Rate }
