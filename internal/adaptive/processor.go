// SPDX-License-Identifier: MIT
package adaptive

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

// Processor defaults.
const (
	DefaultHistorySize = 10
	DefaultSensitivity = 0.7
)

var logger = log.Component("Adaptive")

// Config holds construction-time settings. A zero HistorySize selects the
// default. Sensitivity and Smoothing are taken as given, so start from
// DefaultConfig; negative values select their defaults.
type Config struct {
	HistorySize int
	Sensitivity float64
	Smoothing   float64
	Window      dsp.WindowFunc
	HopSize     int
	Rolloff     float64 // Spectral rolloff fraction, 0 for the default.
	Presets     map[classify.Emotion]Parameters
}

// DefaultConfig returns the stock processor settings.
func DefaultConfig() Config {
	return Config{
		HistorySize: DefaultHistorySize,
		Sensitivity: DefaultSensitivity,
		Smoothing:   DefaultSmoothing,
		Window:      dsp.Hann,
	}
}

// Result is the adaptation outcome for one block.
type Result struct {
	Emotion    classify.Emotion   `json:"emotion"`
	Confidence float64            `json:"confidence"`
	Votes      []classify.Emotion `json:"votes"`
	Parameters Parameters         `json:"parameters"`
	Processed  []float64          `json:"-"`
	Features   features.Set       `json:"features"`
	Timestamp  time.Time          `json:"timestamp"`
}

func neutralResult() Result {
	return Result{
		Emotion:    classify.EmotionUnknown,
		Parameters: Neutral(),
		Timestamp:  time.Now(),
	}
}

// Statistics summarizes the retained history.
type Statistics struct {
	TotalProcessedSamples   int              `json:"total_processed_samples"`
	MostCommonEmotion       classify.Emotion `json:"most_common_emotion"`
	AverageConfidence       float64          `json:"average_confidence"`
	AverageVolumeAdjustment float64          `json:"average_volume_adjustment"`
	AverageTempoAdjustment  float64          `json:"average_tempo_adjustment"`
}

type entry struct {
	emotion    classify.Emotion
	confidence float64
	params     Parameters
}

// Processor infers an emotion from each block, maps it to smoothed playback
// parameters and applies them. Spectral work runs outside the lock; presets,
// sensitivity and history are guarded by mu.
type Processor struct {
	mu          sync.Mutex
	frames      *analysis.FrameAnalyzer
	effects     Effects
	mapper      *Mapper
	heuristics  []classify.Heuristic
	sensitivity float64
	entries     *history.Store[entry]
	processed   int
	window      dsp.WindowFunc
	hop         int
	rolloff     float64
}

// New creates a processor. It is unusable until Initialize succeeds.
func New(cfg Config) *Processor {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.Sensitivity < 0 {
		cfg.Sensitivity = DefaultSensitivity
	}
	if cfg.Smoothing < 0 {
		cfg.Smoothing = DefaultSmoothing
	}
	p := &Processor{
		mapper:      NewMapper(cfg.Smoothing),
		heuristics:  classify.Heuristics(),
		sensitivity: min(1, cfg.Sensitivity),
		entries:     history.NewStore[entry](cfg.HistorySize),
		window:      cfg.Window,
		hop:         cfg.HopSize,
		rolloff:     cfg.Rolloff,
	}
	for e, params := range cfg.Presets {
		p.mapper.SetPreset(e, params)
	}
	return p
}

// Initialize configures the processor for frames of frameSize samples at
// sampleRate Hz and clears history and smoothing state. On error the
// processor is left uninitialized and Analyze returns neutral results.
func (p *Processor) Initialize(frameSize int, sampleRate float64) error {
	frames, err := analysis.NewFrameAnalyzer(analysis.Config{
		FrameSize:       frameSize,
		SampleRate:      sampleRate,
		Window:          p.window,
		HopSize:         p.hop,
		RolloffFraction: p.rolloff,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries.Reset()
	p.mapper.Reset()
	p.processed = 0
	if err != nil {
		p.frames = nil
		logger.Warnf("Initialize failed: %v", err)
		return fmt.Errorf("adaptive processor: %w", err)
	}
	p.frames = frames
	p.effects = NewEffects(sampleRate)
	logger.Debugf("Initialized (Frame: %d, SampleRate: %.1f Hz, Sensitivity: %.2f)", frameSize, sampleRate, p.sensitivity)
	return nil
}

func (p *Processor) frameAnalyzer() *analysis.FrameAnalyzer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Initialized reports whether Initialize has succeeded.
func (p *Processor) Initialized() bool {
	return p.frameAnalyzer() != nil
}

// Analyze classifies one block, maps the emotion to smoothed parameters and
// returns the block processed with them. Empty input, or an uninitialized
// processor, yields a neutral result that is not recorded.
func (p *Processor) Analyze(samples []float64) Result {
	frames := p.frameAnalyzer()
	if len(samples) == 0 || frames == nil {
		return neutralResult()
	}

	frame := frames.Analyze(samples)

	p.mu.Lock()
	ballot := classify.Vote(frame.Features, p.heuristics)
	stability := ballot.Share()
	if p.entries.Len() > 0 {
		same := p.entries.Count(func(e entry) bool { return e.emotion == ballot.Winner })
		stability = float64(same) / float64(p.entries.Len())
	}
	confidence := classify.Confidence(ballot.Share(), stability, p.sensitivity)
	params := p.mapper.Map(ballot.Winner)
	effects := p.effects
	p.entries.Push(entry{emotion: ballot.Winner, confidence: confidence, params: params})
	p.processed += len(samples)
	p.mu.Unlock()

	return Result{
		Emotion:    ballot.Winner,
		Confidence: confidence,
		Votes:      ballot.Votes,
		Parameters: params,
		Processed:  effects.Apply(samples, params),
		Features:   frame.Features,
		Timestamp:  frame.Features.Timestamp,
	}
}

// AnalyzeWithOverlap processes samples as overlapping frames and returns one
// result per frame, in order.
func (p *Processor) AnalyzeWithOverlap(samples []float64) []Result {
	frames := p.frameAnalyzer()
	if frames == nil {
		return []Result{neutralResult()}
	}
	blocks := frames.Frames(samples)
	results := make([]Result, len(blocks))
	for i, b := range blocks {
		results[i] = p.Analyze(b)
	}
	return results
}

// Process implements analysis.Processor, discarding the result.
func (p *Processor) Process(samples []float64) {
	p.Analyze(samples)
}

// ApplyParameters runs the effects chain over samples with params. It
// returns analysis.ErrNotInitialized before Initialize has succeeded.
func (p *Processor) ApplyParameters(samples []float64, params Parameters) ([]float64, error) {
	p.mu.Lock()
	initialized, effects := p.frames != nil, p.effects
	p.mu.Unlock()
	if !initialized {
		return nil, analysis.ErrNotInitialized
	}
	return effects.Apply(samples, params), nil
}

// SetHopSize sets the overlap hop, clamped to [1, frame size].
func (p *Processor) SetHopSize(hop int) error {
	frames := p.frameAnalyzer()
	if frames == nil {
		return analysis.ErrNotInitialized
	}
	frames.SetHopSize(hop)
	return nil
}

// SetPreset overrides the parameters mapped from e. It takes effect from the
// next Analyze call.
func (p *Processor) SetPreset(e classify.Emotion, params Parameters) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mapper.SetPreset(e, params)
}

// Preset returns the unsmoothed parameters mapped from e.
func (p *Processor) Preset(e classify.Emotion) Parameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mapper.Preset(e)
}

// SetSensitivity sets how much confidence follows heuristic agreement rather
// than history, clamped to [0, 1].
func (p *Processor) SetSensitivity(s float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sensitivity = max(0, min(1, s))
}

// Sensitivity returns the adaptation sensitivity.
func (p *Processor) Sensitivity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sensitivity
}

// CurrentEmotion returns the most recent emotion, or EmotionUnknown.
func (p *Processor) CurrentEmotion() classify.Emotion {
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.entries.Last(); ok {
		return last.emotion
	}
	return classify.EmotionUnknown
}

// Statistics summarizes the retained history. Ties for the most common
// emotion go to the one seen first.
func (p *Processor) Statistics() Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Statistics{
		TotalProcessedSamples:   p.processed,
		MostCommonEmotion:       history.MostFrequent(p.entries, func(e entry) classify.Emotion { return e.emotion }, classify.EmotionUnknown),
		AverageConfidence:       p.entries.MeanOf(func(e entry) float64 { return e.confidence }),
		AverageVolumeAdjustment: p.entries.MeanOf(func(e entry) float64 { return e.params.Volume }),
		AverageTempoAdjustment:  p.entries.MeanOf(func(e entry) float64 { return e.params.Tempo }),
	}
}
