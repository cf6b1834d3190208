// SPDX-License-Identifier: MIT

// Package pipeline routes sample blocks from named sources through a
// breathing analyzer or an emotion processor and publishes the outcome.
package pipeline

import (
	"audiostate/internal/adaptive"
	"audiostate/internal/analysis"
	"audiostate/internal/breathing"
	"audiostate/internal/dsp"
	"audiostate/internal/history"
	"audiostate/internal/log"
	"audiostate/internal/transport"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Analysis modes.
const (
	ModeBreathing = "breathing"
	ModeEmotion   = "emotion"
)

const (
	// DefaultSource names blocks arriving through Process.
	DefaultSource = "default"
	// DefaultRecent is the number of snapshots kept per source.
	DefaultRecent = 64
)

// ErrUnknownMode is returned by New for a mode other than ModeBreathing or
// ModeEmotion.
var ErrUnknownMode = errors.New("unknown analysis mode")

var logger = log.Component("Pipeline")

// Config describes a pipeline. Breathing and Adaptation are used as
// templates for the per-source analyzers.
type Config struct {
	Mode       string
	FrameSize  int
	SampleRate float64
	Window     dsp.WindowFunc
	HopSize    int
	Breathing  breathing.Config
	Adaptation adaptive.Config
	Recent     int             // Snapshots kept per source, 0 for DefaultRecent.
	Bands      []analysis.Band // nil for analysis.DefaultBands.
}

// Output is the outcome of one block.
type Output struct {
	Snapshot  transport.Snapshot
	Processed []float64 // Adapted audio in emotion mode, nil otherwise.
}

type tracker struct {
	breathing *breathing.Analyzer
	emotion   *adaptive.Processor
}

// Pipeline keeps one analyzer per source so that their histories stay
// independent. It is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	out    transport.Transport
	levels *analysis.FrameAnalyzer
	bands  []analysis.Band

	mu       sync.Mutex
	trackers map[string]*tracker
	recent   *history.Arena[string, transport.Snapshot]
}

var _ analysis.ClosableProcessor = (*Pipeline)(nil)

// New validates cfg and creates a pipeline publishing to out. A nil out
// discards snapshots.
func New(cfg Config, out transport.Transport) (*Pipeline, error) {
	if cfg.Mode != ModeBreathing && cfg.Mode != ModeEmotion {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownMode, cfg.Mode)
	}
	levels, err := analysis.NewFrameAnalyzer(analysis.Config{
		FrameSize:  cfg.FrameSize,
		SampleRate: cfg.SampleRate,
		Window:     cfg.Window,
		HopSize:    cfg.HopSize,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if cfg.Recent <= 0 {
		cfg.Recent = DefaultRecent
	}
	bands := cfg.Bands
	if bands == nil {
		bands = analysis.DefaultBands(cfg.SampleRate)
	}
	if out == nil {
		out = transport.Multi(nil)
	}

	logger.Infof("Initialized (Mode: %s, Frame: %d, SampleRate: %.1f Hz, Hop: %d)",
		cfg.Mode, cfg.FrameSize, cfg.SampleRate, levels.HopSize())
	return &Pipeline{
		cfg:      cfg,
		out:      out,
		levels:   levels,
		bands:    bands,
		trackers: make(map[string]*tracker),
		recent:   history.NewArena[string, transport.Snapshot](cfg.Recent),
	}, nil
}

// Mode returns the analysis mode.
func (p *Pipeline) Mode() string { return p.cfg.Mode }

// Bands returns the display bands levels are reported for.
func (p *Pipeline) Bands() []analysis.Band { return slices.Clone(p.bands) }

func (p *Pipeline) tracker(source string) (*tracker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.trackers[source]; ok {
		return t, nil
	}

	t := &tracker{}
	var err error
	switch p.cfg.Mode {
	case ModeBreathing:
		bc := p.cfg.Breathing
		bc.Window, bc.HopSize = p.cfg.Window, p.cfg.HopSize
		t.breathing = breathing.New(bc)
		err = t.breathing.Initialize(p.cfg.FrameSize, p.cfg.SampleRate)
	case ModeEmotion:
		ac := p.cfg.Adaptation
		ac.Window, ac.HopSize = p.cfg.Window, p.cfg.HopSize
		t.emotion = adaptive.New(ac)
		err = t.emotion.Initialize(p.cfg.FrameSize, p.cfg.SampleRate)
	}
	if err != nil {
		return nil, err
	}
	p.trackers[source] = t
	logger.Debugf("New source '%s'", source)
	return t, nil
}

// Feed analyzes one block from source, records the snapshot and sends it.
// The output is returned even when sending fails.
func (p *Pipeline) Feed(source string, samples []float64) (Output, error) {
	t, err := p.tracker(source)
	if err != nil {
		return Output{}, err
	}

	var out Output
	if t.breathing != nil {
		out.Snapshot = FromBreathing(t.breathing.Analyze(samples))
	} else {
		r := t.emotion.Analyze(samples)
		out.Snapshot = FromEmotion(r)
		out.Processed = r.Processed
	}
	out.Snapshot.Source = source
	if len(samples) > 0 {
		frame := p.levels.Analyze(samples)
		out.Snapshot.Levels = p.levels.BandLevels(frame.Spectrum.Magnitude, p.bands)
	}

	p.recent.Push(source, out.Snapshot)
	if err := p.out.Send(out.Snapshot); err != nil {
		return out, fmt.Errorf("pipeline: sending snapshot: %w", err)
	}
	return out, nil
}

// FeedAll splits samples into overlapping frames at the configured hop and
// feeds each in order.
func (p *Pipeline) FeedAll(source string, samples []float64) ([]Output, error) {
	blocks := p.levels.Frames(samples)
	outputs := make([]Output, 0, len(blocks))
	var errs []error
	for _, b := range blocks {
		o, err := p.Feed(source, b)
		if err != nil {
			errs = append(errs, err)
			if o.Snapshot.Source == "" {
				break
			}
		}
		outputs = append(outputs, o)
	}
	return outputs, errors.Join(errs...)
}

// Process implements analysis.Processor for the default source. Errors are
// logged.
func (p *Pipeline) Process(samples []float64) {
	if _, err := p.Feed(DefaultSource, samples); err != nil {
		logger.Warnf("Process: %v", err)
	}
}

// Recent returns the retained snapshots for source, oldest first.
func (p *Pipeline) Recent(source string) []transport.Snapshot {
	return p.recent.Items(source)
}

// Sources returns the names of every source seen, sorted.
func (p *Pipeline) Sources() []string {
	return p.recent.Keys(func(a, b string) bool { return a < b })
}

// Forget drops the analyzer and snapshots kept for source.
func (p *Pipeline) Forget(source string) {
	p.mu.Lock()
	delete(p.trackers, source)
	p.mu.Unlock()
	p.recent.Delete(source)
}

// Summary is the per-source history summary. Exactly one of Breathing and
// Emotion is set.
type Summary struct {
	Source    string                `json:"source"`
	Breathing *breathing.Statistics `json:"breathing,omitempty"`
	Emotion   *adaptive.Statistics  `json:"emotion,omitempty"`
}

// Summary reports the statistics of source's analyzer and whether the
// source has been seen.
func (p *Pipeline) Summary(source string) (Summary, bool) {
	p.mu.Lock()
	t, ok := p.trackers[source]
	p.mu.Unlock()
	if !ok {
		return Summary{Source: source}, false
	}

	s := Summary{Source: source}
	if t.breathing != nil {
		st := t.breathing.Statistics()
		s.Breathing = &st
	} else {
		st := t.emotion.Statistics()
		s.Emotion = &st
	}
	return s, true
}

// Close closes the output transport.
func (p *Pipeline) Close() error {
	logger.Debugf("Closing")
	return p.out.Close()
}
