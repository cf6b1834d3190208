// SPDX-License-Identifier: MIT
package pipeline

import (
	"audiostate/internal/adaptive"
	"audiostate/internal/breathing"
	"audiostate/internal/classify"
	"audiostate/internal/dsp"
	"audiostate/internal/transport"
	"audiostate/pkg/utils"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
)

const (
	breathFrame = 1024
	breathRate  = 64.0 // 0.25 Hz lands on bin 4.
)

func breath(bpm float64) []float64 {
	return utils.GenerateTone(breathFrame, breathRate, bpm/60, 0.25*math.Sqrt2)
}

func newBreathing(t *testing.T, out transport.Transport) *Pipeline {
	t.Helper()
	p, err := New(Config{
		Mode:       ModeBreathing,
		FrameSize:  breathFrame,
		SampleRate: breathRate,
		Breathing:  breathing.DefaultConfig(),
		Recent:     4,
	}, out)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown mode", Config{Mode: "music", FrameSize: 1024, SampleRate: 44100}, ErrUnknownMode},
		{"bad frame", Config{Mode: ModeEmotion, FrameSize: 1000, SampleRate: 44100}, dsp.ErrNotPowerOfTwo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.cfg, nil); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFeed_Breathing(t *testing.T) {
	t.Parallel()

	mock := &utils.MockTransport{}
	p := newBreathing(t, mock)

	out, err := p.Feed("chest", breath(15))
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	s := out.Snapshot
	if s.Kind != transport.KindBreathing || s.Source != "chest" {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Label != classify.Normal.String() {
		t.Errorf("Label = %q, want NORMAL", s.Label)
	}
	if math.Abs(s.Rate-15) > 1e-9 {
		t.Errorf("Rate = %v, want 15", s.Rate)
	}
	if len(s.Levels) != len(p.Bands()) {
		t.Errorf("got %d levels for %d bands", len(s.Levels), len(p.Bands()))
	}
	if out.Processed != nil {
		t.Error("breathing mode should not produce processed audio")
	}

	msgs := mock.Messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	if sent, ok := msgs[0].(transport.Snapshot); !ok || sent.Label != s.Label {
		t.Errorf("sent %#v", msgs[0])
	}
}

func TestFeed_SourcesAreIndependent(t *testing.T) {
	t.Parallel()

	p := newBreathing(t, nil)
	for range 6 {
		p.Feed("a", breath(15))
	}
	p.Feed("b", breath(30))

	if got := p.Sources(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Sources() = %v", got)
	}
	if n := len(p.Recent("a")); n != 4 {
		t.Errorf("Recent(a) holds %d snapshots, want capacity 4", n)
	}
	if n := len(p.Recent("b")); n != 1 {
		t.Errorf("Recent(b) holds %d snapshots, want 1", n)
	}

	sa, ok := p.Summary("a")
	if !ok || sa.Breathing == nil || sa.Breathing.TotalAnalyses != 6 {
		t.Errorf("Summary(a) = %+v", sa)
	}
	sb, _ := p.Summary("b")
	if sb.Breathing.TotalAnalyses != 1 || math.Abs(sb.Breathing.AverageRate-30) > 1e-9 {
		t.Errorf("Summary(b) = %+v, history leaked between sources", sb.Breathing)
	}

	p.Forget("a")
	if _, ok := p.Summary("a"); ok {
		t.Error("Summary after Forget should report unknown source")
	}
	if got := p.Sources(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Sources() after Forget = %v", got)
	}
}

func TestFeedAll(t *testing.T) {
	t.Parallel()

	p, err := New(Config{
		Mode:       ModeBreathing,
		FrameSize:  breathFrame,
		SampleRate: breathRate,
		HopSize:    breathFrame / 2,
	}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	samples := utils.GenerateTone(2*breathFrame, breathRate, 0.25, 0.25*math.Sqrt2)
	outs, err := p.FeedAll("file", samples)
	if err != nil {
		t.Fatalf("FeedAll() error = %v", err)
	}
	if len(outs) != 3 {
		t.Fatalf("FeedAll() returned %d outputs, want 3", len(outs))
	}
	for i := 1; i < len(outs); i++ {
		if outs[i].Snapshot.Timestamp.Before(outs[i-1].Snapshot.Timestamp) {
			t.Errorf("output %d out of order", i)
		}
	}
}

func TestFeed_Emotion(t *testing.T) {
	t.Parallel()

	ac := adaptive.DefaultConfig()
	ac.Presets = map[classify.Emotion]adaptive.Parameters{
		classify.Relaxed: {Volume: 0.5, Tempo: 1},
	}
	latest := &transport.Latest{}
	p, err := New(Config{
		Mode:       ModeEmotion,
		FrameSize:  1024,
		SampleRate: 44100,
		Adaptation: ac,
	}, latest)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	silence := make([]float64, 1024)
	out, err := p.Feed(DefaultSource, silence)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if out.Snapshot.Label != classify.Relaxed.String() {
		t.Errorf("Label = %q, want RELAXED", out.Snapshot.Label)
	}
	if len(out.Processed) == 0 {
		t.Error("emotion mode should return processed audio")
	}

	got, ok := latest.Load()
	if !ok || got.Kind != transport.KindEmotion {
		t.Errorf("Latest = %+v, %v", got, ok)
	}
	s, _ := p.Summary(DefaultSource)
	if s.Emotion == nil || s.Emotion.MostCommonEmotion != classify.Relaxed {
		t.Errorf("Summary = %+v", s)
	}
	if math.Abs(s.Emotion.AverageVolumeAdjustment-0.5) > 1e-9 {
		t.Errorf("AverageVolumeAdjustment = %v, want configured preset 0.5", s.Emotion.AverageVolumeAdjustment)
	}
}

type failing struct{}

func (failing) Send(any) error { return errors.New("offline") }
func (failing) Close() error   { return nil }

func TestFeed_SendErrorKeepsOutput(t *testing.T) {
	t.Parallel()

	p := newBreathing(t, failing{})
	out, err := p.Feed("x", breath(15))
	if err == nil {
		t.Fatal("expected send error")
	}
	if out.Snapshot.Source != "x" {
		t.Errorf("output should be returned on send failure, got %+v", out)
	}
	if len(p.Recent("x")) != 1 {
		t.Error("snapshot should still be recorded")
	}
}

func TestProcess_Concurrent(t *testing.T) {
	t.Parallel()

	mock := &utils.MockTransport{}
	p := newBreathing(t, mock)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Process(breath(15))
		}()
	}
	wg.Wait()

	if n := len(mock.Messages()); n != 8 {
		t.Errorf("sent %d messages, want 8", n)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !mock.Closed {
		t.Error("Close should close the transport")
	}
}
