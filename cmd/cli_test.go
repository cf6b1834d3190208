// SPDX-License-Identifier: MIT
package cmd

import (
	"audiostate/internal/adaptive"
	"audiostate/internal/audio"
	"audiostate/internal/classify"
	"audiostate/internal/config"
	"audiostate/internal/dsp"
	"audiostate/internal/log"
	"audiostate/internal/source"
	"audiostate/pkg/build"
	"audiostate/pkg/utils"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testRate = 8000

// run executes the root command in an empty directory and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	level := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(level) })

	var out bytes.Buffer
	root := NewRootCommand(context.Background())
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTone(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tone.wav")
	samples := utils.GenerateTone(testRate, testRate, 440, 0.5)
	if err := audio.WriteWAV(path, samples, testRate, 16); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, build.Get().Name) {
		t.Errorf("version output %q does not name the binary", out)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand(context.Background())
	for _, name := range []string{"analyze", "listen", "monitor", "devices", "version"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "verbose", "mode"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestAnalyzeBreathing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeTone(t, dir)

	out, err := run(t, "analyze", path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	for _, want := range []string{"tone.wav", "wav", "8 blocks", "State:", "Pattern:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeEmotionJSONAndOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeTone(t, dir)
	adapted := filepath.Join(dir, "adapted.wav")

	out, err := run(t, "analyze", "--mode", "emotion", "--json", "-o", adapted, path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	jsonStart := strings.Index(out, "{")
	if jsonStart < 0 {
		t.Fatalf("no JSON in output:\n%s", out)
	}
	var report struct {
		File    string `json:"file"`
		Blocks  int    `json:"blocks"`
		Summary struct {
			Emotion *struct {
				MostCommonEmotion string `json:"most_common_emotion"`
			} `json:"emotion"`
		} `json:"summary"`
		Recent []json.RawMessage `json:"recent"`
	}
	if err := json.Unmarshal([]byte(out[jsonStart:]), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if report.File != "tone.wav" || report.Blocks != 8 || len(report.Recent) != 8 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Summary.Emotion == nil {
		t.Fatal("expected emotion summary")
	}
	if _, ok := classify.ParseEmotion(report.Summary.Emotion.MostCommonEmotion); !ok {
		t.Errorf("unknown emotion %q", report.Summary.Emotion.MostCommonEmotion)
	}

	a, err := source.Load(adapted)
	if err != nil {
		t.Fatalf("adapted output unreadable: %v", err)
	}
	if a.SampleRate != testRate || len(a.Samples) == 0 {
		t.Errorf("adapted output: %.0f Hz, %d samples", a.SampleRate, len(a.Samples))
	}
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeTone(t, dir)

	badConfig := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("analysis:\n  frame_size: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"analyze", filepath.Join(dir, "nope.wav")}, "opening audio file"},
		{"unsupported", []string{"analyze", badConfig}, "unsupported audio format"},
		{"output needs emotion", []string{"analyze", "-o", "x.wav", path}, "emotion mode"},
		{"bad mode", []string{"analyze", "--mode", "music", path}, "invalid --mode"},
		{"bad config", []string{"analyze", "--config", badConfig, path}, "invalid configuration"},
		{"no args", []string{"analyze"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestPipelineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeEmotion
	cfg.Analysis.Window = "Blackman"
	cfg.Analysis.HopSize = 256
	cfg.Adaptation.Presets = map[string]adaptive.Parameters{"CALM": {Volume: 0.4, Tempo: 1}}

	pc, err := pipelineConfig(cfg, 22050)
	if err != nil {
		t.Fatalf("pipelineConfig() error = %v", err)
	}
	if pc.SampleRate != 22050 || pc.Window != dsp.Blackman || pc.HopSize != 256 {
		t.Errorf("unexpected pipeline config %+v", pc)
	}
	if pc.Adaptation.Presets[classify.Calm].Volume != 0.4 {
		t.Errorf("preset not carried over: %+v", pc.Adaptation.Presets)
	}
	if pc.Breathing.Window != dsp.Blackman || pc.Adaptation.HopSize != 256 {
		t.Error("analyzer templates should share window and hop")
	}

	cfg.Adaptation.Presets = map[string]adaptive.Parameters{"BORED": {}}
	if _, err := pipelineConfig(cfg, 22050); err == nil {
		t.Error("expected error for unknown preset emotion")
	}
}

func TestLoadAppliesVerbose(t *testing.T) {
	t.Chdir(t.TempDir())
	level := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(level) })

	opts := &options{verbose: true, mode: config.ModeEmotion}
	cfg, err := opts.load()
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Mode != config.ModeEmotion {
		t.Errorf("mode = %s, want emotion", cfg.Mode)
	}
	if log.GetLevel() != log.LevelDebug {
		t.Errorf("level = %s, want debug", log.GetLevel())
	}
}

func TestNewFieldCollection(t *testing.T) {
	c := newFieldCollection(config.FieldConfig{Seed: 1, Count: 3})
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	fields := c.Fields()
	if fields[0].State.String() != "ENTANGLED" || fields[2].Frequency != 3 {
		t.Errorf("unexpected fields %+v", fields)
	}
}
