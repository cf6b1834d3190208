// SPDX-License-Identifier: MIT
package cmd

import (
	"audiostate/internal/audio"
	"audiostate/internal/config"
	"audiostate/internal/pipeline"
	"audiostate/internal/source"
	"audiostate/internal/transport"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	jsonOutput bool
	output     string
}

// analyzeReport is the JSON form of an analyze run.
type analyzeReport struct {
	File      string               `json:"file"`
	Format    string               `json:"format"`
	Duration  float64              `json:"duration_s"`
	Blocks    int                  `json:"blocks"`
	Summary   pipeline.Summary     `json:"summary"`
	Snapshots []transport.Snapshot `json:"recent"`
}

func newAnalyzeCommand(opts *options) *cobra.Command {
	aopts := &analyzeOptions{}
	c := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze an audio file (" + strings.Join(source.Formats(), ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.OutOrStdout(), cfg, args[0], aopts)
		},
	}
	c.Flags().BoolVar(&aopts.jsonOutput, "json", false, "Print the report as JSON")
	c.Flags().StringVarP(&aopts.output, "output", "o", "",
		"Write the adapted audio to this WAV file (emotion mode)")
	return c
}

func runAnalyze(w io.Writer, cfg *config.Config, path string, aopts *analyzeOptions) error {
	if aopts.output != "" && cfg.Mode != config.ModeEmotion {
		return errors.New("--output requires emotion mode")
	}

	a, err := source.Load(path)
	if err != nil {
		return err
	}
	pc, err := pipelineConfig(cfg, a.SampleRate)
	if err != nil {
		return err
	}
	p, err := pipeline.New(pc, transport.NewLoggingTransport())
	if err != nil {
		return err
	}
	defer p.Close()

	name := filepath.Base(path)
	var outputs []pipeline.Output
	if cfg.Analysis.Overlap {
		outputs, err = p.FeedAll(name, a.Samples)
	} else {
		outputs, err = feedBlocks(p, name, a.Samples, cfg.Analysis.FrameSize)
	}
	if err != nil {
		return err
	}

	if aopts.output != "" {
		var processed []float64
		for _, o := range outputs {
			processed = append(processed, o.Processed...)
		}
		if err := audio.WriteWAV(aopts.output, processed, a.SampleRate, cfg.Recording.BitDepth); err != nil {
			return err
		}
		fmt.Fprintf(w, "Adapted audio written to: %s\n", aopts.output)
	}

	summary, _ := p.Summary(name)
	report := analyzeReport{
		File:      name,
		Format:    a.Format,
		Duration:  a.Duration().Seconds(),
		Blocks:    len(outputs),
		Summary:   summary,
		Snapshots: p.Recent(name),
	}
	if aopts.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeReport(w, report)
	return nil
}

// feedBlocks feeds consecutive non-overlapping blocks of size samples.
func feedBlocks(p *pipeline.Pipeline, name string, samples []float64, size int) ([]pipeline.Output, error) {
	var outputs []pipeline.Output
	for block := range slices.Chunk(samples, size) {
		o, err := p.Feed(name, block)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, o)
	}
	return outputs, nil
}

func writeReport(w io.Writer, r analyzeReport) {
	fmt.Fprintf(w, "%s (%s, %s, %d blocks)\n", r.File, r.Format,
		time.Duration(r.Duration*float64(time.Second)).Round(time.Millisecond), r.Blocks)

	switch {
	case r.Summary.Breathing != nil:
		s := r.Summary.Breathing
		fmt.Fprintf(w, "  State:      %s\n", s.MostCommonState)
		fmt.Fprintf(w, "  Pattern:    %s\n", s.MostCommonPattern)
		fmt.Fprintf(w, "  Rate:       %.1f bpm\n", s.AverageRate)
		fmt.Fprintf(w, "  Stress:     %.2f\n", s.AverageStress)
		fmt.Fprintf(w, "  Relaxation: %.2f\n", s.AverageRelaxation)
	case r.Summary.Emotion != nil:
		s := r.Summary.Emotion
		fmt.Fprintf(w, "  Emotion:    %s\n", s.MostCommonEmotion)
		fmt.Fprintf(w, "  Confidence: %.2f\n", s.AverageConfidence)
		fmt.Fprintf(w, "  Volume:     %.2f\n", s.AverageVolumeAdjustment)
		fmt.Fprintf(w, "  Tempo:      %.2f\n", s.AverageTempoAdjustment)
	default:
		fmt.Fprintln(w, "  No audio analyzed")
	}
}
