// SPDX-License-Identifier: MIT
//
// Package cmd wires configuration, analysis and transports into the
// audiostate command line.
package cmd

import (
	"audiostate/internal/adaptive"
	"audiostate/internal/breathing"
	"audiostate/internal/config"
	"audiostate/internal/dsp"
	"audiostate/internal/log"
	"audiostate/internal/pipeline"
	"audiostate/pkg/build"
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// options holds the persistent flags.
type options struct {
	configPath string
	verbose    bool
	mode       string
}

// NewRootCommand builds the command tree. ctx is cancelled on shutdown
// signals and bounds the long-running commands.
func NewRootCommand(ctx context.Context) *cobra.Command {
	opts := &options{}
	info := build.Get()

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         info.Description,
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetContext(ctx)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to the YAML configuration file (default "+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVarP(&opts.mode, "mode", "m", "",
		"Analysis mode: breathing or emotion (overrides the configuration)")

	rootCmd.AddCommand(
		newAnalyzeCommand(opts),
		newListenCommand(opts),
		newMonitorCommand(opts),
		newDevicesCommand(opts),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCommand(ctx)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// load reads the configuration and applies the persistent flags and the
// resulting log level.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.mode != "" {
		if o.mode != config.ModeBreathing && o.mode != config.ModeEmotion {
			return nil, fmt.Errorf("invalid --mode '%s': want %s or %s", o.mode, config.ModeBreathing, config.ModeEmotion)
		}
		cfg.Mode = o.mode
	}

	switch {
	case o.verbose || cfg.Debug:
		log.SetLevel(log.LevelDebug)
	default:
		level, ok := log.ParseLevel(cfg.LogLevel)
		if !ok {
			log.Warnf("Config: unknown log level '%s', using %s", cfg.LogLevel, log.GetLevel())
			break
		}
		log.SetLevel(level)
	}
	return cfg, nil
}

// pipelineConfig translates the application configuration for a stream at
// sampleRate.
func pipelineConfig(cfg *config.Config, sampleRate float64) (pipeline.Config, error) {
	window, err := dsp.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		return pipeline.Config{}, err
	}
	presets, err := cfg.Adaptation.EmotionPresets()
	if err != nil {
		return pipeline.Config{}, err
	}

	return pipeline.Config{
		Mode:       cfg.Mode,
		FrameSize:  cfg.Analysis.FrameSize,
		SampleRate: sampleRate,
		Window:     window,
		HopSize:    cfg.Analysis.HopSize,
		Breathing: breathing.Config{
			HistorySize: cfg.Breathing.HistorySize,
			Thresholds:  cfg.Breathing.Thresholds,
			Window:      window,
			HopSize:     cfg.Analysis.HopSize,
			Rolloff:     cfg.Analysis.RolloffFraction,
		},
		Adaptation: adaptive.Config{
			HistorySize: cfg.Adaptation.HistorySize,
			Sensitivity: cfg.Adaptation.Sensitivity,
			Smoothing:   cfg.Adaptation.Smoothing,
			Window:      window,
			HopSize:     cfg.Analysis.HopSize,
			Rolloff:     cfg.Analysis.RolloffFraction,
			Presets:     presets,
		},
	}, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.Get())
		},
	}
}
