// SPDX-License-Identifier: MIT
package cmd

import (
	"audiostate/internal/audio"
	"audiostate/internal/config"
	"audiostate/internal/field"
	"audiostate/internal/log"
	"audiostate/internal/pipeline"
	"audiostate/internal/transport"
	"audiostate/internal/transport/udp"
	"audiostate/internal/tui"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const monitorQueue = 64

// session is a running capture: engine, pipeline and every publisher.
type session struct {
	engine   *audio.Engine
	pipeline *pipeline.Pipeline
	monitor  *transport.Channel
	field    *field.Collection
	runner   *field.Runner
	closers  []func() error
}

func newListenCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Analyze live input and publish results until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			s, err := startSession(cfg, false)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Listening in %s mode, press Ctrl+C to stop.\n", cfg.Mode)
			<-cmd.Context().Done()
			fmt.Fprintln(cmd.OutOrStdout())
			return s.Close()
		},
	}
}

func newMonitorCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Analyze live input and show results in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			restore, err := redirectLogs(opts.verbose)
			if err != nil {
				return err
			}
			defer restore()

			s, err := startSession(cfg, true)
			if err != nil {
				return err
			}

			model := tui.NewMonitorModel(s.monitor.C(), s.pipeline.Bands(), s.field)
			_, runErr := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if errors.Is(runErr, tea.ErrProgramKilled) {
				runErr = nil
			}
			return errors.Join(runErr, s.Close())
		},
	}
}

// redirectLogs keeps log output off the terminal while the monitor owns it.
// Verbose runs log to a file in the working directory.
func redirectLogs(verbose bool) (restore func(), err error) {
	if !verbose {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}
	f, err := os.Create("audiostate-debug.log")
	if err != nil {
		return nil, fmt.Errorf("creating debug log: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

// startSession brings up capture with the transports cfg enables. A
// monitor session also publishes to a channel for the terminal UI.
func startSession(cfg *config.Config, monitor bool) (s *session, err error) {
	if err := audio.Initialize(); err != nil {
		return nil, err
	}
	s = &session{}
	s.closers = append(s.closers, audio.Terminate)
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	latest := &transport.Latest{}
	outputs := transport.Multi{latest, transport.NewLoggingTransport()}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, sender.Close)
		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, latest)
		if err != nil {
			return s, err
		}
		publisher.Start()
		s.closers = append(s.closers, publisher.Close)
	}

	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err := ws.Start(); err != nil {
			ws.Close()
			return s, fmt.Errorf("starting websocket server: %w", err)
		}
		outputs = append(outputs, ws)
	}

	if monitor {
		s.monitor = transport.NewChannel(monitorQueue)
		outputs = append(outputs, s.monitor)
	}

	if cfg.Field.Enabled {
		s.field = newFieldCollection(cfg.Field)
		s.runner = field.NewRunner(s.field, cfg.Field.Interval)
		s.runner.Start()
		s.closers = append(s.closers, s.runner.Close)
		if !monitor {
			outputs = append(outputs, field.NewSink(s.field))
		}
	}

	pc, err := pipelineConfig(cfg, cfg.Audio.SampleRate)
	if err != nil {
		outputs.Close()
		return s, err
	}
	s.pipeline, err = pipeline.New(pc, outputs)
	if err != nil {
		outputs.Close()
		return s, err
	}
	s.closers = append(s.closers, s.pipeline.Close)

	s.engine, err = audio.NewEngine(cfg.Audio, cfg.Recording, s.pipeline)
	if err != nil {
		return s, err
	}
	s.closers = append(s.closers, s.engine.Close)
	if err := s.engine.StartInputStream(); err != nil {
		return s, err
	}

	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return s, fmt.Errorf("creating recording directory: %w", err)
		}
		name := filepath.Join(cfg.Recording.OutputDir,
			"recording-"+time.Now().UTC().Format("02-01-2006-150405")+".wav")
		if err := s.engine.StartRecording(name); err != nil {
			return s, err
		}
		log.Infof("Recording to %s", name)
	}
	return s, nil
}

// newFieldCollection seeds cfg.Count fields at harmonics of 1 Hz.
func newFieldCollection(cfg config.FieldConfig) *field.Collection {
	c := field.NewCollection(cfg.Seed)
	for i := range cfg.Count {
		freq := float64(i + 1)
		c.Add(field.Field{Amplitude: 1, Phase: 2 * math.Pi * freq, Frequency: freq})
	}
	if cfg.Count > 1 {
		c.Entangle(0, 1)
	}
	return c
}

// Close releases everything in reverse start order.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
