// SPDX-License-Identifier: MIT

// Package audio captures live input with PortAudio, gates silent blocks and
// hands mono float blocks to an analysis.Processor, optionally recording the
// raw input to WAV.
//
// The capture callback only touches pre-allocated buffers and atomics;
// recorder and processor swaps go through atomic pointers.
package audio

import (
	"audiostate/internal/analysis"
	"audiostate/internal/config"
	"audiostate/internal/log"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// int32 full scale, for normalizing captured samples.
const normFactor = 1.0 / float64(0x80000000)

var logger = log.Component("Audio")

// ErrAlreadyRecording is returned by StartRecording while a recording runs.
var ErrAlreadyRecording = errors.New("already recording")

// Engine owns the input stream.
type Engine struct {
	config    config.AudioConfig
	recording config.RecordingConfig
	processor analysis.Processor
	gate      *Gate

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration

	streamMu    sync.Mutex
	inputStream *portaudio.Stream

	// Audio thread buffers.
	interleaved []float64
	mono        []float64

	recorder atomic.Pointer[Recorder]
	blocks   atomic.Uint64
	gated    atomic.Uint64
}

// NewEngine resolves the configured input device. PortAudio must be
// initialized.
func NewEngine(cfg config.AudioConfig, rec config.RecordingConfig, p analysis.Processor) (*Engine, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}
	e := newEngine(cfg, rec, p)
	e.inputDevice = device
	if cfg.LowLatency {
		e.inputLatency = device.DefaultLowInputLatency
	} else {
		e.inputLatency = device.DefaultHighInputLatency
	}
	logger.Infof("Engine using %s (%d ch, %.0f Hz, %d frames, latency %s)",
		device.Name, cfg.InputChannels, cfg.SampleRate, cfg.FramesPerBuffer, e.inputLatency)
	return e, nil
}

func newEngine(cfg config.AudioConfig, rec config.RecordingConfig, p analysis.Processor) *Engine {
	channels := max(1, cfg.InputChannels)
	cfg.InputChannels = channels
	return &Engine{
		config:      cfg,
		recording:   rec,
		processor:   p,
		gate:        NewGate(cfg.SilenceThreshold),
		interleaved: make([]float64, cfg.FramesPerBuffer*channels),
		mono:        make([]float64, cfg.FramesPerBuffer),
	}
}

// Gate returns the engine's noise gate.
func (e *Engine) Gate() *Gate { return e.gate }

// StartInputStream opens and starts the capture stream.
func (e *Engine) StartInputStream() error {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	if e.inputStream != nil {
		return nil
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		FramesPerBuffer: e.config.FramesPerBuffer,
		SampleRate:      e.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting input stream: %w", err)
	}
	e.inputStream = stream
	logger.Infof("Input stream started")
	return nil
}

// StopInputStream stops and closes the capture stream if it is open.
func (e *Engine) StopInputStream() error {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	if e.inputStream == nil {
		return nil
	}
	err := errors.Join(e.inputStream.Stop(), e.inputStream.Close())
	e.inputStream = nil
	logger.Infof("Input stream stopped (%d blocks, %d gated)", e.blocks.Load(), e.gated.Load())
	return err
}

// processInputStream is the PortAudio callback.
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	e.processBlock(in)
}

// processBlock normalizes and down-mixes one callback buffer, records it and
// passes it to the processor when the gate is open.
func (e *Engine) processBlock(in []int32) {
	n := min(len(in), len(e.interleaved))
	for i, s := range in[:n] {
		e.interleaved[i] = float64(s) * normFactor
	}
	interleaved := e.interleaved[:n]
	e.blocks.Add(1)

	if rec := e.recorder.Load(); rec != nil {
		if err := rec.Write(interleaved); err != nil {
			logger.Debugf("Recording write failed: %v", err)
		}
	}

	channels := e.config.InputChannels
	frames := n / channels
	mono := e.mono[:frames]
	if channels == 1 {
		copy(mono, interleaved)
	} else {
		for i := range mono {
			var sum float64
			for _, s := range interleaved[i*channels : (i+1)*channels] {
				sum += s
			}
			mono[i] = sum / float64(channels)
		}
	}

	if !e.gate.Open(mono) {
		e.gated.Add(1)
		return
	}
	if e.processor != nil {
		e.processor.Process(mono)
	}
}

// Blocks returns the number of callback buffers received and how many of
// them the gate held back.
func (e *Engine) Blocks() (received, gated uint64) {
	return e.blocks.Load(), e.gated.Load()
}

// StartRecording records raw input to filename using the configured bit
// depth and maximum duration.
func (e *Engine) StartRecording(filename string) error {
	if e.recorder.Load() != nil {
		return ErrAlreadyRecording
	}
	maxFrames := int(float64(e.recording.MaxDuration) * e.config.SampleRate)
	bitDepth := e.recording.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	rec, err := NewRecorder(filename, e.config.SampleRate, e.config.InputChannels, bitDepth, maxFrames)
	if err != nil {
		return err
	}
	if !e.recorder.CompareAndSwap(nil, rec) {
		rec.Close()
		return ErrAlreadyRecording
	}
	return nil
}

// Recording reports whether a recording is active.
func (e *Engine) Recording() bool { return e.recorder.Load() != nil }

// StopRecording finalizes the current recording, if any.
func (e *Engine) StopRecording() error {
	rec := e.recorder.Swap(nil)
	if rec == nil {
		return nil
	}
	logger.Infof("Recording stopped after %d frames", rec.Frames())
	return rec.Close()
}

// Close stops recording and the input stream.
func (e *Engine) Close() error {
	return errors.Join(e.StopRecording(), e.StopInputStream())
}
