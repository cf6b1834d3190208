// SPDX-License-Identifier: MIT
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// DecodeWAV decodes PCM WAV data of 8 to 32 bits.
func DecodeWAV(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	depth := int(buf.SourceBitDepth)
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	channels := buf.Format.NumChannels
	samples := make([]float64, len(buf.Data))
	if depth == 8 {
		// 8-bit WAV is unsigned.
		for i, v := range buf.Data {
			samples[i] = float64(v-128) / 128
		}
	} else {
		scale := float64(int64(1) << (depth - 1))
		for i, v := range buf.Data {
			samples[i] = float64(v) / scale
		}
	}

	return &Audio{
		Samples:    Mono(samples, channels),
		SampleRate: float64(buf.Format.SampleRate),
		Channels:   channels,
		Format:     "wav",
	}, nil
}

// DecodeFLAC decodes a FLAC stream frame by frame.
func DecodeFLAC(r io.Reader) (*Audio, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	scale := float64(int64(1) << (info.BitsPerSample - 1))

	samples := make([]float64, 0, int(info.NSamples))
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding FLAC frame: %w", err)
		}
		n := int(frame.Subframes[0].NSamples)
		for i := range n {
			var sum float64
			for ch := range channels {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, sum/float64(channels)/scale)
		}
	}

	return &Audio{
		Samples:    samples,
		SampleRate: float64(info.SampleRate),
		Channels:   channels,
		Format:     "flac",
	}, nil
}

// DecodeMP3 decodes an MP3 stream. The decoder always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (*Audio, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	raw, err := readAll(dec.Read, 8192)
	if err != nil {
		return nil, fmt.Errorf("reading MP3 data: %w", err)
	}

	const channels = 2
	interleaved := make([]float64, len(raw)/2)
	for i := range interleaved {
		interleaved[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}

	return &Audio{
		Samples:    Mono(interleaved, channels),
		SampleRate: float64(dec.SampleRate()),
		Channels:   channels,
		Format:     "mp3",
	}, nil
}

// DecodeOGG decodes an Ogg Vorbis stream.
func DecodeOGG(r io.Reader) (*Audio, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	raw, err := readAll(reader.Read, 4096*reader.Channels())
	if err != nil {
		return nil, fmt.Errorf("reading OGG data: %w", err)
	}

	interleaved := make([]float64, len(raw))
	for i, v := range raw {
		interleaved[i] = max(-1, min(1, float64(v)))
	}

	return &Audio{
		Samples:    Mono(interleaved, reader.Channels()),
		SampleRate: float64(reader.SampleRate()),
		Channels:   reader.Channels(),
		Format:     "ogg",
	}, nil
}
