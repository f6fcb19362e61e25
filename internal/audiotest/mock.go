// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic audio sources for tests.
//
// The sources satisfy audio.Source without importing the audio package so
// that tests inside audio can use them too.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// ErrInjected is returned by ErrorSource.
var ErrInjected = errors.New("injected read failure")

// Waveform returns the value of one sample for a frame index and channel.
type Waveform func(frame, channel int) float32

// GenSource produces a fixed number of frames from a Waveform.
type GenSource struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform

	// Chunk caps the number of frames returned per read when > 0.
	Chunk int
	// Closed is set once Close has been called.
	Closed bool
}

// NewGenSource creates a generated source of frames frames.
func NewGenSource(sampleRate, channels, frames int, wave Waveform) *GenSource {
	return &GenSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

// Silence returns a source of zeros.
func Silence(sampleRate, channels, frames int) *GenSource {
	return NewGenSource(sampleRate, channels, frames, func(int, int) float32 { return 0 })
}

// Sine returns a source with the same sine tone on every channel.
func Sine(sampleRate, channels, frames int, freq, amp float64) *GenSource {
	w := 2 * math.Pi * freq / float64(sampleRate)
	return NewGenSource(sampleRate, channels, frames, func(f, _ int) float32 {
		return float32(amp * math.Sin(w*float64(f)))
	})
}

// Constant returns a source where every sample equals v.
func Constant(sampleRate, channels, frames int, v float32) *GenSource {
	return NewGenSource(sampleRate, channels, frames, func(int, int) float32 { return v })
}

func (g *GenSource) SampleRate() int { return g.sampleRate }
func (g *GenSource) Channels() int   { return g.channels }
func (g *GenSource) BufSize() int    { return 4096 }

func (g *GenSource) Close() error {
	g.Closed = true
	return nil
}

// Rewind starts the source over from frame zero.
func (g *GenSource) Rewind() { g.pos = 0 }

func (g *GenSource) ReadSamples(dst []float32) (int, error) {
	if g.pos >= g.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/g.channels, g.frames-g.pos)
	if g.Chunk > 0 {
		n = min(n, g.Chunk)
	}

	for f := range n {
		for c := range g.channels {
			dst[f*g.channels+c] = g.wave(g.pos+f, c)
		}
	}
	g.pos += n

	if g.pos >= g.frames {
		return n * g.channels, io.EOF
	}

	return n * g.channels, nil
}

// SliceSource plays back interleaved samples held in memory.
type SliceSource struct {
	sampleRate int
	channels   int
	data       []float32
	off        int
}

// NewSliceSource wraps data without copying it.
func NewSliceSource(sampleRate, channels int, data []float32) *SliceSource {
	return &SliceSource{sampleRate: sampleRate, channels: channels, data: data}
}

func (s *SliceSource) SampleRate() int { return s.sampleRate }
func (s *SliceSource) Channels() int   { return s.channels }
func (s *SliceSource) BufSize() int    { return 4096 }
func (s *SliceSource) Close() error    { return nil }

func (s *SliceSource) ReadSamples(dst []float32) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	n := copy(dst[:want], s.data[s.off:])
	s.off += n

	if s.off >= len(s.data) {
		return n, io.EOF
	}

	return n, nil
}

// ErrorSource returns After samples of silence and then ErrInjected.
type ErrorSource struct {
	Rate  int
	Chans int
	After int
	read  int
}

func (e *ErrorSource) SampleRate() int { return e.Rate }
func (e *ErrorSource) Channels() int   { return e.Chans }
func (e *ErrorSource) BufSize() int    { return 4096 }
func (e *ErrorSource) Close() error    { return nil }

func (e *ErrorSource) ReadSamples(dst []float32) (int, error) {
	n := min(len(dst), e.After-e.read)
	if n <= 0 {
		return 0, ErrInjected
	}

	clear(dst[:n])
	e.read += n

	return n, nil
}
