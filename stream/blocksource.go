// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/audwmark/audio"
)

// BlockSource delivers fixed-size frames of interleaved samples, the way an
// audio device callback would.
//
// ReadFrame fills dst, which holds FrameSize()*Channels() samples, and
// returns the number of real samples. A short final frame is padded with
// silence. After the last frame ReadFrame returns 0, io.EOF.
type BlockSource interface {
	SampleRate() int
	Channels() int
	FrameSize() int
	ReadFrame(dst []float32) (int, error)
}

// SourceBlocks cuts a decoded audio.Source into frames.
type SourceBlocks struct {
	src   audio.Source
	frame int
	fb    *audio.FrameBuffer
	chunk []float32
	eof   bool
}

// NewSourceBlocks returns a BlockSource reading frameSize frames at a time.
func NewSourceBlocks(src audio.Source, frameSize int) (*SourceBlocks, error) {
	if frameSize <= 0 {
		return nil, ErrInvalidFrameSize
	}

	ch := src.Channels()
	return &SourceBlocks{
		src:   src,
		frame: frameSize,
		fb:    audio.NewFrameBuffer(ch, 2*frameSize),
		chunk: make([]float32, frameSize*ch),
	}, nil
}

func (s *SourceBlocks) SampleRate() int { return s.src.SampleRate() }
func (s *SourceBlocks) Channels() int   { return s.src.Channels() }
func (s *SourceBlocks) FrameSize() int  { return s.frame }

func (s *SourceBlocks) ReadFrame(dst []float32) (int, error) {
	ch := s.src.Channels()
	for !s.eof && !s.fb.Has(s.frame) {
		n, err := s.src.ReadSamples(s.chunk)
		s.fb.Push(s.chunk[:n-n%ch])

		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			return 0, fmt.Errorf("stream: source read: %w", err)
		case n == 0:
			return 0, io.ErrNoProgress
		}
	}

	if s.fb.Has(s.frame) {
		return s.fb.PopInto(dst[:s.frame*ch]), nil
	}

	n := s.fb.Size()
	if n == 0 {
		return 0, io.EOF
	}

	s.fb.PopInto(dst[:n])
	clear(dst[n : s.frame*ch])

	return n, nil
}

// ReaderBlocks reads raw little-endian float32 PCM, for example from a pipe.
type ReaderBlocks struct {
	r        io.Reader
	rate, ch int
	frame    int
	raw      []byte
}

// NewReaderBlocks returns a BlockSource over r with the given layout.
func NewReaderBlocks(r io.Reader, sampleRate, channels, frameSize int) (*ReaderBlocks, error) {
	if frameSize <= 0 {
		return nil, ErrInvalidFrameSize
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("stream: invalid layout %d Hz x %d channels", sampleRate, channels)
	}

	return &ReaderBlocks{
		r:     r,
		rate:  sampleRate,
		ch:    channels,
		frame: frameSize,
		raw:   make([]byte, frameSize*channels*4),
	}, nil
}

func (b *ReaderBlocks) SampleRate() int { return b.rate }
func (b *ReaderBlocks) Channels() int   { return b.ch }
func (b *ReaderBlocks) FrameSize() int  { return b.frame }

func (b *ReaderBlocks) ReadFrame(dst []float32) (int, error) {
	got, err := io.ReadFull(b.r, b.raw)
	switch {
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		// short tail, padded below
	case err != nil:
		return 0, fmt.Errorf("stream: pcm read: %w", err)
	}

	n := got / 4
	n -= n % b.ch
	for i := range n {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.raw[4*i:]))
	}
	clear(dst[n : b.frame*b.ch])

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

// Pump reads frames from src and hands each one to fn on the calling
// goroutine until the source ends, fn fails or ctx is cancelled. Every
// frame passed to fn holds exactly FrameSize()*Channels() samples.
//
// Handles fed by fn may be closed once Pump has returned.
func Pump(ctx context.Context, src BlockSource, fn func(frame []float32) error) error {
	buf := make([]float32, src.FrameSize()*src.Channels())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.ReadFrame(buf)
		if n > 0 {
			if ferr := fn(buf); ferr != nil {
				return ferr
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
