// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audwmark/utils"
)

// Encoder writes interleaved float32 samples as integer PCM WAV. The
// header sizes are patched on Close, so the destination must seek.
type Encoder struct {
	enc      *gowav.Encoder
	bitDepth int
	buf      *goaudio.IntBuffer
	frames   int
	closed   bool
}

// NewEncoder returns an Encoder writing to w. bitDepth is 8, 16, 24 or 32.
func NewEncoder(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Encoder, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("%w: %d Hz x %d channels", ErrInvalidLayout, sampleRate, channels)
	}

	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	return &Encoder{
		enc:      gowav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM),
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// WriteSamples appends whole frames of interleaved samples. Values
// outside [-1, 1] are clipped.
func (e *Encoder) WriteSamples(samples []float32) error {
	ch := e.buf.Format.NumChannels
	if len(samples)%ch != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames",
			ErrInvalidLayout, len(samples), ch)
	}

	bias := 0
	if e.bitDepth == 8 {
		bias = 128
	}

	e.buf.Data = e.buf.Data[:0]
	for _, x := range samples {
		e.buf.Data = append(e.buf.Data, utils.Float32ToInt(x, e.bitDepth)+bias)
	}

	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("wav: write: %w", err)
	}
	e.frames += len(samples) / ch

	return nil
}

// Frames returns the number of frames written so far.
func (e *Encoder) Frames() int { return e.frames }

// Close finalizes the header. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	// the data chunk header is only emitted by the first Write
	if e.frames == 0 {
		e.buf.Data = e.buf.Data[:0]
		if err := e.enc.Write(e.buf); err != nil {
			return fmt.Errorf("wav: write header: %w", err)
		}
	}

	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("wav: finalize: %w", err)
	}

	return nil
}
