// SPDX-License-Identifier: EPL-2.0

package watermark

import (
	"fmt"
	"math"
)

// Carrier maps payload bits onto audio and back.
//
// Modulate adds the carrier for bit to an interleaved block, starting at
// phase, and returns the phase after the block. The same value is added to
// every channel of a frame. Analyze scores how strongly a block supports
// each bit value; scores are non-negative and comparable between the two
// hypotheses.
//
// Implementations must be safe to share between an embedder and a detector,
// so they keep no per-stream state.
type Carrier interface {
	Modulate(block []float32, channels int, bit uint8, amp, phase float64) float64
	Analyze(block []float32, channels int) (score0, score1 float64)
}

const (
	DefaultFreq0 = 1000.0
	DefaultFreq1 = 1500.0
)

// FSK is a two-tone frequency shift keying carrier. Bit 0 is a sine at
// Freq0 and bit 1 a sine at Freq1. The phase stays continuous across bit
// changes so no click is produced at block edges.
//
// Analyze runs a Hann-windowed Goertzel filter per tone so that loud
// program material away from the carriers leaks little into the scores.
type FSK struct {
	Freq0, Freq1 float64

	rate   int
	frames int
	g0, g1 goertzel
	win    hann
}

// NewFSK returns an FSK carrier for the given sample rate and block size in
// frames. Both tones must lie strictly between 0 and the Nyquist frequency.
func NewFSK(sampleRate, blockFrames int, freq0, freq1 float64) (*FSK, error) {
	nyquist := float64(sampleRate) / 2
	for _, f := range []float64{freq0, freq1} {
		if f <= 0 || f >= nyquist {
			return nil, fmt.Errorf("%w: carrier %g Hz outside (0, %g)", ErrInvalidConfig, f, nyquist)
		}
	}
	if freq0 == freq1 {
		return nil, fmt.Errorf("%w: carrier frequencies must differ", ErrInvalidConfig)
	}

	if blockFrames <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidParams, blockFrames)
	}

	return &FSK{
		Freq0:  freq0,
		Freq1:  freq1,
		rate:   sampleRate,
		frames: blockFrames,
		g0:     newGoertzel(freq0, sampleRate),
		g1:     newGoertzel(freq1, sampleRate),
		win:    newHann(blockFrames),
	}, nil
}

func (f *FSK) Modulate(block []float32, channels int, bit uint8, amp, phase float64) float64 {
	freq := f.Freq0
	if bit != 0 {
		freq = f.Freq1
	}
	step := 2 * math.Pi * freq / float64(f.rate)

	for i := 0; i+channels <= len(block); i += channels {
		v := float32(amp * math.Sin(phase))
		for c := range channels {
			block[i+c] += v
		}

		phase += step
		if phase >= 2*math.Pi {
			phase -= 2 * math.Pi
		}
	}

	return phase
}

// Analyze returns the mean tone amplitude at Freq0 and Freq1. Blocks that
// are not exactly the configured size score zero.
func (f *FSK) Analyze(block []float32, channels int) (float64, float64) {
	if len(block) != f.frames*channels {
		return 0, 0
	}

	return f.g0.mean(block, channels, f.win), f.g1.mean(block, channels, f.win)
}

func defaultCarrier(sampleRate, blockFrames int) (Carrier, error) {
	return NewFSK(sampleRate, blockFrames, DefaultFreq0, DefaultFreq1)
}
