// SPDX-License-Identifier: EPL-2.0

package watermark

import (
	"fmt"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/payload"
)

// Embedder adds the payload carrier to fixed-size blocks and limits the
// result.
//
// Every framed bit is held for FramesPerBit consecutive blocks. The framed
// cycle (see Frame) repeats for as long as blocks arrive.
// Output is delayed by the limiter look-ahead.
//
// Embedder is not safe for concurrent use.
type Embedder struct {
	cfg     Config
	params  Params
	carrier Carrier
	bits    []uint8

	blocks uint64
	phase  float64

	lim  *audio.Limiter
	work []float32
}

// NewEmbedder builds an embedder for bits. A nil carrier selects the default
// FSK carrier.
func NewEmbedder(cfg Config, bits payload.Bits, p Params, c Carrier) (*Embedder, error) {
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(bits) == 0 || len(bits)%8 != 0 {
		return nil, ErrEmptyPayload
	}
	if len(bits)/8 > p.MaxMessageBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLong, len(bits)/8, p.MaxMessageBytes)
	}

	if c == nil {
		var err error
		if c, err = defaultCarrier(cfg.SampleRate, p.BlockSize); err != nil {
			return nil, err
		}
	}

	return &Embedder{
		cfg:     cfg,
		params:  p,
		carrier: c,
		bits:    Frame(bits),
		lim:     audio.NewLimiter(cfg.SampleRate, cfg.Channels, p.Ceiling),
		work:    make([]float32, p.BlockSize*cfg.Channels),
	}, nil
}

// BlockLen is the number of samples Process expects.
func (e *Embedder) BlockLen() int { return e.params.BlockSize * e.cfg.Channels }

// Latency is the delay added by the limiter, in frames.
func (e *Embedder) Latency() int { return e.lim.LookAhead() }

// Blocks returns the number of blocks embedded since creation or Reset.
func (e *Embedder) Blocks() uint64 { return e.blocks }

// Framed returns the embedded bit sequence. The caller must not modify it.
func (e *Embedder) Framed() []uint8 { return e.bits }

// CurrentBit returns the bit the next block will carry.
func (e *Embedder) CurrentBit() uint8 {
	return e.bits[e.bitIndex()]
}

func (e *Embedder) bitIndex() int {
	return int((e.blocks / uint64(e.params.FramesPerBit)) % uint64(len(e.bits)))
}

// Process watermarks one block and appends whatever the limiter releases to
// dst. A block of the wrong length is appended unchanged and leaves the
// embedder untouched.
func (e *Embedder) Process(dst, block []float32) []float32 {
	if len(block) != len(e.work) {
		return append(dst, block...)
	}

	copy(e.work, block)
	e.phase = e.carrier.Modulate(e.work, e.cfg.Channels, e.CurrentBit(), e.cfg.Strength, e.phase)
	e.blocks++

	return e.lim.Process(dst, e.work)
}

// Reset restarts the bit sequence and carrier phase and empties the limiter.
// The payload is kept.
func (e *Embedder) Reset() {
	e.blocks = 0
	e.phase = 0
	e.lim.Reset()
}
