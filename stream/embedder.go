// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/internal/observe"
	"github.com/ik5/audwmark/payload"
	"github.com/ik5/audwmark/watermark"
)

// RecommendedFrameSize is the caller frame size, in frames, that suits most
// audio callbacks. Any other size works.
const RecommendedFrameSize = 512

// MaxMessageLength returns the longest payload, in bytes, that p allows.
func MaxMessageLength(p watermark.Params) int { return p.MaxMessageBytes }

// Embedder watermarks a live stream delivered in frames of any size.
//
// ProcessFrame is meant to be called from the audio goroutine only. Output
// lags input by Latency frames; the first Latency frames are silence. After
// that output is continuous for any sequence of frame sizes.
type Embedder struct {
	cfg    watermark.Config
	params watermark.Params
	emb    *watermark.Embedder
	log    *slog.Logger

	in, out *audio.FrameBuffer
	scratch []float32
	frame   []float32

	state lifecycle
	stats counters

	met     *observe.Metrics
	dirOpts []metric.AddOption
}

// NewEmbedder creates an active embedder for payloadHex. It returns a nil
// handle and an error when the payload or configuration is invalid.
func NewEmbedder(cfg watermark.Config, payloadHex string, opts ...Option) (*Embedder, error) {
	o, met, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	bits, err := payload.ParseBits(payloadHex)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	emb, err := watermark.NewEmbedder(cfg, bits, o.params, o.carrier)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	block := o.params.BlockSize
	e := &Embedder{
		cfg:     cfg,
		params:  o.params,
		emb:     emb,
		log:     o.logger.With("component", "embedder"),
		in:      audio.NewFrameBuffer(cfg.Channels, 2*block),
		out:     audio.NewFrameBuffer(cfg.Channels, 3*block+emb.Latency()),
		scratch: make([]float32, 0, block*cfg.Channels),
		met:     met,
		dirOpts: []metric.AddOption{observe.DirectionSet(observe.DirectionEmbed)},
	}
	e.prime()
	e.state.activate()

	met.ActiveHandles.Add(context.Background(), 1, e.dirOpts...)
	e.log.Info("embedder created",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"strength", cfg.Strength,
		"payload_bytes", len(bits)/8,
		"latency_frames", e.Latency(),
	)

	return e, nil
}

// prime fills the output FIFO with Latency frames of silence so that every
// later frame can be served from processed blocks.
func (e *Embedder) prime() {
	e.out.Clear()
	e.out.PushSilence(e.Latency())
}

// Latency is the constant delay between input and output, in frames.
func (e *Embedder) Latency() int { return e.params.BlockSize + e.emb.Latency() }

// InternalBlockSize is the processing block size in frames.
func (e *Embedder) InternalBlockSize() int { return e.params.BlockSize }

// State returns the lifecycle stage.
func (e *Embedder) State() State { return e.state.load() }

// Stats returns running totals.
func (e *Embedder) Stats() Stats { return e.stats.snapshot() }

// ProcessFrame embeds one caller frame of frameSize frames and returns the
// same number of output samples. The returned slice is owned by the
// embedder and valid until the next call.
//
// A frame whose length is not frameSize*channels, or a call on a destroyed
// handle, returns in unchanged and does not touch the stream state.
func (e *Embedder) ProcessFrame(in []float32, frameSize int) []float32 {
	if !e.accept(in, frameSize) {
		return in
	}

	if cap(e.frame) < len(in) {
		e.frame = make([]float32, len(in))
	}
	out := e.frame[:len(in)]
	e.run(in, out, frameSize)

	return out
}

// ProcessFrameInPlace is ProcessFrame writing the output over buf. It
// reports false and leaves buf alone when the length does not match.
func (e *Embedder) ProcessFrameInPlace(buf []float32, frameSize int) bool {
	if !e.accept(buf, frameSize) {
		return false
	}

	e.run(buf, buf, frameSize)

	return true
}

func (e *Embedder) accept(in []float32, frameSize int) bool {
	if frameSize <= 0 || len(in) != frameSize*e.cfg.Channels || e.state.load() != StateActive {
		e.stats.passthrough.Add(1)
		e.met.PassthroughFrames.Add(context.Background(), 1, e.dirOpts...)
		return false
	}

	return true
}

// run pushes in, embeds every complete block and pops frameSize frames into
// out. in and out may alias.
func (e *Embedder) run(in, out []float32, frameSize int) {
	e.in.Push(in)

	blocks := int64(0)
	for e.in.Has(e.params.BlockSize) {
		e.scratch = e.emb.Process(e.scratch[:0], e.in.Pop(e.params.BlockSize))
		e.out.Push(e.scratch)
		blocks++
	}

	e.stats.frames.Add(1)
	if blocks > 0 {
		e.stats.blocks.Add(uint64(blocks))
		e.met.Blocks.Add(context.Background(), blocks, e.dirOpts...)
	}

	if e.out.Has(frameSize) {
		e.out.PopInto(out)
		return
	}

	clear(out)
	e.stats.silence.Add(1)
	e.met.SilenceFrames.Add(context.Background(), 1, e.dirOpts...)
}

// Reset restarts the payload from its first bit, drops buffered audio and
// restores the initial latency. The payload and configuration are kept. It
// must not run concurrently with ProcessFrame.
func (e *Embedder) Reset() {
	if e.state.load() != StateActive {
		return
	}

	e.emb.Reset()
	e.in.Clear()
	e.prime()
	e.log.Info("embedder reset")
}

// Close destroys the handle. It must not run concurrently with
// ProcessFrame. A second call returns ErrDestroyed.
func (e *Embedder) Close() error {
	if !e.state.destroy() {
		return ErrDestroyed
	}

	e.in.Clear()
	e.out.Clear()
	e.met.ActiveHandles.Add(context.Background(), -1, e.dirOpts...)

	st := e.stats.snapshot()
	e.log.Info("embedder destroyed",
		"frames", st.Frames,
		"blocks", st.Blocks,
		"passthrough", st.Passthrough,
		"silence", st.Silence,
	)

	return nil
}
