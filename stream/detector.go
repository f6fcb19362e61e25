// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/internal/observe"
	"github.com/ik5/audwmark/watermark"
)

// Detector analyzes a live stream delivered in frames of any size.
//
// ProcessFrame belongs to the audio goroutine. Result may be polled from
// any other goroutine at the same time.
type Detector struct {
	cfg    watermark.Config
	params watermark.Params
	det    *watermark.Detector
	log    *slog.Logger

	in *audio.FrameBuffer

	state lifecycle
	stats counters

	met     *observe.Metrics
	dirOpts []metric.AddOption
}

// NewDetector creates an active detector. It returns a nil handle and an
// error when the configuration is invalid.
func NewDetector(cfg watermark.Config, opts ...Option) (*Detector, error) {
	o, met, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	det, err := watermark.NewDetector(cfg, o.params, o.carrier)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	d := &Detector{
		cfg:     cfg,
		params:  o.params,
		det:     det,
		log:     o.logger.With("component", "detector"),
		in:      audio.NewFrameBuffer(cfg.Channels, 2*o.params.BlockSize),
		met:     met,
		dirOpts: []metric.AddOption{observe.DirectionSet(observe.DirectionDetect)},
	}
	d.state.activate()

	met.ActiveHandles.Add(context.Background(), 1, d.dirOpts...)
	d.log.Info("detector created",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"window_blocks", o.params.WindowSize,
	)

	return d, nil
}

// InternalBlockSize is the processing block size in frames.
func (d *Detector) InternalBlockSize() int { return d.params.BlockSize }

// State returns the lifecycle stage.
func (d *Detector) State() State { return d.state.load() }

// Stats returns running totals.
func (d *Detector) Stats() Stats { return d.stats.snapshot() }

// ProcessFrame feeds one caller frame of frameSize frames. It reports false
// and changes nothing when the length does not match frameSize*channels or
// the handle is destroyed.
func (d *Detector) ProcessFrame(in []float32, frameSize int) bool {
	if frameSize <= 0 || len(in) != frameSize*d.cfg.Channels || d.state.load() != StateActive {
		d.stats.passthrough.Add(1)
		d.met.PassthroughFrames.Add(context.Background(), 1, d.dirOpts...)
		return false
	}

	d.in.Push(in)

	blocks := int64(0)
	for d.in.Has(d.params.BlockSize) {
		d.det.Process(d.in.Pop(d.params.BlockSize))
		blocks++
	}

	d.stats.frames.Add(1)
	if blocks > 0 {
		d.stats.blocks.Add(uint64(blocks))
		d.met.Blocks.Add(context.Background(), blocks, d.dirOpts...)
	}

	return true
}

// Result returns the current detection, or ok=false while there is not yet
// enough evidence or the handle is destroyed.
func (d *Detector) Result() (watermark.Detection, bool) {
	if d.state.load() != StateActive {
		return watermark.Detection{}, false
	}

	res, ok := d.det.Result()
	if ok {
		d.met.RecordResult(context.Background(), res.Confidence, res.Detected)
	}

	return res, ok
}

// Reset discards all evidence and buffered audio. It must not run
// concurrently with ProcessFrame; only Result may be called from another
// goroutine.
func (d *Detector) Reset() {
	if d.state.load() != StateActive {
		return
	}

	d.in.Clear()
	d.det.Reset()
	d.log.Info("detector reset")
}

// Close destroys the handle. It must not run concurrently with
// ProcessFrame. A second call returns ErrDestroyed.
func (d *Detector) Close() error {
	if !d.state.destroy() {
		return ErrDestroyed
	}

	d.in.Clear()
	d.met.ActiveHandles.Add(context.Background(), -1, d.dirOpts...)

	st := d.stats.snapshot()
	d.log.Info("detector destroyed",
		"frames", st.Frames,
		"blocks", st.Blocks,
		"passthrough", st.Passthrough,
	)

	return nil
}
