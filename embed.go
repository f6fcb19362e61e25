// SPDX-License-Identifier: EPL-2.0

package audwmark

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/stream"
	"github.com/ik5/audwmark/watermark"
)

// FrameWriter receives interleaved samples. *wav.Encoder implements it.
type FrameWriter interface {
	WriteSamples(samples []float32) error
}

// EmbedOptions tunes Embed. Zero values select defaults.
type EmbedOptions struct {
	// Strength of the carrier relative to full scale.
	Strength float64
	// FrameSize in frames fed to the stream embedder per call.
	FrameSize int
	// SampleRate and Channels convert the source before embedding.
	SampleRate int
	Channels   int
}

// DefaultStrength is the carrier amplitude used when none is given.
const DefaultStrength = 0.004

func (o EmbedOptions) withDefaults() EmbedOptions {
	if o.Strength == 0 {
		o.Strength = DefaultStrength
	}
	if o.FrameSize <= 0 {
		o.FrameSize = stream.RecommendedFrameSize
	}
	return o
}

// Embed watermarks src with payloadHex and writes the result to w. The
// stream latency is removed, so w receives exactly as many frames as src
// produced (after conversion) and sample i of the output lines up with
// sample i of the input. It returns the number of frames written.
func Embed(ctx context.Context, src audio.Source, w FrameWriter, payloadHex string, o EmbedOptions, opts ...stream.Option) (int, error) {
	o = o.withDefaults()
	src = conform(src, o.SampleRate, o.Channels)

	cfg := watermark.Config{
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
		Strength:   o.Strength,
	}

	emb, err := stream.NewEmbedder(cfg, payloadHex, opts...)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	defer emb.Close()

	blocks, err := stream.NewSourceBlocks(src, o.FrameSize)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}

	ch := cfg.Channels
	skip := emb.Latency()
	var in, out int

	emit := func(y []float32) error {
		if skip > 0 {
			d := min(skip, len(y)/ch)
			y = y[d*ch:]
			skip -= d
		}
		if keep := in - out; len(y)/ch > keep {
			y = y[:keep*ch]
		}
		if len(y) == 0 {
			return nil
		}

		out += len(y) / ch
		return w.WriteSamples(y)
	}

	buf := make([]float32, o.FrameSize*ch)
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		n, err := blocks.ReadFrame(buf)
		if n > 0 {
			in += n / ch
			if werr := emit(emb.ProcessFrame(buf, o.FrameSize)); werr != nil {
				return out, fmt.Errorf("embed: write: %w", werr)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("embed: %w", err)
		}
	}

	// push the tail still held in the pipeline
	clear(buf)
	for out < in {
		if werr := emit(emb.ProcessFrame(buf, o.FrameSize)); werr != nil {
			return out, fmt.Errorf("embed: write: %w", werr)
		}
	}

	return out, nil
}
