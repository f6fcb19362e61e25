// SPDX-License-Identifier: EPL-2.0

package audwmark

import (
	"context"
	"fmt"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/stream"
	"github.com/ik5/audwmark/watermark"
)

// DetectOptions tunes Detect. Zero values select defaults.
type DetectOptions struct {
	FrameSize int
	// SampleRate and Channels convert the source before analysis.
	SampleRate int
	Channels   int
}

// Detect runs the whole of src through a stream detector and returns its
// final result. ok is false when src was too short to evaluate, in which
// case err is ErrNoResult.
func Detect(ctx context.Context, src audio.Source, o DetectOptions, opts ...stream.Option) (res watermark.Detection, ok bool, err error) {
	if o.FrameSize <= 0 {
		o.FrameSize = stream.RecommendedFrameSize
	}
	src = conform(src, o.SampleRate, o.Channels)

	cfg := watermark.Config{SampleRate: src.SampleRate(), Channels: src.Channels()}
	det, err := stream.NewDetector(cfg, opts...)
	if err != nil {
		return res, false, fmt.Errorf("detect: %w", err)
	}
	defer det.Close()

	blocks, err := stream.NewSourceBlocks(src, o.FrameSize)
	if err != nil {
		return res, false, fmt.Errorf("detect: %w", err)
	}

	err = stream.Pump(ctx, blocks, func(frame []float32) error {
		det.ProcessFrame(frame, o.FrameSize)
		return nil
	})
	if err != nil {
		return res, false, fmt.Errorf("detect: %w", err)
	}

	res, ok = det.Result()
	if !ok {
		return res, false, ErrNoResult
	}

	return res, true, nil
}
