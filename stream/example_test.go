// SPDX-License-Identifier: EPL-2.0

package stream_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ik5/audwmark/payload"
	"github.com/ik5/audwmark/stream"
	"github.com/ik5/audwmark/watermark"
)

func Example() {
	cfg := watermark.Config{SampleRate: 44100, Channels: 1, Strength: 0.004}
	quiet := stream.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	emb, err := stream.NewEmbedder(cfg, payload.TextToHex("Hello"), quiet)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer emb.Close()

	det, err := stream.NewDetector(cfg, quiet)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer det.Close()

	const frameSize = stream.RecommendedFrameSize
	in := make([]float32, frameSize)
	for range 1400 {
		out := emb.ProcessFrame(in, frameSize)
		det.ProcessFrame(out, frameSize)
	}

	res, ok := det.Result()
	fmt.Println("latency:", emb.Latency())
	fmt.Println(ok, res.Detected, res.Message)
	// Output:
	// latency: 1245
	// true true Hello
}
