// SPDX-License-Identifier: EPL-2.0

package audwmark_test

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ik5/audwmark"
	"github.com/ik5/audwmark/internal/audiotest"
	"github.com/ik5/audwmark/payload"
	"github.com/ik5/audwmark/stream"
)

type sliceWriter struct{ samples []float32 }

func (w *sliceWriter) WriteSamples(s []float32) error {
	w.samples = append(w.samples, s...)
	return nil
}

// Example embeds a message into 16 seconds of silence and reads it back.
func Example() {
	ctx := context.Background()
	quiet := stream.WithLogger(slog.New(slog.DiscardHandler))

	var marked sliceWriter
	n, err := audwmark.Embed(ctx, audiotest.Silence(44100, 1, 700*1024), &marked,
		payload.TextToHex("Go!"), audwmark.EmbedOptions{}, quiet)
	if err != nil {
		fmt.Println(err)
		return
	}

	res, ok, err := audwmark.Detect(ctx, audiotest.NewSliceSource(44100, 1, marked.samples),
		audwmark.DetectOptions{}, quiet)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("frames:", n)
	fmt.Println(ok, res.Detected, res.Message)
	// Output:
	// frames: 716800
	// true true Go!
}
