// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ik5/audwmark"
	"github.com/ik5/audwmark/formats/wav"
	"github.com/ik5/audwmark/payload"
	"github.com/ik5/audwmark/stream"
)

func runEmbed(ctx context.Context, e *env, args []string) (err error) {
	fs := newFlagSet(e, "embed", "-in FILE -out OUT.wav (-message TEXT | -hex HEX) [flags]")
	in := fs.String("in", "", "input audio file (wav, mp3, ogg, aiff)")
	out := fs.String("out", "", "output WAV file")
	message := fs.String("message", "", "text to embed")
	hexPayload := fs.String("hex", "", "payload to embed, as hex")
	strength := fs.Float64("strength", e.cfg.Embed.Strength, "carrier amplitude relative to full scale")
	frame := fs.Int("frame", e.cfg.Audio.FrameSize, "frames per call into the stream embedder")
	rate := fs.Int("rate", 0, "resample to this rate before embedding (0 keeps the input rate)")
	bits := fs.Int("bits", 16, "output bit depth (8, 16, 24, 32)")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *in == "" || *out == "" || (*message == "") == (*hexPayload == "") {
		fs.Usage()
		return errUsage
	}

	hex := *hexPayload
	if *message != "" {
		hex = payload.TextToHex(*message)
	}

	src, err := audwmark.Open(*in)
	if err != nil {
		return err
	}
	defer src.Close()

	outRate := src.SampleRate()
	if *rate > 0 {
		outRate = *rate
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	enc, err := wav.NewEncoder(f, outRate, src.Channels(), *bits)
	if err != nil {
		return err
	}

	opts := audwmark.EmbedOptions{
		Strength:   *strength,
		FrameSize:  *frame,
		SampleRate: *rate,
	}
	frames, err := audwmark.Embed(ctx, src, enc, hex, opts,
		stream.WithParams(e.cfg.Params()),
		stream.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	e.log.Info("embedded watermark",
		"in", *in,
		"out", *out,
		"payload", hex,
		"frames", frames,
		"sample_rate", outRate,
		"channels", src.Channels(),
	)

	return nil
}
