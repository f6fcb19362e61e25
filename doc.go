// SPDX-License-Identifier: EPL-2.0

// Package audwmark embeds and detects inaudible text watermarks in audio.
//
// The work is split across subpackages:
//   - payload converts text to hex and hex to bits
//   - watermark holds the block-level embedder and detector
//   - stream adapts them to arbitrary host frame sizes with a fixed latency
//   - audio and formats provide sources, resampling and file decoders
//
// This package ties them together for whole files:
//
//	src, _ := audwmark.Open("program.wav")
//	defer src.Close()
//
//	out, _ := os.Create("marked.wav")
//	enc, _ := wav.NewEncoder(out, src.SampleRate(), src.Channels(), 16)
//	_, err := audwmark.Embed(ctx, src, enc, payload.TextToHex("Hello"), audwmark.EmbedOptions{})
//	_ = enc.Close()
//
//	marked, _ := audwmark.Open("marked.wav")
//	res, ok, err := audwmark.Detect(ctx, marked, audwmark.DetectOptions{})
//	if ok && res.Detected {
//	    fmt.Println(res.Message, res.Confidence)
//	}
//
// The detector needs about half of its analysis window, roughly six seconds
// at 44.1 kHz with the default parameters, before it reports anything.
package audwmark
