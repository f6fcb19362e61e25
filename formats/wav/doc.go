// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes integer PCM WAV files on top of
// github.com/go-audio/wav.
//
// # Decoding
//
// Decoder accepts 8-bit unsigned and 16, 24 or 32-bit signed PCM in any
// channel layout and sample rate. Samples come out as interleaved float32
// in [-1, 1]:
//
//	f, _ := os.Open("program.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    // errors.Is(err, wav.ErrNotWavFile) ...
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// Readers that cannot seek are buffered in memory first, since the RIFF
// parser needs to seek between chunks.
//
// # Encoding
//
// Encoder converts float32 frames back to integer PCM. The RIFF and data
// chunk sizes are patched when the encoder is closed, so the destination
// must be an io.WriteSeeker such as an *os.File:
//
//	out, _ := os.Create("marked.wav")
//	enc, _ := wav.NewEncoder(out, 44100, 2, 16)
//	_ = enc.WriteSamples(frames)
//	_ = enc.Close()
//	_ = out.Close()
package wav
