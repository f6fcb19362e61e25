// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample-level building blocks of the watermark
// pipeline.
//
// # Sources
//
// Source is a pull-based stream of interleaved float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Decoders in the formats packages produce Sources. Resampler and
// ChannelMixer wrap a Source to bring a decoded file to the rate and layout
// a watermark stream was configured for:
//
//	src = audio.NewResampler(src, 44100)
//	src = audio.NewChannelMixer(src, 1)
//
// # Frame reconciliation
//
// Audio callbacks deliver frames of whatever size the device picks while the
// watermark algorithm works on fixed blocks. FrameBuffer absorbs that
// mismatch:
//
//	fb.Push(frame)
//	for fb.Has(blockSize) {
//	    block := fb.Pop(blockSize)
//	    // process block
//	}
//
// Pop returns a view into the buffer that is valid until the next mutating
// call. Popping more than Has allows is a programming error and panics.
//
// # Limiting
//
// Limiter is a look-ahead peak limiter. It holds back LookAhead frames
// (5 ms) so it can ramp the gain down before a peak reaches the output, and
// recovers with a 50 ms half-life. Output never exceeds the ceiling.
//
// # Real-time use
//
// FrameBuffer and Limiter do not allocate once their buffers have grown to
// the working size, never block and never return errors. Neither is safe for
// concurrent use.
//
// # Registry
//
// Registry maps format names and file extensions to decoders:
//
//	dec, err := reg.ForPath("input.mp3")
//
// The formats package exposes a process-wide registry with every bundled
// decoder.
package audio
