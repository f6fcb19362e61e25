// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Resampler converts a Source to another sample rate with Catmull-Rom cubic
// interpolation. Channel count is preserved. When downsampling a one-pole
// low-pass filter runs on the input to reduce aliasing.
//
// A watermark stream runs at one fixed rate, so hosts use this to bring a
// decoded file to the configured rate before feeding frames.
type Resampler struct {
	src      Source
	rate     int
	step     float64 // source frames per output frame
	channels int

	in    *FrameBuffer
	chunk []float32
	eof   bool

	// win holds frames t-1, t, t+1, t+2 around the interpolation point.
	win    [4][]float32
	valid  [4]bool
	frac   float64
	primed bool

	lowPass bool
	lpState []float32
}

const lowPassAlpha = 0.5

func NewResampler(src Source, dstRate int) *Resampler {
	ch := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		rate:     dstRate,
		step:     step,
		channels: ch,
		in:       NewFrameBuffer(ch, 1024),
		chunk:    make([]float32, 1024*ch),
		lowPass:  step > 1,
		lpState:  make([]float32, ch),
	}
	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler close: %w", err)
	}

	return nil
}

// load copies the next source frame into dst. It reports false once the
// source is exhausted.
func (r *Resampler) load(dst []float32) (bool, error) {
	for !r.in.Has(1) {
		if r.eof {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.chunk)
		r.in.Push(r.chunk[:n-n%r.channels])

		switch {
		case err == io.EOF:
			r.eof = true
		case err != nil:
			return false, fmt.Errorf("resampler read: %w", err)
		case n == 0:
			return false, io.ErrNoProgress
		}
	}

	r.in.PopInto(dst)

	if r.lowPass {
		if !r.primed {
			copy(r.lpState, dst)
		}
		for c, v := range dst {
			r.lpState[c] = lowPassAlpha*v + (1-lowPassAlpha)*r.lpState[c]
			dst[c] = r.lpState[c]
		}
	}

	return true, nil
}

func (r *Resampler) prime() (bool, error) {
	ok, err := r.load(r.win[1])
	if err != nil || !ok {
		return false, err
	}
	r.primed = true
	copy(r.win[0], r.win[1])
	r.valid[0], r.valid[1] = true, true

	for i := 2; i < 4; i++ {
		ok, err = r.load(r.win[i])
		if err != nil {
			return false, err
		}
		if !ok {
			copy(r.win[i], r.win[i-1])
		}
		r.valid[i] = ok
	}

	return true, nil
}

// advance moves the window one source frame forward and reports whether
// frame t+1 is still real data.
func (r *Resampler) advance() (bool, error) {
	r.win[0], r.win[1], r.win[2], r.win[3] = r.win[1], r.win[2], r.win[3], r.win[0]
	r.valid[0], r.valid[1], r.valid[2] = r.valid[1], r.valid[2], r.valid[3]

	if !r.valid[2] {
		return false, nil
	}

	ok, err := r.load(r.win[3])
	if err != nil {
		return false, err
	}
	if !ok {
		copy(r.win[3], r.win[2])
	}
	r.valid[3] = ok

	return true, nil
}

// ReadSamples fills dst with interleaved samples at the target rate. len(dst)
// must be a multiple of Channels().
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		ok, err := r.prime()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
	}

	ch := r.channels
	frames := len(dst) / ch
	written := 0

	for written < frames {
		for r.frac >= 1 {
			r.frac--

			ok, err := r.advance()
			if err != nil {
				return written * ch, err
			}
			if !ok {
				return written * ch, io.EOF
			}
		}

		if !r.valid[2] {
			return written * ch, io.EOF
		}

		x := float32(r.frac)
		out := dst[written*ch : (written+1)*ch]
		for c := range ch {
			out[c] = cubic(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}

		written++
		r.frac += r.step
	}

	return written * ch, nil
}

// cubic evaluates the Catmull-Rom spline through y1 and y2 at x in [0,1).
func cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2

	return ((a0*x+a1)*x+a2)*x + y1
}
