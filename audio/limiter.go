// SPDX-License-Identifier: EPL-2.0

package audio

import "math"

// DefaultCeiling is the peak level used when a Limiter is built with a
// non-positive ceiling.
const DefaultCeiling = 0.95

const (
	lookAheadSeconds = 0.005
	releaseHalfLife  = 0.05
)

// Limiter is a look-ahead peak limiter on interleaved samples.
//
// It delays the signal by LookAhead frames so that gain reduction can ramp in
// before a peak arrives. Gain is computed per frame from the loudest channel
// and applied to all channels of that frame. After a peak the gain recovers
// towards unity with a 50 ms half-life.
//
// Limiter is not safe for concurrent use.
type Limiter struct {
	channels  int
	lookAhead int
	ceiling   float32
	decay     float64
	smoothed  float64

	hist []float32 // pending samples, interleaved
	gain []float32 // required gain per pending frame, >= 1
}

// NewLimiter returns a limiter for the given stream layout. A ceiling <= 0
// selects DefaultCeiling.
func NewLimiter(sampleRate, channels int, ceiling float32) *Limiter {
	if channels < 1 {
		channels = 1
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}

	la := max(int(math.Ceil(float64(sampleRate)*lookAheadSeconds)), 1)

	return &Limiter{
		channels:  channels,
		lookAhead: la,
		ceiling:   ceiling,
		decay:     math.Exp(-math.Ln2 / (float64(sampleRate) * releaseHalfLife)),
		smoothed:  1,
		hist:      make([]float32, 0, 2*la*channels),
		gain:      make([]float32, 0, 2*la),
	}
}

// LookAhead returns the latency of the limiter in frames.
func (l *Limiter) LookAhead() int { return l.lookAhead }

// Ceiling returns the peak level the output never exceeds.
func (l *Limiter) Ceiling() float32 { return l.ceiling }

// Pending returns the number of frames held back for look-ahead.
func (l *Limiter) Pending() int { return len(l.gain) }

// Reset drops pending samples and restores unity gain.
func (l *Limiter) Reset() {
	l.hist = l.hist[:0]
	l.gain = l.gain[:0]
	l.smoothed = 1
}

// Process feeds src through the limiter and appends every frame that is now
// ready to dst. Trailing samples that do not form a whole frame are ignored.
//
// Across calls the number of emitted frames equals the number of consumed
// frames minus LookAhead.
func (l *Limiter) Process(dst, src []float32) []float32 {
	ch := l.channels
	frames := len(src) / ch
	if frames == 0 {
		return dst
	}

	base := len(l.gain)
	l.hist = append(l.hist, src[:frames*ch]...)
	for range frames {
		l.gain = append(l.gain, 1)
	}

	la := l.lookAhead
	invLA := 1 / float32(la)

	for i := base; i < len(l.gain); i++ {
		peak := float32(0)
		for _, s := range l.hist[i*ch : (i+1)*ch] {
			peak = max(peak, abs32(s))
		}
		if peak <= l.ceiling {
			continue
		}

		need := peak / l.ceiling
		for j := 0; j < la && i-j >= 0; j++ {
			t := float32(j) * invLA
			v := need*(1-t) + t
			if v > l.gain[i-j] {
				l.gain[i-j] = v
			}
		}
	}

	ready := len(l.gain) - la
	if ready <= 0 {
		return dst
	}

	keep := 1 - l.decay
	for f := range ready {
		g := float64(l.gain[f])
		l.smoothed = l.smoothed*l.decay + g*keep
		if l.smoothed < g {
			l.smoothed = g
		}

		inv := float32(1 / l.smoothed)
		for _, s := range l.hist[f*ch : (f+1)*ch] {
			dst = append(dst, s*inv)
		}
	}

	n := copy(l.gain, l.gain[ready:])
	l.gain = l.gain[:n]
	n = copy(l.hist, l.hist[ready*ch:])
	l.hist = l.hist[:n]

	return dst
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}

	return v
}
