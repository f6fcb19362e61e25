// SPDX-License-Identifier: EPL-2.0

package watermark

import "math"

// goertzel measures the amplitude of one frequency over a block. The target
// frequency does not have to fall on a DFT bin.
type goertzel struct {
	coeff float64
}

func newGoertzel(freq float64, sampleRate int) goertzel {
	w := 2 * math.Pi * freq / float64(sampleRate)
	return goertzel{coeff: 2 * math.Cos(w)}
}

// amplitude returns the estimated peak amplitude of the tone on channel ch of
// an interleaved block. win weights each frame and must have one entry per
// frame; a full-scale sine reads close to 1.
func (g goertzel) amplitude(block []float32, channels, ch int, win hann) float64 {
	var s1, s2 float64
	f := 0
	for i := ch; i < len(block); i += channels {
		s0 := float64(block[i])*win.w[f] + g.coeff*s1 - s2
		s2, s1 = s1, s0
		f++
	}

	power := s1*s1 + s2*s2 - g.coeff*s1*s2
	if power <= 0 || win.sum == 0 {
		return 0
	}

	return 2 * math.Sqrt(power) / win.sum
}

// mean returns the amplitude averaged over all channels.
func (g goertzel) mean(block []float32, channels int, win hann) float64 {
	sum := 0.0
	for ch := range channels {
		sum += g.amplitude(block, channels, ch, win)
	}

	return sum / float64(channels)
}

// hann is a periodic Hann window and its coherent sum.
type hann struct {
	w   []float64
	sum float64
}

func newHann(n int) hann {
	h := hann{w: make([]float64, n)}
	for i := range h.w {
		h.w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
		h.sum += h.w[i]
	}

	return h
}
