// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestLimiter_LookAheadAndDecay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate int
		want int
	}{
		{44100, 221},
		{48000, 240},
		{8000, 40},
		{16000, 80},
	}

	for _, tt := range tests {
		l := NewLimiter(tt.rate, 1, 0)
		if l.LookAhead() != tt.want {
			t.Errorf("LookAhead(%d) = %d, want %d", tt.rate, l.LookAhead(), tt.want)
		}

		// Half-life of 50 ms.
		half := math.Pow(l.decay, float64(tt.rate)*0.05)
		if math.Abs(half-0.5) > 1e-9 {
			t.Errorf("decay^(0.05*%d) = %v, want 0.5", tt.rate, half)
		}
	}

	if c := NewLimiter(44100, 1, 0).Ceiling(); c != DefaultCeiling {
		t.Errorf("default ceiling = %v", c)
	}
}

func TestLimiter_Latency(t *testing.T) {
	t.Parallel()

	l := NewLimiter(8000, 1, 0.95)
	la := l.LookAhead()

	out := l.Process(nil, make([]float32, la))
	if len(out) != 0 {
		t.Fatalf("first %d samples produced %d outputs", la, len(out))
	}

	rng := rand.New(rand.NewPCG(3, 4))
	in, emitted := la, 0
	for range 50 {
		n := rng.IntN(700)
		out = l.Process(out[:0], make([]float32, n))
		in += n
		emitted += len(out)
	}

	if emitted != in-la {
		t.Errorf("emitted %d, want %d", emitted, in-la)
	}
	if l.Pending() != la {
		t.Errorf("Pending() = %d, want %d", l.Pending(), la)
	}
}

func TestLimiter_PassesQuietSignalUnchanged(t *testing.T) {
	t.Parallel()

	l := NewLimiter(8000, 1, 0.95)
	in := make([]float32, 2000)
	for i := range in {
		in[i] = 0.5 * float32(math.Sin(float64(i)*0.1))
	}

	out := l.Process(nil, in)
	for i, v := range out {
		if v != in[i] {
			t.Fatalf("out[%d] = %v, want %v", i, v, in[i])
		}
	}
}

func TestLimiter_Ceiling(t *testing.T) {
	t.Parallel()

	const eps = 1e-5

	tests := []struct {
		name     string
		channels int
		ceiling  float32
		gen      func(rng *rand.Rand, i int) float32
	}{
		{"random loud", 1, 0.95, func(rng *rand.Rand, _ int) float32 {
			return (rng.Float32()*2 - 1) * 4
		}},
		{"isolated spikes", 1, 0.95, func(_ *rand.Rand, i int) float32 {
			if i%997 == 0 {
				return 10
			}
			return 0.1
		}},
		{"stereo one loud side", 2, 0.8, func(rng *rand.Rand, i int) float32 {
			if i%2 == 1 {
				return 3 * float32(math.Sin(float64(i)*0.01))
			}
			return 0.2
		}},
		{"full scale square", 1, 0.5, func(_ *rand.Rand, i int) float32 {
			if (i/50)%2 == 0 {
				return 1
			}
			return -1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(7, 8))
			l := NewLimiter(44100, tt.channels, tt.ceiling)

			var out []float32
			idx := 0
			for range 40 {
				chunk := make([]float32, (1+rng.IntN(900))*tt.channels)
				for i := range chunk {
					chunk[i] = tt.gen(rng, idx)
					idx++
				}
				out = l.Process(out, chunk)
			}

			for i, v := range out {
				if abs32(v) > tt.ceiling+eps {
					t.Fatalf("out[%d] = %v exceeds ceiling %v", i, v, tt.ceiling)
				}
			}
		})
	}
}

func TestLimiter_LinkedChannels(t *testing.T) {
	t.Parallel()

	l := NewLimiter(8000, 2, 0.95)
	in := make([]float32, 2*1000)
	for f := range 1000 {
		in[2*f] = 0.5
		in[2*f+1] = 0.5
	}
	in[2*500+1] = 1.9 // right channel peak

	out := l.Process(nil, in)

	// Left and right share the gain, so the ratio is preserved at the peak.
	left, right := out[2*500], out[2*500+1]
	if math.Abs(float64(right/left)-3.8) > 1e-4 {
		t.Errorf("right/left = %v, want 3.8", right/left)
	}
	if right > 0.95+1e-5 {
		t.Errorf("right = %v exceeds ceiling", right)
	}
}

func TestLimiter_RampsBeforePeak(t *testing.T) {
	t.Parallel()

	l := NewLimiter(8000, 1, 0.95)
	la := l.LookAhead()
	in := make([]float32, 1000)
	for i := range in {
		in[i] = 0.5
	}
	in[600] = 1.9

	out := l.Process(nil, in)

	// Gain reduction starts look-ahead frames before the peak and deepens.
	if out[600-la-1] != 0.5 {
		t.Errorf("sample before ramp attenuated: %v", out[600-la-1])
	}
	if !(out[600-la/2] < 0.5 && out[600-1] < out[600-la/2]) {
		t.Errorf("no monotonic ramp: %v then %v", out[600-la/2], out[599])
	}
}

func TestLimiter_Reset(t *testing.T) {
	t.Parallel()

	l := NewLimiter(8000, 1, 0.95)
	l.Process(nil, make([]float32, 100))
	l.Reset()

	if l.Pending() != 0 {
		t.Fatalf("Pending() after Reset = %d", l.Pending())
	}
	if out := l.Process(nil, make([]float32, l.LookAhead())); len(out) != 0 {
		t.Errorf("emitted %d samples right after Reset", len(out))
	}
}

func TestLimiter_SteadyStateNoAllocs(t *testing.T) {
	l := NewLimiter(44100, 1, 0.95)
	in := make([]float32, 1024)
	out := make([]float32, 0, 2048)
	l.Process(out, in)

	allocs := testing.AllocsPerRun(50, func() {
		out = l.Process(out[:0], in)
	})
	if allocs != 0 {
		t.Errorf("allocs per run = %v, want 0", allocs)
	}
}

func BenchmarkLimiter_Process(b *testing.B) {
	l := NewLimiter(44100, 2, 0.95)
	in := make([]float32, 1024*2)
	for i := range in {
		in[i] = 1.2 * float32(math.Sin(float64(i)*0.05))
	}
	out := make([]float32, 0, 4096)
	b.ReportAllocs()

	for b.Loop() {
		out = l.Process(out[:0], in)
	}
}
