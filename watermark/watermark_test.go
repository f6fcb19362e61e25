// SPDX-License-Identifier: EPL-2.0

package watermark

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ik5/audwmark/payload"
)

func mustBits(t testing.TB, text string) payload.Bits {
	t.Helper()

	bits, err := payload.ParseBits(payload.TextToHex(text))
	if err != nil {
		t.Fatalf("ParseBits(%q): %v", text, err)
	}
	return bits
}

// embedSilence watermarks n blocks of silence and returns the limiter output
// preceded by delay frames of silence.
func embedSilence(t testing.TB, cfg Config, text string, n, delay int) []float32 {
	t.Helper()

	e, err := NewEmbedder(cfg, mustBits(t, text), DefaultParams(), nil)
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}

	out := make([]float32, delay*cfg.Channels, (n*DefaultBlockSize+delay)*cfg.Channels)
	block := make([]float32, e.BlockLen())
	for range n {
		out = e.Process(out, block)
	}
	return out
}

func feed(d *Detector, samples []float32) {
	bl := d.BlockLen()
	for off := 0; off+bl <= len(samples); off += bl {
		d.Process(samples[off : off+bl])
	}
}

func newTestDetector(t testing.TB, cfg Config) *Detector {
	t.Helper()

	d, err := NewDetector(cfg, DefaultParams(), nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return d
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		forEmbed bool
		wantErr  bool
	}{
		{"embed ok", Config{SampleRate: 44100, Channels: 2, Strength: 0.004}, true, false},
		{"detect ignores strength", Config{SampleRate: 44100, Channels: 1}, false, false},
		{"zero rate", Config{SampleRate: 0, Channels: 1, Strength: 0.1}, true, true},
		{"no channels", Config{SampleRate: 8000, Strength: 0.1}, true, true},
		{"strength too high", Config{SampleRate: 8000, Channels: 1, Strength: 1}, true, true},
		{"strength zero", Config{SampleRate: 8000, Channels: 1}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate(tt.forEmbed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}

	p := DefaultParams()
	p.WindowSize = 100 // shorter than a 16 byte cycle
	p.Threshold = 2
	err := p.Validate()
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("Validate() = %v, want ErrInvalidParams", err)
	}
}

func TestNewEmbedder_Errors(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.004}

	if _, err := NewEmbedder(cfg, mustBits(t, "0123456789abcdefX"), DefaultParams(), nil); !errors.Is(err, ErrPayloadTooLong) {
		t.Errorf("17 byte payload: err = %v, want ErrPayloadTooLong", err)
	}
	if _, err := NewEmbedder(cfg, nil, DefaultParams(), nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("empty payload: err = %v, want ErrEmptyPayload", err)
	}
	if _, err := NewEmbedder(Config{SampleRate: 44100, Channels: 1}, mustBits(t, "A"), DefaultParams(), nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero strength: err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewEmbedder(Config{SampleRate: 2000, Channels: 1, Strength: 0.1}, mustBits(t, "A"), DefaultParams(), nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("carrier above nyquist: err = %v, want ErrInvalidConfig", err)
	}
}

func TestEmbedder_BitSchedule(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.004}
	e, err := NewEmbedder(cfg, mustBits(t, "\x0f"), DefaultParams(), nil)
	if err != nil {
		t.Fatal(err)
	}

	framed := e.Framed()
	want := []uint8{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 1, 1, 1, 1}
	if !slices.Equal(framed, want) {
		t.Fatalf("framed = %v, want %v", framed, want)
	}

	block := make([]float32, e.BlockLen())
	for k := range 40 {
		want := framed[(k/DefaultFramesPerBit)%len(framed)]
		if got := e.CurrentBit(); got != want {
			t.Fatalf("block %d: bit %d, want %d", k, got, want)
		}
		e.Process(nil, block)
	}

	e.Reset()
	if e.Blocks() != 0 || e.CurrentBit() != framed[0] {
		t.Errorf("Reset did not restart the schedule")
	}
}

func TestEmbedder_LatencyAndLength(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 2, Strength: 0.004}
	e, err := NewEmbedder(cfg, mustBits(t, "Hi"), DefaultParams(), nil)
	if err != nil {
		t.Fatal(err)
	}

	block := make([]float32, e.BlockLen())
	out := e.Process(nil, block)
	if want := (DefaultBlockSize - e.Latency()) * 2; len(out) != want {
		t.Fatalf("first block emitted %d samples, want %d", len(out), want)
	}

	out = e.Process(out[:0], block)
	if len(out) != e.BlockLen() {
		t.Errorf("steady state emitted %d samples, want %d", len(out), e.BlockLen())
	}

	// Both channels carry the same carrier value.
	for f := 0; f < len(out)/2; f++ {
		if out[2*f] != out[2*f+1] {
			t.Fatalf("frame %d: channels differ", f)
		}
	}
}

func TestEmbedder_WrongLengthPassesThrough(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.004}
	e, err := NewEmbedder(cfg, mustBits(t, "Hi"), DefaultParams(), nil)
	if err != nil {
		t.Fatal(err)
	}

	in := []float32{0.1, 0.2, 0.3}
	out := e.Process(nil, in)
	if len(out) != 3 || out[0] != 0.1 || out[2] != 0.3 {
		t.Errorf("Process(short) = %v, want input unchanged", out)
	}
	if e.Blocks() != 0 {
		t.Errorf("Blocks() = %d after rejected block", e.Blocks())
	}
}

func TestEmbedder_PhaseContinuity(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.5}
	e, err := NewEmbedder(cfg, mustBits(t, "U"), DefaultParams(), nil) // 0x55 alternates bits
	if err != nil {
		t.Fatal(err)
	}

	var out []float32
	block := make([]float32, e.BlockLen())
	for range 40 {
		out = e.Process(out, block)
	}

	// A sine at 1500 Hz moves at most 0.5*2*pi*1500/44100 per sample. A
	// phase jump at a block edge would exceed that.
	limit := 0.5*2*math.Pi*DefaultFreq1/44100 + 1e-4
	for i := 1; i < len(out); i++ {
		if d := math.Abs(float64(out[i] - out[i-1])); d > limit {
			t.Fatalf("step %v at sample %d exceeds %v", d, i, limit)
		}
	}
}

func TestDetector_AbsentUntilHalfWindow(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1}
	d := newTestDetector(t, cfg)
	block := make([]float32, d.BlockLen())

	for k := range DefaultWindowSize / 2 {
		if _, ok := d.Result(); ok {
			t.Fatalf("result present after %d blocks", k)
		}
		d.Process(block)
	}

	det, ok := d.Result()
	if !ok {
		t.Fatal("result absent after half a window")
	}
	if det.Detected || det.Confidence != 0 {
		t.Errorf("silence: %+v, want zero confidence", det)
	}
}

func TestDetector_WrongLengthIgnored(t *testing.T) {
	t.Parallel()

	d := newTestDetector(t, Config{SampleRate: 44100, Channels: 1})
	if d.Process(make([]float32, 100)) {
		t.Error("Process accepted a short block")
	}
	if d.Blocks() != 0 {
		t.Errorf("Blocks() = %d", d.Blocks())
	}
}

func TestDetector_DecodesHello(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.004}
	samples := embedSilence(t, cfg, "Hello", 1000, 0)

	d := newTestDetector(t, cfg)
	feed(d, samples)

	if d.Blocks() < DefaultWindowSize {
		t.Fatalf("only %d blocks analyzed", d.Blocks())
	}

	det, ok := d.Result()
	if !ok {
		t.Fatal("no result")
	}
	if !det.Detected || det.Confidence < DefaultThreshold {
		t.Fatalf("not detected: %+v", det)
	}
	if det.Message != "Hello" || det.Hex != "48656c6c6f" {
		t.Errorf("decoded %q (%s), want Hello", det.Message, det.Hex)
	}
	if det.Confidence > 1 {
		t.Errorf("confidence %v > 1", det.Confidence)
	}
}

func TestDetector_DistinctPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		channels int
		delay    int
	}{
		{"Go!", 1, 1245},
		{"Hi", 2, 300},
		{"watermark-2026", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			cfg := Config{SampleRate: 44100, Channels: tt.channels, Strength: 0.004}
			d := newTestDetector(t, cfg)
			feed(d, embedSilence(t, cfg, tt.text, 800, tt.delay))

			det, ok := d.Result()
			if !ok || !det.Detected {
				t.Fatalf("not detected: %+v ok=%v", det, ok)
			}
			if det.Message != tt.text {
				t.Errorf("decoded %q, want %q", det.Message, tt.text)
			}
		})
	}
}

// printable returns n random printable ASCII bytes.
func printable(rng *rand.Rand, n int) string {
	var sb strings.Builder
	for range n {
		sb.WriteByte(byte(0x20 + rng.IntN(0x7f-0x20)))
	}
	return sb.String()
}

func TestFrame_StartPatternIsUnique(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 4))
	texts := []string{"\x00", "\xff", "\xff\xff\xff", "\xb4", "\x41\xb4\x41", "2d2d2d2d"}
	for range 200 {
		texts = append(texts, printable(rng, 1+rng.IntN(DefaultMaxMessageBytes)))
	}

	for _, text := range texts {
		framed := Frame(mustBits(t, text))
		if len(framed) != FramedBits(len(text)) {
			t.Fatalf("%q: framed len %d, want %d", text, len(framed), FramedBits(len(text)))
		}

		// only the unrotated cycle has all framing bits in place
		for rot := range framed {
			rotated := append(slices.Clone(framed[rot:]), framed[:rot]...)
			bits, ok := unframe(rotated)
			if ok != (rot == 0) {
				t.Fatalf("%q: rotation %d unframes = %v", text, rot, ok)
			}
			if ok {
				if h, _ := bits.Hex(); h != payload.TextToHex(text) {
					t.Fatalf("%q: unframed %s", text, h)
				}
			}
		}
	}
}

func TestUnframe_RejectsDamagedFraming(t *testing.T) {
	t.Parallel()

	framed := Frame(mustBits(t, "Hi"))
	for b := range framed {
		if _, fixed := fixedBit(b); !fixed {
			continue
		}
		damaged := slices.Clone(framed)
		damaged[b] ^= 1
		if _, ok := unframe(damaged); ok {
			t.Errorf("flipped framing bit %d accepted", b)
		}
	}

	if _, ok := unframe(framed[:len(framed)-1]); ok {
		t.Error("truncated cycle accepted")
	}
}

func TestDetector_PayloadsResemblingFraming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		channels int
	}{
		{"6yi", 1},
		{":ZQ", 1},
		{"$#Zg", 1},
		{"2d2d2d2d", 2},
		{"\x41\xb4\x41", 1},
		{"\xb4\xb4", 2},
		{"\xff\xff", 1},
		{"\x00", 1},
	}

	for _, tt := range tests {
		t.Run(payload.TextToHex(tt.text), func(t *testing.T) {
			t.Parallel()

			cfg := Config{SampleRate: 44100, Channels: tt.channels, Strength: 0.004}
			d := newTestDetector(t, cfg)
			feed(d, embedSilence(t, cfg, tt.text, 800, 517))

			det, ok := d.Result()
			if !ok || !det.Detected {
				t.Fatalf("not detected: %+v ok=%v", det, ok)
			}
			if det.Hex != payload.TextToHex(tt.text) {
				t.Errorf("decoded %s, want %s", det.Hex, payload.TextToHex(tt.text))
			}
		})
	}
}

func TestDetector_RandomPayloadsRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(2026, 10))
	for i := range 40 {
		text := printable(rng, 1+rng.IntN(8))
		channels := 1 + rng.IntN(2)
		delay := rng.IntN(DefaultBlockSize)

		t.Run(strconv.Itoa(i), func(t *testing.T) {
			t.Parallel()

			cfg := Config{SampleRate: 44100, Channels: channels, Strength: 0.004}
			d := newTestDetector(t, cfg)
			feed(d, embedSilence(t, cfg, text, 700, delay))

			det, ok := d.Result()
			if !ok || !det.Detected {
				t.Fatalf("%q (%d ch): not detected: %+v", text, channels, det)
			}
			if det.Message != text {
				t.Errorf("%q (%d ch, delay %d): decoded %q", text, channels, delay, det.Message)
			}
		})
	}
}

func TestDetector_NoiseIsNotDetected(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1}
	d := newTestDetector(t, cfg)

	rng := rand.New(rand.NewPCG(11, 12))
	block := make([]float32, d.BlockLen())
	for range 600 {
		for i := range block {
			block[i] = 0.2 * (rng.Float32()*2 - 1)
		}
		d.Process(block)
	}

	det, ok := d.Result()
	if !ok {
		t.Fatal("no result")
	}
	if det.Detected || det.Message != "" {
		t.Errorf("noise detected as %+v", det)
	}
	if det.Confidence < 0 || det.Confidence >= DefaultThreshold {
		t.Errorf("confidence %v, want in [0, threshold)", det.Confidence)
	}
}

func TestDetector_Reset(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.004}
	samples := embedSilence(t, cfg, "Hello", 700, 0)

	d := newTestDetector(t, cfg)
	feed(d, samples)
	if _, ok := d.Result(); !ok {
		t.Fatal("no result before Reset")
	}

	d.Reset()
	bl := d.BlockLen()
	for k := range DefaultWindowSize / 2 {
		if _, ok := d.Result(); ok {
			t.Fatalf("result present %d blocks after Reset", k)
		}
		d.Process(samples[k*bl : (k+1)*bl])
	}
	if _, ok := d.Result(); !ok {
		t.Error("result still absent after half a window")
	}
}

func TestDetector_ConcurrentResult(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.004}
	samples := embedSilence(t, cfg, "Hi", 700, 0)
	d := newTestDetector(t, cfg)

	var wg sync.WaitGroup
	done := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if det, ok := d.Result(); ok && (det.Confidence < 0 || det.Confidence > 1) {
					t.Errorf("confidence out of range: %v", det.Confidence)
					return
				}
			}
		}()
	}

	feed(d, samples)
	close(done)
	wg.Wait()

	if det, ok := d.Result(); !ok || det.Message != "Hi" {
		t.Errorf("final result %+v ok=%v", det, ok)
	}
}

func TestDetector_ProcessNoAllocs(t *testing.T) {
	d := newTestDetector(t, Config{SampleRate: 44100, Channels: 2})
	block := make([]float32, d.BlockLen())

	allocs := testing.AllocsPerRun(100, func() {
		d.Process(block)
	})
	if allocs != 0 {
		t.Errorf("allocs per block = %v, want 0", allocs)
	}
}

func TestGoertzel_Amplitude(t *testing.T) {
	t.Parallel()

	const rate, n = 44100, 1024
	win := newHann(n)
	block := make([]float32, n)
	for i := range block {
		block[i] = float32(0.25 * math.Sin(2*math.Pi*1000*float64(i)/rate+0.7))
	}

	on := newGoertzel(1000, rate).amplitude(block, 1, 0, win)
	off := newGoertzel(1500, rate).amplitude(block, 1, 0, win)

	if math.Abs(on-0.25) > 0.005 {
		t.Errorf("on-tone amplitude = %v, want ~0.25", on)
	}
	if off > 0.001 {
		t.Errorf("off-tone amplitude = %v, want ~0", off)
	}
}

func BenchmarkEmbedder_Process(b *testing.B) {
	cfg := Config{SampleRate: 44100, Channels: 2, Strength: 0.004}
	e, err := NewEmbedder(cfg, mustBits(b, "Hello"), DefaultParams(), nil)
	if err != nil {
		b.Fatal(err)
	}
	block := make([]float32, e.BlockLen())
	out := make([]float32, 0, 2*e.BlockLen())
	b.ReportAllocs()

	for b.Loop() {
		out = e.Process(out[:0], block)
	}
}

func BenchmarkDetector_Result(b *testing.B) {
	cfg := Config{SampleRate: 44100, Channels: 1, Strength: 0.004}
	d := newTestDetector(b, cfg)
	feed(d, embedSilence(b, cfg, "Hello", 600, 0))
	b.ReportAllocs()

	for b.Loop() {
		d.Result()
	}
}
