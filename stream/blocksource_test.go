// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audwmark/internal/audiotest"
)

func TestSourceBlocks_PadsLastFrame(t *testing.T) {
	t.Parallel()

	src := audiotest.Constant(8000, 2, 250, 0.5)
	src.Chunk = 37
	bs, err := NewSourceBlocks(src, 100)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]float32, 200)
	var sizes []int
	for {
		n, err := bs.ReadFrame(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		sizes = append(sizes, n)
	}

	if len(sizes) != 3 || sizes[0] != 200 || sizes[1] != 200 || sizes[2] != 100 {
		t.Fatalf("frame sizes = %v, want [200 200 100]", sizes)
	}
	if buf[99] != 0.5 || buf[100] != 0 || buf[199] != 0 {
		t.Errorf("tail not zero padded: %v %v %v", buf[99], buf[100], buf[199])
	}
}

func TestSourceBlocks_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewSourceBlocks(audiotest.Silence(8000, 1, 1), 0); !errors.Is(err, ErrInvalidFrameSize) {
		t.Errorf("frame size 0: %v", err)
	}

	bs, _ := NewSourceBlocks(&audiotest.ErrorSource{Rate: 8000, Chans: 1, After: 50}, 100)
	if _, err := bs.ReadFrame(make([]float32, 100)); !errors.Is(err, audiotest.ErrInjected) {
		t.Errorf("ReadFrame error = %v, want ErrInjected", err)
	}
}

func f32le(samples ...float32) []byte {
	var buf bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(s))
	}
	return buf.Bytes()
}

func TestReaderBlocks_Decode(t *testing.T) {
	t.Parallel()

	raw := f32le(0.25, -0.5, 1, 0.125, 0.75)
	bs, err := NewReaderBlocks(bytes.NewReader(raw), 8000, 1, 3)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]float32, 3)
	n, err := bs.ReadFrame(buf)
	if err != nil || n != 3 || buf[0] != 0.25 || buf[1] != -0.5 || buf[2] != 1 {
		t.Fatalf("first frame = %v (n=%d, err=%v)", buf, n, err)
	}

	n, err = bs.ReadFrame(buf)
	if err != nil || n != 2 || buf[0] != 0.125 || buf[1] != 0.75 || buf[2] != 0 {
		t.Fatalf("tail frame = %v (n=%d, err=%v)", buf, n, err)
	}

	if n, err = bs.ReadFrame(buf); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("after end: n=%d err=%v", n, err)
	}
}

func TestReaderBlocks_InvalidLayout(t *testing.T) {
	t.Parallel()

	if _, err := NewReaderBlocks(bytes.NewReader(nil), 8000, 0, 10); err == nil {
		t.Error("zero channels accepted")
	}
	if _, err := NewReaderBlocks(bytes.NewReader(nil), 8000, 1, -1); !errors.Is(err, ErrInvalidFrameSize) {
		t.Errorf("negative frame size: %v", err)
	}
}

func TestPump(t *testing.T) {
	t.Parallel()

	bs, _ := NewSourceBlocks(audiotest.Silence(8000, 2, 1000), 128)

	frames := 0
	err := Pump(context.Background(), bs, func(frame []float32) error {
		if len(frame) != 256 {
			t.Fatalf("frame len %d, want 256", len(frame))
		}
		frames++
		return nil
	})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if frames != 8 {
		t.Errorf("frames = %d, want 8", frames)
	}
}

func TestPump_StopsOnCancelAndCallbackError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	bs, _ := NewSourceBlocks(audiotest.Silence(8000, 1, 1<<20), 64)

	calls := 0
	err := Pump(ctx, bs, func([]float32) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 3 {
		t.Errorf("Pump = %v after %d calls, want Canceled after 3", err, calls)
	}

	boom := errors.New("boom")
	bs, _ = NewSourceBlocks(audiotest.Silence(8000, 1, 1000), 64)
	if err := Pump(context.Background(), bs, func([]float32) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Pump = %v, want callback error", err)
	}
}

func TestPump_DrivesEmbedderIntoDetector(t *testing.T) {
	t.Parallel()

	e := newEmbedder(t, 1, helloHex)
	d := newDetector(t, 1)

	src := audiotest.Silence(44100, 1, 700*1024)
	bs, err := NewSourceBlocks(src, RecommendedFrameSize)
	if err != nil {
		t.Fatal(err)
	}

	err = Pump(context.Background(), bs, func(frame []float32) error {
		d.ProcessFrame(e.ProcessFrame(frame, RecommendedFrameSize), RecommendedFrameSize)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if res, ok := d.Result(); !ok || res.Message != "Hello" {
		t.Errorf("Result = %+v ok=%v", res, ok)
	}
}
