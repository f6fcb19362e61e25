// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audwmark/internal/observe"
	"github.com/ik5/audwmark/stream"
	"github.com/ik5/audwmark/watermark"
)

func runListen(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "listen", "[flags] < pcm.f32le")
	rate := fs.Int("rate", e.cfg.Audio.SampleRate, "sample rate of the input")
	channels := fs.Int("channels", e.cfg.Audio.Channels, "interleaved channels of the input")
	frame := fs.Int("frame", e.cfg.Audio.FrameSize, "frames per read")
	interval := fs.Duration("interval", e.cfg.Detect.PollInterval, "how often the result is polled")
	metricsAddr := fs.String("metrics", e.cfg.Metrics.ListenAddr, "serve Prometheus metrics on this address")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", *interval)
	}

	blocks, err := stream.NewReaderBlocks(e.stdin, *rate, *channels, *frame)
	if err != nil {
		return err
	}

	// the provider must be global before the detector picks up its meter
	var srv *http.Server
	if *metricsAddr != "" {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				e.log.Warn("metrics shutdown", "err", err)
			}
		}()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	det, err := stream.NewDetector(e.cfg.Watermark(*rate, *channels),
		stream.WithParams(e.cfg.Params()),
		stream.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	defer det.Close()

	e.log.Info("listening",
		"sample_rate", *rate,
		"channels", *channels,
		"frame", *frame,
		"interval", *interval,
		"metrics", *metricsAddr,
	)

	// input ends when stdin is exhausted as well as on a signal
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := stream.Pump(gctx, blocks, func(f []float32) error {
			det.ProcessFrame(f, *frame)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		w := &watcher{log: e.log, out: e.stdout}
		t := time.NewTicker(*interval)
		defer t.Stop()

		for {
			select {
			case <-gctx.Done():
				w.observe(det.Result())
				return nil
			case <-t.C:
				w.observe(det.Result())
			}
		}
	})

	if srv != nil {
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	return g.Wait()
}

// watcher reports changes of the detection result.
type watcher struct {
	log  *slog.Logger
	out  io.Writer
	last watermark.Detection
}

// observe prints a line when a watermark appears, changes or disappears.
// It returns whether anything was reported.
func (w *watcher) observe(res watermark.Detection, ok bool) bool {
	if !ok {
		return false
	}

	switch {
	case res.Detected && (!w.last.Detected || res.Message != w.last.Message):
		w.log.Info("watermark detected", "message", res.Message, "hex", res.Hex, "confidence", res.Confidence)
		fmt.Fprintf(w.out, "detected\t%q\t%.3f\n", res.Message, res.Confidence)
	case !res.Detected && w.last.Detected:
		w.log.Info("watermark lost", "confidence", res.Confidence)
		fmt.Fprintf(w.out, "lost\t%q\t%.3f\n", w.last.Message, res.Confidence)
	default:
		w.last = res
		return false
	}

	w.last = res

	return true
}
