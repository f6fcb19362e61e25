// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/audwmark"
	"github.com/ik5/audwmark/stream"
	"github.com/ik5/audwmark/watermark"
)

type fileResult struct {
	path string
	res  watermark.Detection
	err  error
}

func runDetect(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "detect", "[flags] FILE...")
	frame := fs.Int("frame", e.cfg.Audio.FrameSize, "frames per call into the stream detector")
	jobs := fs.Int("jobs", runtime.GOMAXPROCS(0), "files analysed concurrently")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	results := make([]fileResult, fs.NArg())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*jobs, 1))
	for i, path := range fs.Args() {
		g.Go(func() error {
			results[i] = detectFile(gctx, e, path, *frame)
			// only cancellation stops the other files
			if errors.Is(results[i].err, context.Canceled) {
				return results[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			fmt.Fprintf(e.stdout, "%s\terror\t%v\n", r.path, r.err)
		case r.res.Detected:
			fmt.Fprintf(e.stdout, "%s\t%q\t%.3f\n", r.path, r.res.Message, r.res.Confidence)
		default:
			fmt.Fprintf(e.stdout, "%s\tnone\t%.3f\n", r.path, r.res.Confidence)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func detectFile(ctx context.Context, e *env, path string, frame int) fileResult {
	src, err := audwmark.Open(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	defer src.Close()

	res, _, err := audwmark.Detect(ctx, src, audwmark.DetectOptions{FrameSize: frame},
		stream.WithParams(e.cfg.Params()),
		stream.WithLogger(e.log),
	)
	if err != nil {
		return fileResult{path: path, err: err}
	}

	e.log.Debug("analysed file", "path", path, "detected", res.Detected, "confidence", res.Confidence)
	return fileResult{path: path, res: res}
}
