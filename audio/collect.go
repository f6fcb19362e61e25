// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// ReadAll drains src into memory and returns the interleaved samples. It
// reads in chunks of bufSize samples (rounded down to whole frames). io.EOF
// is not reported as an error.
func ReadAll(src Source, bufSize int) ([]float32, error) {
	ch := src.Channels()
	bufSize -= bufSize % ch
	if bufSize <= 0 {
		bufSize = 4096 * ch
	}

	buf := make([]float32, bufSize)
	out := make([]float32, 0, src.SampleRate()*ch)

	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)

		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read all: %w", err)
		}
	}
}
