// SPDX-License-Identifier: EPL-2.0

package audwmark

import (
	"errors"
	"fmt"
	"os"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/formats"
)

// fileSource closes the file along with the decoded source.
type fileSource struct {
	audio.Source
	f *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.f.Close())
}

// Open decodes the file at path, picking the decoder from its extension
// in formats.DefaultRegistry.
func Open(path string) (audio.Source, error) {
	dec, err := formats.DefaultRegistry().ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}

	return &fileSource{Source: src, f: f}, nil
}

// conform resamples and remixes src when rate or channels are set.
func conform(src audio.Source, rate, channels int) audio.Source {
	if rate > 0 && rate != src.SampleRate() {
		src = audio.NewResampler(src, rate)
	}
	if channels > 0 && channels != src.Channels() {
		src = audio.NewChannelMixer(src, channels)
	}
	return src
}
