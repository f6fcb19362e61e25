// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMixer adapts a Source to a different channel count.
//
// Down-mixing to mono averages all input channels. Up-mixing from mono copies
// the sample to every output channel. Any other conversion first averages to
// mono and then duplicates. Equal counts pass through untouched.
type ChannelMixer struct {
	src Source
	out int
	tmp []float32
}

// NewChannelMixer wraps src so it yields channels interleaved channels.
func NewChannelMixer(src Source, channels int) *ChannelMixer {
	return &ChannelMixer{
		src: src,
		out: max(channels, 1),
		tmp: make([]float32, 4096),
	}
}

// NewMonoMixer is NewChannelMixer(src, 1).
func NewMonoMixer(src Source) *ChannelMixer { return NewChannelMixer(src, 1) }

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.out }
func (m *ChannelMixer) BufSize() int    { return m.src.BufSize() }

func (m *ChannelMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("mixer close: %w", err)
	}

	return nil
}

// ReadSamples fills dst with whole frames of Channels() samples each.
func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	in := m.src.Channels()
	if in == m.out {
		return m.src.ReadSamples(dst)
	}
	if len(dst)%m.out != 0 {
		return 0, ErrInvalidDstSize
	}

	frames := len(dst) / m.out
	if frames == 0 {
		return 0, nil
	}

	need := frames * in
	if cap(m.tmp) < need {
		m.tmp = make([]float32, max(need, 8192))
	}
	buf := m.tmp[:need]

	n, err := m.src.ReadSamples(buf)
	got := n / in
	if got == 0 {
		return 0, err
	}

	inv := 1 / float32(in)
	for f := range got {
		var v float32
		switch in {
		case 1:
			v = buf[f]
		case 2:
			v = (buf[2*f] + buf[2*f+1]) * 0.5
		default:
			for _, s := range buf[f*in : (f+1)*in] {
				v += s
			}
			v *= inv
		}

		out := dst[f*m.out : (f+1)*m.out]
		for c := range out {
			out[c] = v
		}
	}

	return got * m.out, err
}
