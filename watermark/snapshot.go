// SPDX-License-Identifier: EPL-2.0

package watermark

import (
	"sync"
	"sync/atomic"
)

// scores is one published copy of the detector evidence.
type scores struct {
	s0, s1 []float64
	blocks uint64 // block counter at publication time
}

// snapshots is a triple buffer handing score copies from the audio goroutine
// to readers without ever blocking the writer.
//
// The writer owns bufs[back], readers own bufs[front] and the third slot is
// in flight. state holds the index of the in-flight slot plus freshBit when
// the writer has published since the last read. The mutex only orders
// readers among themselves.
type snapshots struct {
	bufs  [3]scores
	state atomic.Uint32
	back  int

	mu    sync.Mutex
	front int
}

const (
	slotMask = 3
	freshBit = 4
)

func newSnapshots(window int) *snapshots {
	s := &snapshots{back: 0, front: 2}
	for i := range s.bufs {
		s.bufs[i] = scores{
			s0: make([]float64, window),
			s1: make([]float64, window),
		}
	}
	s.state.Store(1)

	return s
}

// publish copies the writer state into the back slot and swaps it in.
func (s *snapshots) publish(s0, s1 []float64, blocks uint64) {
	w := &s.bufs[s.back]
	copy(w.s0, s0)
	copy(w.s1, s1)
	w.blocks = blocks

	old := s.state.Swap(uint32(s.back) | freshBit)
	s.back = int(old & slotMask)
}

// read calls fn with the most recently published scores. fn must not retain
// the slices.
func (s *snapshots) read(fn func(*scores)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Load()&freshBit != 0 {
		old := s.state.Swap(uint32(s.front))
		s.front = int(old & slotMask)
	}

	fn(&s.bufs[s.front])
}
