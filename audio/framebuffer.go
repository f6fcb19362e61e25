// SPDX-License-Identifier: EPL-2.0

package audio

import "slices"

// FrameBuffer is a FIFO of interleaved samples that accepts pushes of any
// length and hands out whole frames.
//
// A frame is one sample per channel. Pops return views into the internal
// storage which stay valid until the next Push, Pop or Clear.
//
// FrameBuffer is not safe for concurrent use.
type FrameBuffer struct {
	buf      []float32
	head     int
	channels int
}

// NewFrameBuffer returns a buffer for the given channel count with room for
// capacityFrames frames before the first reallocation.
func NewFrameBuffer(channels, capacityFrames int) *FrameBuffer {
	if channels < 1 {
		channels = 1
	}
	if capacityFrames < 0 {
		capacityFrames = 0
	}

	return &FrameBuffer{
		buf:      make([]float32, 0, capacityFrames*channels),
		channels: channels,
	}
}

// Channels returns the number of interleaved channels per frame.
func (fb *FrameBuffer) Channels() int { return fb.channels }

// Size returns the number of buffered samples.
func (fb *FrameBuffer) Size() int { return len(fb.buf) - fb.head }

// Frames returns the number of complete buffered frames.
func (fb *FrameBuffer) Frames() int { return fb.Size() / fb.channels }

// Has reports whether at least n frames are buffered.
func (fb *FrameBuffer) Has(n int) bool {
	return fb.Size() >= n*fb.channels
}

// Push appends samples in order.
func (fb *FrameBuffer) Push(samples []float32) {
	if len(samples) == 0 {
		return
	}

	fb.compact(len(samples))
	fb.buf = append(fb.buf, samples...)
}

// PushSilence appends n frames of zeros.
func (fb *FrameBuffer) PushSilence(n int) {
	count := n * fb.channels
	if count <= 0 {
		return
	}

	fb.compact(count)
	start := len(fb.buf)
	fb.buf = slices.Grow(fb.buf, count)[:start+count]
	clear(fb.buf[start:])
}

// Pop removes n frames and returns them. The caller must check Has(n) first;
// popping more than is buffered panics.
func (fb *FrameBuffer) Pop(n int) []float32 {
	count := n * fb.channels
	end := len(fb.buf)
	out := fb.buf[fb.head:end:end][:count:count]
	fb.head += count

	if fb.head == len(fb.buf) {
		fb.buf = fb.buf[:0]
		fb.head = 0
	}

	return out
}

// PopInto copies len(dst)/Channels() frames into dst and returns the number of
// samples written. It has the same precondition as Pop.
func (fb *FrameBuffer) PopInto(dst []float32) int {
	frames := len(dst) / fb.channels
	return copy(dst, fb.Pop(frames))
}

// Clear discards all buffered samples and keeps the allocation.
func (fb *FrameBuffer) Clear() {
	fb.buf = fb.buf[:0]
	fb.head = 0
}

// compact slides the unread tail to the front when appending extra samples
// would otherwise grow the backing array.
func (fb *FrameBuffer) compact(extra int) {
	if fb.head == 0 || len(fb.buf)+extra <= cap(fb.buf) {
		return
	}

	n := copy(fb.buf, fb.buf[fb.head:])
	fb.buf = fb.buf[:n]
	fb.head = 0
}
