// SPDX-License-Identifier: EPL-2.0

package stream

import "sync/atomic"

// Stats are running totals for one handle. They may be read from any
// goroutine while frames are processed.
type Stats struct {
	// Frames is the number of caller frames accepted.
	Frames uint64
	// Blocks is the number of internal blocks processed.
	Blocks uint64
	// Passthrough counts frames returned unchanged because their length did
	// not match frameSize*channels.
	Passthrough uint64
	// Silence counts embed frames answered with silence.
	Silence uint64
}

type counters struct {
	frames      atomic.Uint64
	blocks      atomic.Uint64
	passthrough atomic.Uint64
	silence     atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Frames:      c.frames.Load(),
		Blocks:      c.blocks.Load(),
		Passthrough: c.passthrough.Load(),
		Silence:     c.silence.Load(),
	}
}
