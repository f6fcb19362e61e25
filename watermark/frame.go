// SPDX-License-Identifier: EPL-2.0

package watermark

import "github.com/ik5/audwmark/payload"

// A framed cycle starts with a zero followed by syncRun ones. Every payload
// byte follows as a zero marker and its eight bits, MSB first. Payload runs
// of ones are at most eight long and are always bounded by zeros, so the
// start pattern occurs exactly once per cycle and at no other rotation.
const (
	syncRun  = 10
	syncBits = 1 + syncRun
	byteBits = 9
)

// FramedBits returns the length of the framed cycle for a payload of n
// bytes.
func FramedBits(n int) int { return syncBits + byteBits*n }

// Frame returns the bit sequence that is actually embedded for bits, one
// full cycle. bits must hold whole bytes.
func Frame(bits payload.Bits) []uint8 {
	n := len(bits) / 8
	out := make([]uint8, 0, FramedBits(n))

	out = append(out, 0)
	for range syncRun {
		out = append(out, 1)
	}
	for i := range n {
		out = append(out, 0)
		out = append(out, bits[8*i:8*i+8]...)
	}

	return out
}

// fixedBit returns the value of framing bit b of a cycle. ok is false for
// payload bits.
func fixedBit(b int) (v uint8, ok bool) {
	switch {
	case b == 0:
		return 0, true
	case b < syncBits:
		return 1, true
	case (b-syncBits)%byteBits == 0:
		return 0, true
	}

	return 0, false
}

// unframe strips the framing from one cycle. ok is false when any framing
// bit differs from what Frame produces.
func unframe(framed []uint8) (payload.Bits, bool) {
	if len(framed) < syncBits || (len(framed)-syncBits)%byteBits != 0 {
		return nil, false
	}

	out := make(payload.Bits, 0, 8*((len(framed)-syncBits)/byteBits))
	for b, v := range framed {
		want, fixed := fixedBit(b)
		if !fixed {
			out = append(out, v)
			continue
		}
		if v != want {
			return nil, false
		}
	}

	return out, true
}
