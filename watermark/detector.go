// SPDX-License-Identifier: EPL-2.0

package watermark

import (
	"cmp"
	"encoding/hex"
	"math"
	"slices"

	"github.com/ik5/audwmark/payload"
)

// Detection is the detector's current best guess.
type Detection struct {
	// Message is the decoded text. It is empty unless Detected is set.
	Message string
	// Hex is the decoded payload in lowercase hex.
	Hex string
	// Confidence is in [0, 1].
	Confidence float64
	// Detected reports whether Confidence reached the threshold.
	Detected bool
}

// Detector accumulates per-block carrier scores over a rolling window and
// decodes the payload on demand.
//
// Process must be called from a single goroutine. Result may be called from
// any number of other goroutines at the same time; it works on a snapshot
// and never blocks Process.
type Detector struct {
	cfg     Config
	params  Params
	carrier Carrier

	s0, s1 []float64
	blocks uint64

	snap *snapshots

	// search scratch, guarded by snap.mu
	ad, ae []float64
	d, e   []float64
}

// NewDetector builds a detector. A nil carrier selects the default FSK
// carrier.
func NewDetector(cfg Config, p Params, c Carrier) (*Detector, error) {
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if c == nil {
		var err error
		if c, err = defaultCarrier(cfg.SampleRate, p.BlockSize); err != nil {
			return nil, err
		}
	}

	maxCycle := p.CycleBlocks(p.MaxMessageBytes)
	maxBits := FramedBits(p.MaxMessageBytes)

	return &Detector{
		cfg:     cfg,
		params:  p,
		carrier: c,
		s0:      make([]float64, p.WindowSize),
		s1:      make([]float64, p.WindowSize),
		snap:    newSnapshots(p.WindowSize),
		ad:      make([]float64, maxCycle),
		ae:      make([]float64, maxCycle),
		d:       make([]float64, maxBits),
		e:       make([]float64, maxBits),
	}, nil
}

// BlockLen is the number of samples Process expects.
func (d *Detector) BlockLen() int { return d.params.BlockSize * d.cfg.Channels }

// Blocks returns the number of blocks analyzed since creation or Reset.
func (d *Detector) Blocks() uint64 { return d.blocks }

// Process scores one block and publishes the updated window. It reports
// false and changes nothing when the block has the wrong length.
func (d *Detector) Process(block []float32) bool {
	if len(block) != d.BlockLen() {
		return false
	}

	s0, s1 := d.carrier.Analyze(block, d.cfg.Channels)
	slot := d.blocks % uint64(d.params.WindowSize)
	d.s0[slot] = s0
	d.s1[slot] = s1
	d.blocks++

	d.snap.publish(d.s0, d.s1, d.blocks)

	return true
}

// Reset discards all evidence.
func (d *Detector) Reset() {
	clear(d.s0)
	clear(d.s1)
	d.blocks = 0
	d.snap.publish(d.s0, d.s1, 0)
}

// Result returns the current detection. ok is false while fewer than half a
// window of blocks has been seen.
func (d *Detector) Result() (det Detection, ok bool) {
	d.snap.read(func(s *scores) {
		det, ok = d.evaluate(s)
	})

	return det, ok
}

type candidate struct {
	length     int // payload bytes
	offset     int // cycle offset in blocks
	confidence float64
}

func (d *Detector) evaluate(s *scores) (Detection, bool) {
	p := d.params
	w := uint64(p.WindowSize)

	if s.blocks < w/2 {
		return Detection{}, false
	}

	first := uint64(0)
	if s.blocks > w {
		first = s.blocks - w
	}
	count := int(s.blocks - first)

	var sum0, sum1 float64
	for k := first; k < s.blocks; k++ {
		sum0 += s.s0[k%w]
		sum1 += s.s1[k%w]
	}
	if (sum0+sum1)/float64(count) < p.MinCarrierLevel {
		return Detection{}, true
	}

	cands := make([]candidate, 0, p.MaxMessageBytes)
	for n := 1; n <= p.MaxMessageBytes; n++ {
		if p.CycleBlocks(n) > count {
			break
		}
		cands = append(cands, d.searchLength(s, first, n))
	}
	if len(cands) == 0 {
		return Detection{}, true
	}

	// best first, shorter payloads win exact ties
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.confidence, a.confidence)
	})

	det := Detection{Confidence: cands[0].confidence}
	for _, c := range cands {
		if c.confidence < p.Threshold {
			break
		}

		raw, ok := d.decode(s, first, c)
		if !ok {
			continue
		}

		det.Confidence = c.confidence
		det.Hex = hex.EncodeToString(raw)
		det.Message, _ = payload.HexToText(det.Hex)
		det.Detected = true
		break
	}

	return det, true
}

// fold sums the score difference and total per cycle position for a payload
// of n bytes into d.ad and d.ae.
func (d *Detector) fold(s *scores, first uint64, n int) int {
	p := d.params
	w := uint64(p.WindowSize)
	cycle := p.CycleBlocks(n)

	ad, ae := d.ad[:cycle], d.ae[:cycle]
	clear(ad)
	clear(ae)

	for k := first; k < s.blocks; k++ {
		r := int(k % uint64(cycle))
		v0, v1 := s.s0[k%w], s.s1[k%w]
		ad[r] += v1 - v0
		ae[r] += v1 + v0
	}

	return cycle
}

// bitEvidence aggregates the folded scores per bit for a cycle offset.
func (d *Detector) bitEvidence(cycle, offset, nbits int) ([]float64, []float64) {
	fpb := d.params.FramesPerBit
	db, eb := d.d[:nbits], d.e[:nbits]
	clear(db)
	clear(eb)

	for r := range cycle {
		pos := r - offset
		if pos < 0 {
			pos += cycle
		}
		b := pos / fpb
		db[b] += d.ad[r]
		eb[b] += d.ae[r]
	}

	return db, eb
}

// searchLength finds the cycle offset whose framing bits agree best with
// the folded evidence for a payload of n bytes.
func (d *Detector) searchLength(s *scores, first uint64, n int) candidate {
	cycle := d.fold(s, first, n)
	nbits := FramedBits(n)

	best := candidate{length: n}
	for off := range cycle {
		db, eb := d.bitEvidence(cycle, off, nbits)

		var absD, sumE, agree, absFixed float64
		for b := range nbits {
			absD += math.Abs(db[b])
			sumE += eb[b]

			v, fixed := fixedBit(b)
			if !fixed {
				continue
			}
			if v == 1 {
				agree += db[b]
			} else {
				agree -= db[b]
			}
			absFixed += math.Abs(db[b])
		}
		if sumE <= 0 || absD <= 0 || absFixed <= 0 {
			continue
		}

		conf := absD / sumE * max(0, agree/absFixed)
		if conf > best.confidence {
			best.offset = off
			best.confidence = min(conf, 1)
		}
	}

	return best
}

// decode hard-decides every bit of candidate c and returns the payload. ok
// is false when the framing bits do not come out exactly.
func (d *Detector) decode(s *scores, first uint64, c candidate) ([]byte, bool) {
	cycle := d.fold(s, first, c.length)
	db, _ := d.bitEvidence(cycle, c.offset, FramedBits(c.length))

	framed := make([]uint8, len(db))
	for i, v := range db {
		if v > 0 {
			framed[i] = 1
		}
	}

	bits, ok := unframe(framed)
	if !ok {
		return nil, false
	}

	raw, err := bits.Bytes()
	if err != nil {
		return nil, false
	}

	return raw, true
}
