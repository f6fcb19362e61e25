// SPDX-License-Identifier: EPL-2.0

package watermark

import (
	"errors"
	"fmt"
)

// Config describes one watermark stream. It is fixed for the lifetime of an
// embedder or detector.
type Config struct {
	SampleRate int
	Channels   int
	// Strength is the carrier amplitude relative to full scale. Only the
	// embedder uses it.
	Strength float64
	// Key is reserved for keyed carriers and is currently unused.
	Key []byte
}

// Validate checks cfg. Strength is only required when forEmbed is set. All
// failures are joined into one error that wraps ErrInvalidConfig.
func (c Config) Validate(forEmbed bool) error {
	var errs []error

	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d must be positive", c.SampleRate))
	}
	if c.Channels < 1 {
		errs = append(errs, fmt.Errorf("channels %d must be at least 1", c.Channels))
	}
	if forEmbed && (c.Strength <= 0 || c.Strength >= 1) {
		errs = append(errs, fmt.Errorf("strength %g is out of range (0, 1)", c.Strength))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Params are the algorithm constants shared by embedder and detector. Both
// sides of a stream must use the same values.
type Params struct {
	// BlockSize is the internal processing unit in frames.
	BlockSize int
	// FramesPerBit is the number of consecutive blocks carrying one bit.
	FramesPerBit int
	// WindowSize is the number of blocks the detector keeps as evidence.
	WindowSize int
	// Threshold is the confidence at which a detection is reported.
	Threshold float64
	// MaxMessageBytes bounds the payload length and the detector search.
	MaxMessageBytes int
	// Ceiling is the peak level of the output limiter.
	Ceiling float32
	// MinCarrierLevel is the average carrier amplitude below which the
	// detector reports zero confidence.
	MinCarrierLevel float64
}

const (
	DefaultBlockSize       = 1024
	DefaultFramesPerBit    = 2
	DefaultWindowSize      = 512
	DefaultThreshold       = 0.5
	DefaultMaxMessageBytes = 16
	DefaultCeiling         = 0.95
	DefaultMinCarrierLevel = 1e-5
)

func DefaultParams() Params {
	return Params{
		BlockSize:       DefaultBlockSize,
		FramesPerBit:    DefaultFramesPerBit,
		WindowSize:      DefaultWindowSize,
		Threshold:       DefaultThreshold,
		MaxMessageBytes: DefaultMaxMessageBytes,
		Ceiling:         DefaultCeiling,
		MinCarrierLevel: DefaultMinCarrierLevel,
	}
}

// CycleBlocks returns the number of blocks one repetition of a payload of
// n bytes occupies, framing included.
func (p Params) CycleBlocks(n int) int {
	return FramedBits(n) * p.FramesPerBit
}

// Validate checks p. The longest payload cycle must fit in the detector
// window.
func (p Params) Validate() error {
	var errs []error

	if p.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block_size %d must be positive", p.BlockSize))
	}
	if p.FramesPerBit <= 0 {
		errs = append(errs, fmt.Errorf("frames_per_bit %d must be positive", p.FramesPerBit))
	}
	if p.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes %d must be positive", p.MaxMessageBytes))
	}
	if p.WindowSize < 2 {
		errs = append(errs, fmt.Errorf("window_size %d must be at least 2", p.WindowSize))
	} else if p.FramesPerBit > 0 && p.MaxMessageBytes > 0 && p.CycleBlocks(p.MaxMessageBytes) > p.WindowSize {
		errs = append(errs, fmt.Errorf("window_size %d is shorter than the longest payload cycle (%d blocks)",
			p.WindowSize, p.CycleBlocks(p.MaxMessageBytes)))
	}
	if p.Threshold <= 0 || p.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %g is out of range (0, 1]", p.Threshold))
	}
	if p.Ceiling <= 0 || p.Ceiling > 1 {
		errs = append(errs, fmt.Errorf("ceiling %g is out of range (0, 1]", p.Ceiling))
	}
	if p.MinCarrierLevel < 0 {
		errs = append(errs, fmt.Errorf("min_carrier_level %g must not be negative", p.MinCarrierLevel))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidParams, errors.Join(errs...))
}
