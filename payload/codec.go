// SPDX-License-Identifier: EPL-2.0

// Package payload converts watermark messages between text, hex and the bit
// sequence that is embedded into the audio.
//
// A message travels as a hex string with two digits per byte, high nibble
// first. The embedded bit sequence is the message bytes, most significant bit
// first:
//
//	bits, err := payload.ParseBits(payload.TextToHex("Hello"))
//	// bits = 0,1,0,0,1,0,0,0, 0,1,1,0,0,1,0,1, ...
//
// Bits are stored one per byte (0 or 1) so the embedder can index them
// directly on the audio path.
package payload

import (
	"encoding/hex"
	"fmt"
)

// Bits is an ordered, non-empty sequence of 0/1 values whose length is a
// multiple of 8.
type Bits []uint8

// TextToHex encodes every byte of text as two lowercase hex digits.
func TextToHex(text string) string {
	return hex.EncodeToString([]byte(text))
}

// HexToText decodes a hex message back into its text form. It is the exact
// inverse of TextToHex, so the empty string decodes to the empty string.
func HexToText(h string) (string, error) {
	if err := checkDigits(h); err != nil {
		return "", err
	}

	b, err := hex.DecodeString(h)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return string(b), nil
}

// IsValidHexMessage reports whether h can be embedded: it must be non-empty,
// have an even length and contain only hex digits (either case).
func IsValidHexMessage(h string) bool {
	return validate(h) == nil
}

// ParseBits turns a hex message into its bit sequence, MSB first per byte.
// It fails exactly when IsValidHexMessage(h) is false.
func ParseBits(h string) (Bits, error) {
	if err := validate(h); err != nil {
		return nil, err
	}

	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return FromBytes(b), nil
}

// FromBytes expands raw bytes into bits, MSB first.
func FromBytes(b []byte) Bits {
	bits := make(Bits, 0, len(b)*8)
	for _, v := range b {
		for bit := 7; bit >= 0; bit-- {
			bits = append(bits, (v>>uint(bit))&1)
		}
	}

	return bits
}

// Bytes packs the bits back into bytes. Any non-zero entry counts as a 1.
func (b Bits) Bytes() ([]byte, error) {
	if len(b)%8 != 0 {
		return nil, ErrBitsNotAligned
	}

	out := make([]byte, len(b)/8)
	for i, v := range b {
		if v != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}

	return out, nil
}

// Hex returns the hex message that b was parsed from.
func (b Bits) Hex() (string, error) {
	raw, err := b.Bytes()
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}

func validate(h string) error {
	if len(h) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, ErrEmptyPayload)
	}

	return checkDigits(h)
}

func checkDigits(h string) error {
	if len(h)%2 != 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, ErrOddLength)
	}

	for i := 0; i < len(h); i++ {
		if !isHexDigit(h[i]) {
			return fmt.Errorf("%w: %w at offset %d", ErrInvalidPayload, ErrInvalidHexDigit, i)
		}
	}

	return nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
