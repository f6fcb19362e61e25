// SPDX-License-Identifier: EPL-2.0

package payload

import "errors"

var (
	// ErrInvalidPayload is returned (wrapped around a more specific cause)
	// for every message that cannot be turned into a bit sequence.
	ErrInvalidPayload = errors.New("invalid payload")

	ErrEmptyPayload    = errors.New("payload is empty")
	ErrOddLength       = errors.New("hex length must be even")
	ErrInvalidHexDigit = errors.New("non-hex character in payload")
	ErrBitsNotAligned  = errors.New("bit count must be a multiple of 8")
)
