// SPDX-License-Identifier: EPL-2.0

package watermark

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid watermark config")
	ErrInvalidParams  = errors.New("invalid watermark params")
	ErrPayloadTooLong = errors.New("payload exceeds maximum message length")
	ErrEmptyPayload   = errors.New("payload has no bits")
)
