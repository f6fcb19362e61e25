// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrDestroyed is returned by Close on a handle that is already closed.
	ErrDestroyed = errors.New("stream: handle already destroyed")

	ErrInvalidFrameSize = errors.New("stream: frame size must be positive")
)
