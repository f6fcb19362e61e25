// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

// ErrInvalidStream indicates the input has no decodable MPEG audio frames.
var ErrInvalidStream = errors.New("invalid MP3 stream")
