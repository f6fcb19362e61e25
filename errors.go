// SPDX-License-Identifier: EPL-2.0

package audwmark

import "errors"

// ErrNoResult is returned by Detect when the input was too short to
// evaluate.
var ErrNoResult = errors.New("audwmark: input too short for detection")
