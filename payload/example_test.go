// SPDX-License-Identifier: EPL-2.0

package payload_test

import (
	"fmt"

	"github.com/ik5/audwmark/payload"
)

func Example() {
	h := payload.TextToHex("Hi")
	fmt.Println(h, payload.IsValidHexMessage(h))

	bits, _ := payload.ParseBits(h)
	fmt.Println(bits)

	text, _ := payload.HexToText(h)
	fmt.Println(text)
	// Output:
	// 4869 true
	// [0 1 0 0 1 0 0 0 0 1 1 0 1 0 0 1]
	// Hi
}
