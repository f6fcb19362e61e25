// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files through github.com/go-audio/aiff.
//
// Signed PCM of 8, 16, 24 or 32 bits is supported in any channel layout.
// Samples are normalized to float32 in [-1, 1]:
//
//	f, _ := os.Open("jingle.aif")
//	src, err := aiff.Decoder{}.Decode(f)
package aiff
