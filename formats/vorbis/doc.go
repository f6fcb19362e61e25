// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with github.com/jfreymuth/oggvorbis.
//
// Any channel count and sample rate the stream declares is passed through
// unchanged. Samples are already float32, so no conversion is made.
package vorbis
