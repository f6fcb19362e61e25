// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files with github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit interleaved stereo at the stream's sample
// rate, so every Source from this package reports two channels. Mono
// files come out with both channels equal; use audio.NewMonoMixer to fold
// them back.
//
//	f, _ := os.Open("ad.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//	if errors.Is(err, mp3.ErrInvalidStream) {
//	    // not an MP3
//	}
package mp3
