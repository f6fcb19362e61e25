// SPDX-License-Identifier: EPL-2.0

// Package formats wires every bundled decoder into one shared registry.
package formats

import (
	"sync"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/formats/aiff"
	"github.com/ik5/audwmark/formats/mp3"
	"github.com/ik5/audwmark/formats/vorbis"
	"github.com/ik5/audwmark/formats/wav"
)

// DefaultRegistry returns the process-wide registry holding the wav, mp3,
// ogg and aiff decoders. It is built on first use.
var DefaultRegistry = sync.OnceValue(func() *audio.Registry {
	reg := audio.NewRegistry()
	Register(reg)
	return reg
})

// Register adds the bundled decoders to reg under their file extensions.
func Register(reg *audio.Registry) {
	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
}
