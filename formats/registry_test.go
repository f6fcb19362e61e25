// SPDX-License-Identifier: EPL-2.0

package formats_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/ik5/audwmark/audio"
	"github.com/ik5/audwmark/formats"
	"github.com/ik5/audwmark/formats/wav"
)

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg := formats.DefaultRegistry()
	if reg != formats.DefaultRegistry() {
		t.Fatal("DefaultRegistry() is not a singleton")
	}

	for _, ext := range []string{"wav", "mp3", "ogg", "aiff", "aif", "WAV"} {
		if _, ok := reg.Get(ext); !ok {
			t.Errorf("no decoder for %q", ext)
		}
	}

	if !slices.Contains(reg.Formats(), "mp3") {
		t.Errorf("Formats() = %v", reg.Formats())
	}
}

func TestDefaultRegistry_ForPath(t *testing.T) {
	t.Parallel()

	dec, err := formats.DefaultRegistry().ForPath("/tmp/Program.Final.WAV")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dec.(wav.Decoder); !ok {
		t.Errorf("ForPath picked %T", dec)
	}

	if _, err := formats.DefaultRegistry().ForPath("notes.txt"); !errors.Is(err, audio.ErrUnknownFormat) {
		t.Errorf("ForPath(txt) = %v", err)
	}
}
