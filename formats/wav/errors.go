// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	// ErrNotWavFile indicates the input is not a readable RIFF/WAVE file.
	ErrNotWavFile = errors.New("not a WAV file")
	// ErrUnsupportedFormat indicates a compressed or floating point WAV.
	ErrUnsupportedFormat = errors.New("only integer PCM WAV is supported")
	// ErrUnsupportedBitDepth indicates a sample width other than 8, 16, 24 or 32 bits.
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
	// ErrNoPCMData indicates the file has no data chunk.
	ErrNoPCMData = errors.New("WAV file has no PCM data")
	// ErrInvalidLayout indicates bad encoder parameters or a partial frame.
	ErrInvalidLayout = errors.New("invalid WAV layout")
)
