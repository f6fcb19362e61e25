// SPDX-License-Identifier: EPL-2.0

// Package utils holds small sample conversion helpers shared by the format
// decoders, the WAV encoder and the CLI.
package utils

// FullScale returns the magnitude that maps to 1.0 for signed PCM of the
// given bit depth. Unknown depths fall back to 16-bit.
func FullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 16:
		return 32768.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}

// Float32ToInt16 clamps x to [-1, 1] and scales it to int16.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1.0 from overflowing
	return int16(x * 32767.0)
}

// Int16ToFloat32 converts a signed 16-bit sample to [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// IntToFloat32 converts a signed PCM sample of bitDepth bits to [-1, 1).
func IntToFloat32(v int, bitDepth int) float32 {
	return float32(v) / FullScale(bitDepth)
}

// Float32ToInt clamps x to [-1, 1] and scales it to a signed PCM sample of
// bitDepth bits.
func Float32ToInt(x float32, bitDepth int) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// float64 keeps 32-bit full scale exact
	return int(float64(x) * (float64(FullScale(bitDepth)) - 1))
}
