// SPDX-License-Identifier: EPL-2.0

// Package watermark embeds a short payload into audio and recovers it.
//
// Both sides work on fixed blocks of Params.BlockSize frames. The embedder
// repeats the framed bit sequence, holding every bit for Params.FramesPerBit
// blocks. A cycle opens with a zero and a run of ten ones, and every payload
// byte follows behind a zero marker bit, so the opening run cannot occur
// anywhere else in the cycle. Each block gets a quiet
// carrier for its bit added on top of the program material and then passes
// through a look-ahead limiter so that the sum never clips.
//
// The detector scores every block against both bit hypotheses and keeps the
// scores of the last Params.WindowSize blocks. Result folds that window over
// every possible payload length and cycle offset and scores each alignment
// by how cleanly the bits separate and how well the framing bits match.
// Candidates are tried best first; the first whose hard-decided framing
// comes out exactly is decoded from the per-bit majority.
//
// The carrier is pluggable through the Carrier interface. FSK, the default,
// switches between two sine tones and measures them with a windowed Goertzel
// filter.
//
// Block sizes rarely match what an audio device delivers. The stream
// package wraps Embedder and Detector with frame buffering for arbitrary
// caller frame sizes.
package watermark
