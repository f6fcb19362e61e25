// SPDX-License-Identifier: EPL-2.0

// Package stream connects watermark embedding and detection to real-time
// audio callbacks.
//
// A callback hands over frames of whatever size the device uses. Embedder
// and Detector buffer them into the fixed internal block size, run the
// watermark algorithm and, for the embedder, hand back exactly one frame of
// output per call:
//
//	emb, err := stream.NewEmbedder(cfg, payload.TextToHex("Hello"))
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	out := emb.ProcessFrame(in, frameSize)
//
// Neither ProcessFrame blocks, logs or returns an error. A frame with the
// wrong length is returned untouched and counted in Stats.
//
// Detector.Result reads a lock-free snapshot and may be polled from a
// timer goroutine while the audio goroutine keeps calling ProcessFrame.
//
// Handles move from StateCreated to StateActive inside the constructor and
// to StateDestroyed on Close. Close must not race with ProcessFrame; stop
// the audio goroutine first. Pump drives a BlockSource on the calling
// goroutine, so closing after Pump returns is always safe.
package stream
