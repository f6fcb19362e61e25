// SPDX-License-Identifier: EPL-2.0

package stream

import "sync/atomic"

// State is the lifecycle stage of a handle.
type State int32

const (
	// StateCreated is held only while the constructor runs.
	StateCreated State = iota
	// StateActive accepts frames.
	StateActive
	// StateDestroyed is terminal.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

type lifecycle struct {
	v atomic.Int32
}

func (l *lifecycle) load() State { return State(l.v.Load()) }

func (l *lifecycle) activate() { l.v.Store(int32(StateActive)) }

// destroy moves an active handle to StateDestroyed exactly once.
func (l *lifecycle) destroy() bool {
	return l.v.CompareAndSwap(int32(StateActive), int32(StateDestroyed))
}
