// Package buffer provides a bounded history of relayed messages.
package buffer

import (
	"sync"
)

// MessageRing is a thread-safe circular buffer holding the most recent
// messages up to a fixed count. When full, the oldest message is discarded.
//
// The relay replays it to clients that join late so they pick up the current
// tempo and pattern.
type MessageRing struct {
	items    [][]byte
	start    int
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewMessageRing creates a ring holding up to capacity messages.
// A capacity below 1 defaults to 1.
func NewMessageRing(capacity int) *MessageRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &MessageRing{
		items:    make([][]byte, capacity),
		capacity: capacity,
	}
}

// Push stores a copy of msg, evicting the oldest message when full.
func (r *MessageRing) Push(msg []byte) {
	cp := make([]byte, len(msg))
	copy(cp, msg)

	r.mu.Lock()
	defer r.mu.Unlock()

	end := (r.start + r.size) % r.capacity
	r.items[end] = cp
	if r.size < r.capacity {
		r.size++
		return
	}
	r.start = (r.start + 1) % r.capacity
}

// Snapshot returns the stored messages oldest first. The returned slices are
// copies and safe to use without holding the lock.
func (r *MessageRing) Snapshot() [][]byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		return nil
	}

	out := make([][]byte, 0, r.size)
	for i := 0; i < r.size; i++ {
		msg := r.items[(r.start+i)%r.capacity]
		cp := make([]byte, len(msg))
		copy(cp, msg)
		out = append(out, cp)
	}
	return out
}

// Clear removes all messages.
func (r *MessageRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		r.items[i] = nil
	}
	r.start = 0
	r.size = 0
}

// Len returns the number of stored messages.
func (r *MessageRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the maximum number of messages.
func (r *MessageRing) Cap() int {
	return r.capacity
}
