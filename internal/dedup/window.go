// Package dedup guards against re-processing of webhook deliveries.
//
// The upstream transport delivers updates at-least-once, so the same message
// can arrive more than once (retries, restarts, concurrent webhook calls).
// Window keeps a bounded recency set of delivery identities; membership is
// checked and recorded in one atomic step so that two concurrent deliveries
// of the same identity cannot both pass. The window is in-memory only:
// re-delivery of an identity after FIFO eviction is treated as new, which is
// an accepted trade of perfect dedup for bounded memory.
package dedup

import "sync"

// DefaultMaxSeen is the default capacity of the recency window.
const DefaultMaxSeen = 5000

// Key uniquely identifies one inbound message delivery within a chat.
type Key struct {
	ChatID    int64
	MessageID int64
}

// Window is a fixed-capacity FIFO set of delivery keys. Safe for concurrent
// use. Construct via NewWindow.
type Window struct {
	mu      sync.Mutex
	maxSeen int
	seen    map[Key]struct{}
	order   []Key
}

// NewWindow returns a Window holding at most maxSeen keys. Values < 1 fall
// back to DefaultMaxSeen.
func NewWindow(maxSeen int) *Window {
	if maxSeen < 1 {
		maxSeen = DefaultMaxSeen
	}
	return &Window{
		maxSeen: maxSeen,
		seen:    make(map[Key]struct{}, maxSeen),
	}
}

// Seen reports whether k was already recorded, and records it if not.
// The check and the insert (with possible eviction of the oldest key)
// happen under one lock.
func (w *Window) Seen(k Key) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[k]; ok {
		return true
	}
	w.seen[k] = struct{}{}
	w.order = append(w.order, k)
	if len(w.order) > w.maxSeen {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.seen, oldest)
	}
	return false
}

// Len returns the number of keys currently tracked.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}
