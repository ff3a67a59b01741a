package dedup

import (
	"sync"
	"testing"
)

func TestWindow_FirstSeenFalse_ThenTrue(t *testing.T) {
	w := NewWindow(10)
	k := Key{ChatID: 1, MessageID: 100}

	if w.Seen(k) {
		t.Fatalf("first Seen() = true; want false")
	}
	for i := 0; i < 3; i++ {
		if !w.Seen(k) {
			t.Fatalf("repeat Seen() = false; want true (attempt %d)", i)
		}
	}
}

func TestWindow_DistinctKeysIndependent(t *testing.T) {
	w := NewWindow(10)

	if w.Seen(Key{ChatID: 1, MessageID: 1}) {
		t.Fatalf("fresh key reported seen")
	}
	// Same message id in a different chat is a different delivery.
	if w.Seen(Key{ChatID: 2, MessageID: 1}) {
		t.Fatalf("key from other chat reported seen")
	}
	if w.Seen(Key{ChatID: 1, MessageID: 2}) {
		t.Fatalf("other message in same chat reported seen")
	}
}

func TestWindow_FIFOEviction(t *testing.T) {
	const cap = 5
	w := NewWindow(cap)

	first := Key{ChatID: 1, MessageID: 0}
	for i := int64(0); i <= cap; i++ { // cap+1 distinct inserts
		if w.Seen(Key{ChatID: 1, MessageID: i}) {
			t.Fatalf("fresh key %d reported seen", i)
		}
	}

	if w.Len() != cap {
		t.Fatalf("Len() = %d; want %d after overflow", w.Len(), cap)
	}
	// The first inserted key was evicted and now counts as new again.
	if w.Seen(first) {
		t.Fatalf("evicted key still reported seen")
	}
	// Re-inserting it evicted the next-oldest; the newest survives.
	if !w.Seen(Key{ChatID: 1, MessageID: cap}) {
		t.Fatalf("newest key lost from window")
	}
}

func TestWindow_CapacityFallback(t *testing.T) {
	w := NewWindow(0)
	if w.maxSeen != DefaultMaxSeen {
		t.Fatalf("maxSeen = %d; want DefaultMaxSeen fallback", w.maxSeen)
	}
}

func TestWindow_ConcurrentSameKey_ExactlyOneMiss(t *testing.T) {
	w := NewWindow(100)
	k := Key{ChatID: 7, MessageID: 7}

	const n = 32
	var wg sync.WaitGroup
	misses := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !w.Seen(k) {
				misses <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(misses)

	count := 0
	for range misses {
		count++
	}
	if count != 1 {
		t.Fatalf("got %d first-seen results for the same key; want exactly 1", count)
	}
}
