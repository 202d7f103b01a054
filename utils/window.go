package utils

import (
	"container/list"
	"sync"
)

// RecentWindow is a bounded set of recently seen event ids with
// oldest-first eviction. The session router uses it to drop duplicate
// webhook deliveries without growing an unbounded process-wide set.
type RecentWindow struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

// NewRecentWindow creates a window holding at most capacity ids.
// Capacity below 1 is treated as 1.
func NewRecentWindow(capacity int) *RecentWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentWindow{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Remember records id and reports whether it was newly observed.
// A false return means the id was already in the window: the caller
// should treat the event as a duplicate delivery.
func (w *RecentWindow) Remember(id string) bool {
	if id == "" {
		// Events without an id cannot be deduplicated; process them.
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, seen := w.index[id]; seen {
		return false
	}

	for w.order.Len() >= w.capacity {
		oldest := w.order.Front()
		w.order.Remove(oldest)
		delete(w.index, oldest.Value.(string))
	}

	w.index[id] = w.order.PushBack(id)
	return true
}

// Len returns the number of ids currently tracked.
func (w *RecentWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.order.Len()
}
