package agent

import (
	"sync"
	"time"
)

// Debouncer suppresses duplicate taps: the same token on the same reader
// inside the window is treated as one physical presentation, not a second
// purchase. Distinct readers never debounce each other.
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewDebouncer creates a debouncer with the given suppression window
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:   window,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether a tap should be processed and records it if so. A
// suppressed tap does not extend the window; the clock runs from the first
// accepted tap.
func (d *Debouncer) Allow(uid, readerName string) bool {
	key := readerName + "\x00" + uid
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastSeen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.lastSeen[key] = now

	// Drop stale entries so the map does not grow with token history
	for k, t := range d.lastSeen {
		if now.Sub(t) >= d.window {
			delete(d.lastSeen, k)
		}
	}
	return true
}
