package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestDebouncer(window time.Duration) (*Debouncer, *time.Time) {
	d := NewDebouncer(window)
	current := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return current }
	return d, &current
}

func TestDebouncerSuppressesRapidRepeat(t *testing.T) {
	d, clock := newTestDebouncer(800 * time.Millisecond)

	assert.True(t, d.Allow("04:AA", "bar-1"))

	*clock = clock.Add(200 * time.Millisecond)
	assert.False(t, d.Allow("04:AA", "bar-1"))

	*clock = clock.Add(700 * time.Millisecond)
	assert.True(t, d.Allow("04:AA", "bar-1"))
}

func TestDebouncerSuppressedTapDoesNotExtendWindow(t *testing.T) {
	d, clock := newTestDebouncer(800 * time.Millisecond)

	assert.True(t, d.Allow("04:AA", "bar-1"))

	*clock = clock.Add(600 * time.Millisecond)
	assert.False(t, d.Allow("04:AA", "bar-1"))

	// 900ms after the accepted tap, even though only 300ms after the
	// suppressed one
	*clock = clock.Add(300 * time.Millisecond)
	assert.True(t, d.Allow("04:AA", "bar-1"))
}

func TestDebouncerIsolatesReadersAndTokens(t *testing.T) {
	d, _ := newTestDebouncer(800 * time.Millisecond)

	assert.True(t, d.Allow("04:AA", "bar-1"))
	assert.True(t, d.Allow("04:AA", "bar-2"))
	assert.True(t, d.Allow("04:BB", "bar-1"))
	assert.False(t, d.Allow("04:AA", "bar-1"))
}
