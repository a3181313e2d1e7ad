package config

import (
	"sync"
	"time"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// debouncer runs only the last callback triggered within its window.
type debouncer struct {
	window time.Duration
	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
}

func newDebouncer(window time.Duration) *debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &debouncer{window: window}
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		stale := seq != d.seq
		if !stale {
			d.timer = nil
		}
		d.mu.Unlock()
		if !stale {
			fn()
		}
	})
}

func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
