package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Burst describes a run of file events that settled into one reload.
type Burst struct {
	// Path is the last file that changed.
	Path string

	// Events is how many events were coalesced.
	Events int

	// First is when the first event of the burst arrived.
	First time.Time
}

// Debouncer collapses bursts of events into one callback. Editors often
// write a snapshot file in several steps (truncate, write, chmod, rename);
// the callback fires once the file has been quiet for the interval.
type Debouncer struct {
	interval time.Duration
	fire     func(Burst)
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending Burst
}

// NewDebouncer creates a debouncer that calls fire after interval of quiet.
// A nil logger discards callback panics silently.
func NewDebouncer(interval time.Duration, logger *slog.Logger, fire func(Burst)) *Debouncer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Debouncer{
		interval: interval,
		fire:     fire,
		logger:   logger,
	}
}

// Trigger records an event for path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending.Events == 0 {
		d.pending.First = time.Now()
	}

	d.pending.Path = path
	d.pending.Events++

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Pending returns the number of events waiting for the quiet period.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending.Events
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	b := d.pending
	d.pending = Burst{}
	d.mu.Unlock()

	if b.Events == 0 {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("reload callback panicked",
				slog.String("path", b.Path),
				slog.Any("panic", r),
			)
		}
	}()

	d.fire(b)
}

// Stop cancels a pending callback and drops its events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.pending = Burst{}
}
