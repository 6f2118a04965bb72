package inject

import (
	"time"

	"github.com/hazyhaar/repli/mutation"
)

const (
	defaultSettle   = 100 * time.Millisecond
	defaultMaxBurst = 1000
)

// debouncer collects relevant change records and reports when the host
// has settled: the window expired with no further change, the oldest
// pending record reached maxWait, or the burst grew past maxBurst.
type debouncer struct {
	window   time.Duration
	maxWait  time.Duration
	maxBurst int
	pending  int
	first    time.Time // arrival of the oldest pending record
	timer    *time.Timer
	timerCh  <-chan time.Time
}

func newDebouncer(window, maxWait time.Duration, maxBurst int) *debouncer {
	if window <= 0 {
		window = defaultSettle
	}
	if maxWait < window {
		maxWait = 2 * window
	}
	if maxBurst <= 0 {
		maxBurst = defaultMaxBurst
	}
	return &debouncer{window: window, maxWait: maxWait, maxBurst: maxBurst}
}

// add accounts for a batch. It returns true when the burst is large
// enough to scan immediately; the caller then runs a pass and calls reset.
func (d *debouncer) add(b mutation.Batch) bool {
	if d.pending == 0 {
		d.first = time.Now()
	}
	d.pending += len(b.Records)
	if d.pending >= d.maxBurst {
		return true
	}
	d.arm()
	return false
}

// arm (re)starts the settle window, cut short so that it never ends
// later than maxWait after the oldest pending record.
func (d *debouncer) arm() {
	if d.timer != nil {
		d.timer.Stop()
	}
	wait := d.window
	if !d.first.IsZero() {
		wait = min(wait, max(time.Until(d.first.Add(d.maxWait)), 0))
	}
	d.timer = time.NewTimer(wait)
	d.timerCh = d.timer.C
}

// timerC fires when the settle window expires. Nil while disarmed.
func (d *debouncer) timerC() <-chan time.Time {
	return d.timerCh
}

func (d *debouncer) reset() {
	d.pending = 0
	d.first = time.Time{}
	d.stop()
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
		d.timerCh = nil
	}
}

// Relevant reports whether a batch can have created or destroyed a
// container. Attribute and text churn is ignored.
func Relevant(b mutation.Batch) bool {
	return b.Structural()
}
