package dom

import (
	"context"
	"strconv"
	"time"
)

// FillField sets a field to empty, notifies, then sets the stringified
// value and notifies again. The double pass covers host UIs that diff
// against a non-empty previous value. Absent elements are a silent no-op.
func FillField(el Element, value string) {
	if el == nil {
		return
	}
	el.SetValue("")
	el.Dispatch("input")
	el.SetValue(value)
	el.Dispatch("input")
	el.Dispatch("change")
}

// FillNumber fills a field with a numeric value.
func FillNumber(el Element, value float64) {
	FillField(el, strconv.FormatFloat(value, 'f', -1, 64))
}

// Blur fires a blur event so blur-bound validation in the host page runs.
func Blur(el Element) {
	if el == nil {
		return
	}
	el.Dispatch("blur")
}

// Click attempts native activation and falls back to a synthetic
// bubbling click event. It reports whether an activation method was
// invoked, not whether the host page reacted.
func Click(el Element) bool {
	if el == nil {
		return false
	}
	if el.Invoke() {
		return true
	}
	el.Dispatch("click")
	return true
}

// WaitOptions bounds a WaitUntil poll.
type WaitOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

var defaultWait = WaitOptions{Interval: 100 * time.Millisecond, Timeout: 5 * time.Second}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Interval <= 0 {
		o.Interval = defaultWait.Interval
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultWait.Timeout
	}
	return o
}

// WaitUntil polls pred until it returns true, the timeout elapses, or
// ctx is cancelled. Panics inside pred count as not-yet-satisfied; the
// predicate reads a live document that may be mid-mutation. It never
// returns an error.
func WaitUntil(ctx context.Context, pred func() bool, opts WaitOptions) bool {
	opts = opts.withDefaults()
	deadline := time.Now().Add(opts.Timeout)

	for {
		if safePredicate(pred) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(opts.Interval):
		}
	}
}

// WaitForElement polls find under the same rules as WaitUntil and
// returns the first element it yields.
func WaitForElement(ctx context.Context, find func() (Element, bool), opts WaitOptions) (Element, bool) {
	var found Element
	ok := WaitUntil(ctx, func() bool {
		el, ok := find()
		if !ok || el == nil {
			return false
		}
		found = el
		return true
	}, opts)
	return found, ok
}

func safePredicate(pred func() bool) (result bool) {
	defer func() {
		if recover() != nil {
			result = false
		}
	}()
	return pred()
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
// It reports false on cancellation so callers can abort cleanly.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
