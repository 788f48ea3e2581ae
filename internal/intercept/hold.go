package intercept

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// pollInterval matches the cadence at which held requests are checked while waiting.
const pollInterval = 100 * time.Millisecond

// HoldQueue keeps intercepted requests unanswered, in arrival order, until released.
// Requests are appended from the event goroutine and released from the caller's goroutine.
type HoldQueue struct {
	pattern Pattern
	logger  arbor.ILogger

	mu      sync.Mutex
	pending []*Route
	total   int
	arrived chan struct{}
}

func newHoldQueue(pattern Pattern, logger arbor.ILogger) *HoldQueue {
	return &HoldQueue{
		pattern: pattern,
		logger:  logger,
		arrived: make(chan struct{}, 1),
	}
}

func (q *HoldQueue) add(route *Route) {
	q.mu.Lock()
	q.pending = append(q.pending, route)
	q.total++
	q.mu.Unlock()

	select {
	case q.arrived <- struct{}{}:
	default:
	}
}

// Pattern returns the glob this queue holds.
func (q *HoldQueue) Pattern() string { return q.pattern.String() }

// Len returns the number of requests currently held.
func (q *HoldQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Total returns the number of requests held since the queue was created.
func (q *HoldQueue) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

// WaitForRequest reports whether at least one request is held within window.
// A false result is not an error: callers treat it as a soft assertion.
func (q *HoldQueue) WaitForRequest(ctx context.Context, window time.Duration) bool {
	if q.Len() > 0 {
		return true
	}

	deadline := time.NewTimer(window)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return q.Len() > 0
		case <-deadline.C:
			return q.Len() > 0
		case <-q.arrived:
		case <-ticker.C:
		}
		if q.Len() > 0 {
			return true
		}
	}
}

// ReleaseNext continues the oldest held request. It reports false when nothing was held.
func (q *HoldQueue) ReleaseNext() (bool, error) {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return false, nil
	}
	route := q.pending[0]
	q.pending = q.pending[1:]
	q.mu.Unlock()

	return true, route.Continue()
}

// Drain continues every held request in FIFO order and returns how many were released.
func (q *HoldQueue) Drain() (int, error) {
	q.mu.Lock()
	routes := q.pending
	q.pending = nil
	q.mu.Unlock()

	var errs []error
	for _, route := range routes {
		if err := route.Continue(); err != nil && !errors.Is(err, ErrRouteHandled) {
			errs = append(errs, err)
		}
	}

	if len(routes) > 0 {
		q.logger.Debug().Str("pattern", q.pattern.String()).Int("released", len(routes)).Msg("Held requests released")
	}
	return len(routes), errors.Join(errs...)
}

// Settle waits d for the page to issue its requests, then drains the queue.
func (q *HoldQueue) Settle(ctx context.Context, d time.Duration) (int, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return q.Drain()
}
