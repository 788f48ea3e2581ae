package intercept

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/common"
)

// Handler resolves a matched route. Handlers run on their own goroutine and may block;
// a route the handler leaves unresolved is continued when the handler returns.
type Handler func(route *Route)

type registration struct {
	pattern Pattern
	handler Handler
	hold    *HoldQueue
}

// Interceptor pauses outgoing requests of one page and hands them to registered handlers.
// Later registrations take precedence over earlier ones. Unmatched requests are continued.
type Interceptor struct {
	logger   arbor.ILogger
	resolver Resolver
	enable   func(patterns []string) error

	mu       sync.Mutex
	routes   []registration
	closed   bool
	inflight sync.WaitGroup
}

// New attaches an interceptor to the page bound to ctx.
// Nothing is paused until the first Route, Fulfill or Hold call.
func New(ctx context.Context, logger arbor.ILogger) *Interceptor {
	i := newInterceptor(cdpResolver{ctx: ctx}, func(patterns []string) error {
		return enableFetch(ctx, patterns)
	}, logger)

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*fetch.EventRequestPaused); ok {
			i.dispatch(requestFromEvent(e))
		}
	})

	return i
}

func newInterceptor(resolver Resolver, enable func([]string) error, logger arbor.ILogger) *Interceptor {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Interceptor{
		logger:   logger,
		resolver: resolver,
		enable:   enable,
	}
}

// Route registers handler for requests whose URL matches pattern.
func (i *Interceptor) Route(pattern string, handler Handler) error {
	return i.register(registration{pattern: ParsePattern(pattern), handler: handler})
}

// Fulfill answers every matching request with resp.
func (i *Interceptor) Fulfill(pattern string, resp Response) error {
	return i.Route(pattern, func(route *Route) {
		if err := route.Fulfill(resp); err != nil {
			i.logger.Warn().Err(err).Str("url", route.Request().URL).Msg("Failed to fulfill intercepted request")
		}
	})
}

// FulfillJSON answers every matching request with a 200 JSON body readable cross-origin.
func (i *Interceptor) FulfillJSON(pattern string, body []byte) error {
	return i.Fulfill(pattern, Response{
		Status:      200,
		ContentType: "application/json",
		Headers:     map[string]string{"Access-Control-Allow-Origin": "*"},
		Body:        body,
	})
}

// Hold pauses every matching request in a FIFO queue until released.
func (i *Interceptor) Hold(pattern string) (*HoldQueue, error) {
	queue := newHoldQueue(ParsePattern(pattern), i.logger)
	if err := i.register(registration{pattern: queue.pattern, hold: queue}); err != nil {
		return nil, err
	}
	return queue, nil
}

func (i *Interceptor) register(reg registration) error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return errors.New("interceptor is closed")
	}
	i.routes = append(i.routes, reg)
	patterns := i.patternsLocked()
	i.mu.Unlock()

	if err := i.enable(patterns); err != nil {
		return fmt.Errorf("failed to enable interception for %s: %w", reg.pattern, err)
	}

	i.logger.Debug().Str("pattern", reg.pattern.String()).Bool("hold", reg.hold != nil).Msg("Route registered")
	return nil
}

func (i *Interceptor) patternsLocked() []string {
	seen := make(map[string]bool, len(i.routes))
	patterns := make([]string, 0, len(i.routes))
	for _, r := range i.routes {
		p := r.pattern.URLPattern()
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// dispatch runs on the event goroutine and must not block.
func (i *Interceptor) dispatch(req Request) {
	route := newRoute(req, i.resolver)

	i.mu.Lock()
	closed := i.closed
	var match *registration
	if !closed {
		for idx := len(i.routes) - 1; idx >= 0; idx-- {
			if i.routes[idx].pattern.Match(req.URL) {
				match = &i.routes[idx]
				break
			}
		}
	}
	// Holds append synchronously so FIFO order follows event order.
	if match != nil && match.hold != nil {
		match.hold.add(route)
		i.mu.Unlock()
		i.logger.Debug().Str("url", req.URL).Str("pattern", match.pattern.String()).Msg("Request held")
		return
	}
	if closed {
		i.mu.Unlock()
		common.SafeGo(i.logger, "continueAfterClose", func() { i.resolveFallback(route) })
		return
	}
	i.inflight.Add(1)
	i.mu.Unlock()

	go func() {
		defer i.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				i.logger.Error().Str("url", req.URL).Str("panic", fmt.Sprintf("%v", r)).Msg("Route handler panicked")
			}
			i.resolveFallback(route)
		}()
		if match != nil {
			i.logger.Debug().Str("url", req.URL).Str("pattern", match.pattern.String()).Msg("Request intercepted")
			match.handler(route)
		}
	}()
}

func (i *Interceptor) resolveFallback(route *Route) {
	if route.Handled() {
		return
	}
	if err := route.Continue(); err != nil && !errors.Is(err, ErrRouteHandled) {
		i.logger.Warn().Err(err).Str("url", route.Request().URL).Msg("Failed to continue request")
	}
}

// Holds returns every hold queue registered so far.
func (i *Interceptor) Holds() []*HoldQueue {
	i.mu.Lock()
	defer i.mu.Unlock()
	var holds []*HoldQueue
	for _, r := range i.routes {
		if r.hold != nil {
			holds = append(holds, r.hold)
		}
	}
	return holds
}

// Close releases every held request, waits for running handlers until ctx ends and
// disables interception. It must be called before the page or browser is closed.
func (i *Interceptor) Close(ctx context.Context) error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	hadRoutes := len(i.routes) > 0
	i.mu.Unlock()

	var errs []error
	for _, hold := range i.Holds() {
		released, err := hold.Drain()
		if err != nil {
			errs = append(errs, err)
		}
		if released > 0 {
			i.logger.Debug().Str("pattern", hold.pattern.String()).Int("released", released).Msg("Released held requests on close")
		}
	}

	done := make(chan struct{})
	go func() {
		i.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("route handlers still running: %w", ctx.Err()))
	}

	if hadRoutes {
		if err := i.enable(nil); err != nil && !isIgnorable(err) {
			errs = append(errs, fmt.Errorf("failed to disable interception: %w", err))
		}
	}

	return errors.Join(errs...)
}
