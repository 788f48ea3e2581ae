package intercept

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrRouteHandled is returned when a route is resolved more than once.
var ErrRouteHandled = errors.New("route is already handled")

// Request describes an intercepted, paused request.
type Request struct {
	ID           string
	URL          string
	Method       string
	ResourceType string
}

// Response is a synthesized reply used to fulfil a route without touching the network.
type Response struct {
	Status      int
	ContentType string
	Headers     map[string]string
	Body        []byte
}

// Resolver performs the protocol calls that resolve a paused request.
type Resolver interface {
	Continue(requestID string) error
	Fulfill(requestID string, resp Response) error
	Fail(requestID string) error
}

// Route is the opaque token for one paused request. It must be resolved exactly once.
type Route struct {
	request  Request
	resolver Resolver

	mu      sync.Mutex
	handled bool
}

func newRoute(request Request, resolver Resolver) *Route {
	return &Route{request: request, resolver: resolver}
}

func (r *Route) Request() Request { return r.request }

// Handled reports whether the route has already been resolved.
func (r *Route) Handled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handled
}

// Continue lets the request proceed to the network unmodified.
func (r *Route) Continue() error {
	if err := r.startHandling(); err != nil {
		return err
	}
	return r.finish("continue", r.resolver.Continue(r.request.ID))
}

// Fulfill answers the request with resp.
func (r *Route) Fulfill(resp Response) error {
	if err := r.startHandling(); err != nil {
		return err
	}
	if resp.Status == 0 {
		resp.Status = 200
	}
	return r.finish("fulfill", r.resolver.Fulfill(r.request.ID, resp))
}

// Abort fails the request with a generic network error.
func (r *Route) Abort() error {
	if err := r.startHandling(); err != nil {
		return err
	}
	return r.finish("abort", r.resolver.Fail(r.request.ID))
}

func (r *Route) startHandling() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handled {
		return fmt.Errorf("%s: %w", r.request.URL, ErrRouteHandled)
	}
	r.handled = true
	return nil
}

func (r *Route) finish(action string, err error) error {
	if err == nil || isIgnorable(err) {
		return nil
	}
	return fmt.Errorf("failed to %s %s: %w", action, r.request.URL, err)
}

// isIgnorable reports errors caused by the page or browser going away before the reply landed.
func isIgnorable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// The request was already resolved or the target navigated away.
	return strings.Contains(err.Error(), "Invalid InterceptionId")
}
