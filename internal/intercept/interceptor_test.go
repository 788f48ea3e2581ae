package intercept

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type resolved struct {
	action string
	id     string
	resp   Response
}

type fakeResolver struct {
	mu    sync.Mutex
	calls []resolved
	err   error
}

func (f *fakeResolver) record(action, id string, resp Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, resolved{action: action, id: id, resp: resp})
	return f.err
}

func (f *fakeResolver) Continue(id string) error { return f.record("continue", id, Response{}) }
func (f *fakeResolver) Fulfill(id string, resp Response) error {
	return f.record("fulfill", id, resp)
}
func (f *fakeResolver) Fail(id string) error { return f.record("fail", id, Response{}) }

func (f *fakeResolver) snapshot() []resolved {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]resolved(nil), f.calls...)
}

type fakeFetch struct {
	mu      sync.Mutex
	enabled [][]string
}

func (f *fakeFetch) enable(patterns []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = append(f.enabled, patterns)
	return nil
}

func (f *fakeFetch) last() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.enabled) == 0 {
		return nil
	}
	return f.enabled[len(f.enabled)-1]
}

func newTestInterceptor() (*Interceptor, *fakeResolver, *fakeFetch) {
	resolver := &fakeResolver{}
	fetch := &fakeFetch{}
	return newInterceptor(resolver, fetch.enable, arbor.NewLogger()), resolver, fetch
}

func request(id, url string) Request {
	return Request{ID: id, URL: url, Method: "GET"}
}

func TestInterceptor_UnmatchedRequestIsContinued(t *testing.T) {
	i, resolver, _ := newTestInterceptor()
	require.NoError(t, i.FulfillJSON("**/api/f1/**", []byte(`{}`)))

	i.dispatch(request("1", "http://localhost:8000/app.js"))
	require.NoError(t, i.Close(context.Background()))

	calls := resolver.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "continue", calls[0].action)
	assert.Equal(t, "1", calls[0].id)
}

func TestInterceptor_FulfillJSON(t *testing.T) {
	i, resolver, fetch := newTestInterceptor()
	body := []byte(`{"MRData":{}}`)
	require.NoError(t, i.FulfillJSON("**/current.json", body))
	assert.Equal(t, []string{"*/current.json"}, fetch.last())

	i.dispatch(request("7", "https://api.jolpi.ca/ergast/f1/current.json"))
	require.NoError(t, i.Close(context.Background()))

	calls := resolver.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "fulfill", calls[0].action)
	assert.Equal(t, 200, calls[0].resp.Status)
	assert.Equal(t, "application/json", calls[0].resp.ContentType)
	assert.Equal(t, "*", calls[0].resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, body, calls[0].resp.Body)
}

func TestInterceptor_LaterRegistrationWins(t *testing.T) {
	i, resolver, fetch := newTestInterceptor()
	require.NoError(t, i.FulfillJSON("**/api/f1/**", []byte(`"first"`)))
	require.NoError(t, i.FulfillJSON("**/api/f1/current**", []byte(`"second"`)))
	assert.Len(t, fetch.last(), 2)

	i.dispatch(request("1", "http://localhost:8000/api/f1/current.json"))
	i.dispatch(request("2", "http://localhost:8000/api/f1/2024.json"))
	require.NoError(t, i.Close(context.Background()))

	bodies := map[string]string{}
	for _, c := range resolver.snapshot() {
		bodies[c.id] = string(c.resp.Body)
	}
	assert.Equal(t, `"second"`, bodies["1"])
	assert.Equal(t, `"first"`, bodies["2"])
}

func TestInterceptor_HandlerThatDoesNothingIsContinued(t *testing.T) {
	i, resolver, _ := newTestInterceptor()
	seen := make(chan string, 1)
	require.NoError(t, i.Route("**/weather-maps.json", func(route *Route) {
		seen <- route.Request().URL
	}))

	i.dispatch(request("3", "https://api.rainviewer.com/public/weather-maps.json"))
	require.NoError(t, i.Close(context.Background()))

	assert.Equal(t, "https://api.rainviewer.com/public/weather-maps.json", <-seen)
	calls := resolver.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "continue", calls[0].action)
}

func TestInterceptor_PanickingHandlerStillResolves(t *testing.T) {
	i, resolver, _ := newTestInterceptor()
	require.NoError(t, i.Route("**", func(route *Route) { panic("boom") }))

	i.dispatch(request("4", "http://localhost:8000/"))
	require.NoError(t, i.Close(context.Background()))

	require.Len(t, resolver.snapshot(), 1)
}

func TestInterceptor_HoldAndDrainFIFO(t *testing.T) {
	i, resolver, _ := newTestInterceptor()
	hold, err := i.Hold("**/weather-maps.json")
	require.NoError(t, err)

	for n := 1; n <= 3; n++ {
		i.dispatch(request(fmt.Sprint(n), "https://api.rainviewer.com/public/weather-maps.json"))
	}
	assert.Equal(t, 3, hold.Len())
	assert.Empty(t, resolver.snapshot(), "held requests must stay unanswered")

	released, err := hold.Drain()
	require.NoError(t, err)
	assert.Equal(t, 3, released)
	assert.Equal(t, 0, hold.Len())
	assert.Equal(t, 3, hold.Total())

	calls := resolver.snapshot()
	require.Len(t, calls, 3)
	for n, c := range calls {
		assert.Equal(t, "continue", c.action)
		assert.Equal(t, fmt.Sprint(n+1), c.id)
	}
}

func TestInterceptor_ReleaseNext(t *testing.T) {
	i, resolver, _ := newTestInterceptor()
	hold, err := i.Hold("**/weather-maps.json")
	require.NoError(t, err)

	ok, err := hold.ReleaseNext()
	require.NoError(t, err)
	assert.False(t, ok)

	i.dispatch(request("a", "https://x/weather-maps.json"))
	i.dispatch(request("b", "https://x/weather-maps.json"))

	ok, err = hold.ReleaseNext()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, hold.Len())
	assert.Equal(t, "a", resolver.snapshot()[0].id)
}

func TestInterceptor_CloseDrainsHolds(t *testing.T) {
	i, resolver, fetch := newTestInterceptor()
	hold, err := i.Hold("**/weather-maps.json")
	require.NoError(t, err)

	i.dispatch(request("1", "https://x/weather-maps.json"))
	i.dispatch(request("2", "https://x/weather-maps.json"))

	require.NoError(t, i.Close(context.Background()))
	assert.Equal(t, 0, hold.Len())
	assert.Len(t, resolver.snapshot(), 2)
	assert.Empty(t, fetch.last(), "interception disabled on close")

	// Second close is a no-op
	require.NoError(t, i.Close(context.Background()))
	assert.Error(t, i.FulfillJSON("**", nil))
}

func TestInterceptor_CloseStopsWaitingAtDeadline(t *testing.T) {
	i, _, _ := newTestInterceptor()
	unblock := make(chan struct{})
	require.NoError(t, i.Route("**/api/weather*", func(route *Route) { <-unblock }))
	defer close(unblock)

	i.dispatch(request("1", "http://localhost:8000/api/weather?lat=1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := i.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInterceptor_WaitForRequest(t *testing.T) {
	i, _, _ := newTestInterceptor()
	hold, err := i.Hold("**/weather-maps.json")
	require.NoError(t, err)

	start := time.Now()
	assert.False(t, hold.WaitForRequest(context.Background(), 250*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)

	go func() {
		time.Sleep(50 * time.Millisecond)
		i.dispatch(request("1", "https://x/weather-maps.json"))
	}()
	assert.True(t, hold.WaitForRequest(context.Background(), 2*time.Second))

	require.NoError(t, i.Close(context.Background()))
}

func TestInterceptor_Settle(t *testing.T) {
	i, resolver, _ := newTestInterceptor()
	hold, err := i.Hold("**/weather-maps.json")
	require.NoError(t, err)
	i.dispatch(request("1", "https://x/weather-maps.json"))

	released, err := hold.Settle(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.Len(t, resolver.snapshot(), 1)
}

func TestRoute_ResolvesOnce(t *testing.T) {
	resolver := &fakeResolver{}
	route := newRoute(request("1", "https://x/"), resolver)

	require.NoError(t, route.Fulfill(Response{Body: []byte("ok")}))
	assert.True(t, route.Handled())
	assert.Equal(t, 200, resolver.snapshot()[0].resp.Status, "status defaults to 200")

	assert.ErrorIs(t, route.Continue(), ErrRouteHandled)
	assert.ErrorIs(t, route.Abort(), ErrRouteHandled)
	assert.Len(t, resolver.snapshot(), 1)
}

func TestRoute_IgnoresVanishedRequests(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"invalid interception id", errors.New("Invalid InterceptionId."), false},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), false},
		{"deadline exceeded", fmt.Errorf("run: %w", context.DeadlineExceeded), false},
		{"other", errors.New("target crashed"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := newRoute(request("1", "https://x/"), &fakeResolver{err: tt.err})
			err := route.Abort()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
