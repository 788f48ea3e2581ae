package intercept

import (
	"context"
	"encoding/base64"
	"strconv"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// cdpResolver resolves paused requests on the page bound to ctx.
type cdpResolver struct {
	ctx context.Context
}

func (c cdpResolver) Continue(requestID string) error {
	return chromedp.Run(c.ctx, fetch.ContinueRequest(fetch.RequestID(requestID)))
}

func (c cdpResolver) Fulfill(requestID string, resp Response) error {
	headers := make([]*fetch.HeaderEntry, 0, len(resp.Headers)+2)
	if resp.ContentType != "" {
		headers = append(headers, &fetch.HeaderEntry{Name: "Content-Type", Value: resp.ContentType})
	}
	headers = append(headers, &fetch.HeaderEntry{Name: "Content-Length", Value: strconv.Itoa(len(resp.Body))})
	for name, value := range resp.Headers {
		headers = append(headers, &fetch.HeaderEntry{Name: name, Value: value})
	}

	action := fetch.FulfillRequest(fetch.RequestID(requestID), int64(resp.Status)).
		WithResponseHeaders(headers).
		WithBody(base64.StdEncoding.EncodeToString(resp.Body))
	return chromedp.Run(c.ctx, action)
}

func (c cdpResolver) Fail(requestID string) error {
	return chromedp.Run(c.ctx, fetch.FailRequest(fetch.RequestID(requestID), network.ErrorReasonFailed))
}

// enableFetch (re)enables the Fetch domain so only requests matching patterns are paused.
// An empty pattern list disables interception.
func enableFetch(ctx context.Context, patterns []string) error {
	if len(patterns) == 0 {
		return chromedp.Run(ctx, fetch.Disable())
	}
	requestPatterns := make([]*fetch.RequestPattern, 0, len(patterns))
	for _, p := range patterns {
		requestPatterns = append(requestPatterns, &fetch.RequestPattern{
			URLPattern:   p,
			RequestStage: fetch.RequestStageRequest,
		})
	}
	return chromedp.Run(ctx, fetch.Enable().WithPatterns(requestPatterns))
}

func requestFromEvent(ev *fetch.EventRequestPaused) Request {
	req := Request{
		ID:           string(ev.RequestID),
		ResourceType: string(ev.ResourceType),
	}
	if ev.Request != nil {
		req.URL = ev.Request.URL
		req.Method = ev.Request.Method
	}
	return req
}
