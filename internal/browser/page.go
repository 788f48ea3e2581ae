package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// ClipboardPermissions are the permissions needed to exercise copy-to-clipboard buttons.
var ClipboardPermissions = []cdpbrowser.PermissionType{
	cdpbrowser.PermissionTypeClipboardReadWrite,
	cdpbrowser.PermissionTypeClipboardSanitizedWrite,
}

// Page is one browser tab. Its context is passed to chromedp actions.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger arbor.ILogger

	mu           sync.Mutex
	console      []string
	consoleFns   []ConsoleFunc
	pageErrorFns []PageErrorFunc
	closeOnce    sync.Once
}

func newPage(ctx context.Context, cancel context.CancelFunc, logger arbor.ILogger) *Page {
	p := &Page{ctx: ctx, cancel: cancel, logger: logger}
	chromedp.ListenTarget(ctx, p.onEvent)
	return p
}

func (p *Page) configure(opts PageOptions) error {
	actions := []chromedp.Action{chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height))}
	if opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	if err := chromedp.Run(p.ctx, actions...); err != nil {
		return fmt.Errorf("failed to configure page: %w", err)
	}
	return nil
}

// Context returns the chromedp context bound to this tab.
func (p *Page) Context() context.Context { return p.ctx }

// SetViewport resizes the emulated viewport.
func (p *Page) SetViewport(width, height int) error {
	if err := chromedp.Run(p.ctx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("failed to set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

// GrantPermissions grants perms to origin at browser level.
func (p *Page) GrantPermissions(origin string, perms ...cdpbrowser.PermissionType) error {
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		c := chromedp.FromContext(ctx)
		return cdpbrowser.GrantPermissions(perms).WithOrigin(origin).Do(cdp.WithExecutor(ctx, c.Browser))
	}))
	if err != nil {
		return fmt.Errorf("failed to grant permissions to %s: %w", origin, err)
	}
	return nil
}

// ConsoleMessages returns console output and uncaught page errors seen so far.
func (p *Page) ConsoleMessages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.console...)
}

// ConsoleFunc receives the console API type ("log", "warning", ...) and the joined arguments.
type ConsoleFunc func(kind, text string)

// PageErrorFunc receives the description of an uncaught exception.
type PageErrorFunc func(text string)

// OnConsole registers fn for every console message. fn runs on the event goroutine and must not block.
func (p *Page) OnConsole(fn ConsoleFunc) {
	p.mu.Lock()
	p.consoleFns = append(p.consoleFns, fn)
	p.mu.Unlock()
}

// OnPageError registers fn for every uncaught page exception. fn must not block.
func (p *Page) OnPageError(fn PageErrorFunc) {
	p.mu.Lock()
	p.pageErrorFns = append(p.pageErrorFns, fn)
	p.mu.Unlock()
}

// onEvent runs on the event goroutine and must not block.
func (p *Page) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			parts = append(parts, remoteObjectText(arg))
		}
		text := strings.Join(parts, " ")
		p.record(fmt.Sprintf("[%s] %s", e.Type, text))
		p.logger.Info().Str("type", string(e.Type)).Msg("CONSOLE: " + text)
		for _, fn := range p.listeners().console {
			fn(string(e.Type), text)
		}

	case *runtime.EventExceptionThrown:
		text := ""
		if e.ExceptionDetails != nil {
			text = e.ExceptionDetails.Text
			if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
				text = e.ExceptionDetails.Exception.Description
			}
		}
		p.record("[pageerror] " + text)
		p.logger.Warn().Msg("PAGE ERROR: " + text)
		for _, fn := range p.listeners().pageError {
			fn(text)
		}
	}
}

type pageListeners struct {
	console   []ConsoleFunc
	pageError []PageErrorFunc
}

func (p *Page) listeners() pageListeners {
	p.mu.Lock()
	defer p.mu.Unlock()
	return pageListeners{
		console:   append([]ConsoleFunc(nil), p.consoleFns...),
		pageError: append([]PageErrorFunc(nil), p.pageErrorFns...),
	}
}

func (p *Page) record(line string) {
	p.mu.Lock()
	p.console = append(p.console, line)
	p.mu.Unlock()
}

func remoteObjectText(arg *runtime.RemoteObject) string {
	if arg == nil {
		return ""
	}
	if len(arg.Value) > 0 {
		return strings.Trim(string(arg.Value), `"`)
	}
	if arg.Description != "" {
		return arg.Description
	}
	return string(arg.Type)
}

// Close closes the tab. It is safe to call more than once.
func (p *Page) Close() {
	p.closeOnce.Do(p.cancel)
}
