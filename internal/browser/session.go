package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// Session owns one browser process and the pages opened in it.
type Session struct {
	config SessionConfig
	logger arbor.ILogger

	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	mu        sync.Mutex
	pages     []*Page
	closeOnce sync.Once
	closeErr  error
}

// NewSession launches a browser and waits until it accepts commands.
// The browser lives until Close is called or ctx is cancelled.
func NewSession(ctx context.Context, config SessionConfig, logger arbor.ILogger) (*Session, error) {
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(config)...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	// First Run on the context starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debug().
		Bool("headless", config.Headless).
		Bool("disable_web_security", config.DisableWebSecurity).
		Int("width", config.Width).
		Int("height", config.Height).
		Msg("Browser launched")

	return &Session{
		config:          config,
		logger:          logger,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
	}, nil
}

// PageOptions configures a new page. Zero values fall back to the session configuration.
type PageOptions struct {
	Width     int
	Height    int
	UserAgent string
}

// NewPage opens a new tab with its own viewport and console forwarding.
func (s *Session) NewPage(opts PageOptions) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx.Err() != nil {
		return nil, errors.New("browser session is closed")
	}

	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = s.config.Width, s.config.Height
	}
	if opts.UserAgent == "" {
		opts.UserAgent = s.config.UserAgent
	}

	// The first page reuses the initial tab; later pages open new targets.
	var pageCtx context.Context
	var pageCancel context.CancelFunc
	if len(s.pages) == 0 {
		pageCtx, pageCancel = s.browserCtx, func() {}
	} else {
		pageCtx, pageCancel = chromedp.NewContext(s.browserCtx)
	}

	page := newPage(pageCtx, pageCancel, s.logger)
	if err := page.configure(opts); err != nil {
		pageCancel()
		return nil, err
	}

	s.pages = append(s.pages, page)
	return page, nil
}

// Close closes every page and the browser. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		pages := s.pages
		s.pages = nil
		s.mu.Unlock()

		for i := len(pages) - 1; i >= 0; i-- {
			pages[i].Close()
		}

		// Graceful close lets Chrome flush and exit before the allocator kills it.
		if err := chromedp.Cancel(s.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		s.browserCancel()
		s.allocatorCancel()

		s.logger.Debug().Int("pages", len(pages)).Msg("Browser closed")
	})
	return s.closeErr
}
