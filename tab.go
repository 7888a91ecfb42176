package snapdiff

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Tab is a Page backed by a chromedp browser tab. The context returned by
// NewTab must be passed to every method.
type Tab struct {
	// width and height are the emulated viewport size; zero leaves the
	// browser's window size in place.
	width, height int64

	debugf func(string, ...interface{})

	// mu protects block and url.
	mu sync.Mutex

	// block is the current request filter. Paused requests are let through
	// while it is nil.
	block func(pageURL, urlstr string) bool

	// url is the main frame's URL as of its last navigation.
	url string
}

// TabOption is a tab option.
type TabOption = func(*Tab)

// WithViewport sets the viewport the tab emulates before each navigation.
func WithViewport(width, height int64) TabOption {
	return func(t *Tab) {
		t.width, t.height = width, height
	}
}

// WithDebugf is a tab option to specify a func to receive debug logging
// (for example, requests which failed to continue).
func WithDebugf(f func(string, ...interface{})) TabOption {
	return func(t *Tab) {
		if f != nil {
			t.debugf = f
		}
	}
}

// NewTab creates a new tab on the browser held by parent. As with
// chromedp.NewContext, the tab is only opened on first use.
//
// Cancelling the returned context closes the tab.
func NewTab(parent context.Context, opts ...TabOption) (context.Context, *Tab, context.CancelFunc) {
	ctx, cancel := chromedp.NewContext(parent)
	t := &Tab{
		debugf: nopf,
	}
	for _, o := range opts {
		o(t)
	}
	// One listener serves the tab for its lifetime; Intercept swaps the
	// filter it consults.
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				t.mu.Lock()
				t.url = e.Frame.URL
				t.mu.Unlock()
			}
		case *fetch.EventRequestPaused:
			t.mu.Lock()
			block, pageURL := t.block, t.url
			t.mu.Unlock()
			// Commands can't be sent from within a listener; the event loop
			// would deadlock.
			go func() {
				t.resolve(ctx, e, block != nil && block(pageURL, e.Request.URL))
			}()
		}
	})
	return ctx, t, cancel
}

func (t *Tab) resolve(ctx context.Context, e *fetch.EventRequestPaused, blocked bool) {
	c := chromedp.FromContext(ctx)
	ectx := cdp.WithExecutor(ctx, c.Target)
	var err error
	if blocked {
		err = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ectx)
	} else {
		err = fetch.ContinueRequest(e.RequestID).Do(ectx)
	}
	if err != nil {
		t.debugf("could not resolve request %s: %v", e.Request.URL, err)
	}
}

// Intercept satisfies Page. It pauses every request through the Fetch
// domain and either fails it with BlockedByClient or lets it continue.
// block replaces the previous filter; requests already paused are resolved
// by the filter current when they arrived.
func (t *Tab) Intercept(ctx context.Context, block func(pageURL, urlstr string) bool) error {
	t.mu.Lock()
	t.block = block
	t.mu.Unlock()

	return chromedp.Run(ctx, fetch.Enable().WithPatterns([]*fetch.RequestPattern{
		{URLPattern: "*"},
	}))
}

// Navigate satisfies Page.
func (t *Tab) Navigate(ctx context.Context, urlstr string) error {
	var actions chromedp.Tasks
	if t.width > 0 && t.height > 0 {
		actions = append(actions, chromedp.EmulateViewport(t.width, t.height))
	}
	actions = append(actions, chromedp.Navigate(urlstr))
	return chromedp.Run(ctx, actions)
}

// Capture satisfies Page.
func (t *Tab) Capture(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	var action chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := chromedp.Run(ctx, action); err != nil {
		return nil, err
	}
	return buf, nil
}

// Location satisfies Page.
func (t *Tab) Location(ctx context.Context) (string, error) {
	var urlstr string
	if err := chromedp.Run(ctx, chromedp.Location(&urlstr)); err != nil {
		return "", err
	}
	return urlstr, nil
}
