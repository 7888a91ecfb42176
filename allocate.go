package snapdiff

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserConfig describes the browser units run in.
type BrowserConfig struct {
	// Remote is the DevTools websocket URL of an already running browser.
	// When set, no browser is started and the options below other than
	// Width, Height and Timeout are ignored.
	Remote string `yaml:"remote"`

	// ExecPath is the Chrome executable. Empty uses chromedp's lookup.
	ExecPath string `yaml:"exec_path"`

	// Headless runs Chrome without a window. Nil is true.
	Headless *bool `yaml:"headless"`

	// NoSandbox disables the Chrome sandbox, needed in most containers.
	NoSandbox bool `yaml:"no_sandbox"`

	// Width and Height are the window and viewport size.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Timeout bounds each unit, including opening its tab.
	Timeout time.Duration `yaml:"timeout"`
}

// Default browser settings.
const (
	DefaultWidth   = 1280
	DefaultHeight  = 720
	DefaultTimeout = 30 * time.Second
)

func (c *BrowserConfig) applyDefaults() {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// allocatorOptions builds the exec allocator options for c on top of
// chromedp.DefaultExecAllocatorOptions, which runs headless.
func (c *BrowserConfig) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if c.Headless != nil && !*c.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if c.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	if c.Width > 0 && c.Height > 0 {
		opts = append(opts, chromedp.WindowSize(c.Width, c.Height))
	}
	return opts
}

// NewBrowser allocates and starts the browser described by c. The returned
// context holds the browser; tabs are created from it with NewTab.
//
// Cancelling the returned context stops the browser.
func NewBrowser(ctx context.Context, c BrowserConfig, logf func(string, ...interface{})) (context.Context, context.CancelFunc, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if c.Remote != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, c.Remote)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	}

	var ctxOpts []chromedp.ContextOption
	if logf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(logf), chromedp.WithErrorf(logf))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// start the browser
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, nil, err
	}
	return browserCtx, cancel, nil
}
