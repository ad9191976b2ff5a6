// Package browser provides browser automation functionality
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Options configures the Chrome process
type Options struct {
	Headless  bool
	ExecPath  string
	UserAgent string
}

// Browser owns one Chrome process and its root tab
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// New starts Chrome and returns once the root tab is ready
func New(ctx context.Context, o Options) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.WindowSize(1920, 1080),
	)
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}

	b := &Browser{}
	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	b.ctx, b.cancel = chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		slog.Debug(fmt.Sprintf(format, args...), "source", "chromedp")
	}))

	// the first Run starts the browser
	if err := chromedp.Run(b.ctx, chromedp.Navigate("about:blank")); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	slog.Debug("browser started", "headless", o.Headless)
	return b, nil
}

// Context is the root tab, usable directly with chromedp.Run
func (b *Browser) Context() context.Context {
	return b.ctx
}

// Close shuts the browser down
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

// NewTab opens a new tab in the browser parent belongs to, cancel closes it
func NewTab(parent context.Context) (context.Context, context.CancelFunc) {
	return chromedp.NewContext(parent)
}

// Reset clears cookies and parks the tab on a blank page
func Reset(ctx context.Context) error {
	return chromedp.Run(ctx,
		network.ClearBrowserCookies(),
		chromedp.Navigate("about:blank"),
	)
}
