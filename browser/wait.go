package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout is how long the wait helpers wait when given a zero timeout
const DefaultTimeout = 10 * time.Second

const staleAttr = "data-stale"

// ErrNoPopup is returned by WaitPopup when the click opened no window in time
var ErrNoPopup = errors.New("no popup window opened")

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// WaitPresent waits for sel to be in the DOM and returns the first match
func WaitPresent(ctx context.Context, sel string, timeout time.Duration) (*cdp.Node, error) {
	tctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(tctx,
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.Nodes(sel, &nodes, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", sel, err)
	}
	return nodes[0], nil
}

// WaitClickable waits for sel to be visible and enabled and returns the first match
func WaitClickable(ctx context.Context, sel string, timeout time.Duration) (*cdp.Node, error) {
	tctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(tctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.WaitEnabled(sel, chromedp.ByQuery),
		chromedp.Nodes(sel, &nodes, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s to be clickable: %w", sel, err)
	}
	return nodes[0], nil
}

// ElementIfExists returns the first match of sel or nil, absence is not an error
func ElementIfExists(ctx context.Context, sel string, opts ...chromedp.QueryOption) (*cdp.Node, error) {
	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQuery, chromedp.AtLeast(0)}, opts...)
	if err := chromedp.Run(ctx, chromedp.Nodes(sel, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("looking up %s: %w", sel, err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// All returns every match of sel without waiting
func All(ctx context.Context, sel string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("looking up %s: %w", sel, err)
	}
	return nodes, nil
}

// Text returns the visible text of the first match of sel
func Text(ctx context.Context, sel string) (string, error) {
	var text string
	if err := chromedp.Run(ctx, chromedp.Text(sel, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading text of %s: %w", sel, err)
	}
	return strings.TrimSpace(text), nil
}

// OuterHTML returns the outer HTML of the first match of sel
func OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML(sel, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading html of %s: %w", sel, err)
	}
	return html, nil
}

// Document parses the outer HTML of sel, use "html" for the whole page
func Document(ctx context.Context, sel string) (*goquery.Document, error) {
	html, err := OuterHTML(ctx, sel)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Location returns the URL of the page loaded in ctx
func Location(ctx context.Context) (string, error) {
	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

// MarkStale flags the current match of sel so WaitFresh can tell when it has been replaced
func MarkStale(ctx context.Context, sel string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el) el.setAttribute(%q, "1");
		return !!el;
	})()`, sel, staleAttr)

	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return fmt.Errorf("marking %s stale: %w", sel, err)
	}
	if !found {
		return fmt.Errorf("marking %s stale: element not found", sel)
	}
	return nil
}

// WaitFresh waits for a match of sel that was not flagged by MarkStale
func WaitFresh(ctx context.Context, sel string, timeout time.Duration) error {
	fresh := fmt.Sprintf("%s:not([%s])", sel, staleAttr)
	_, err := WaitPresent(ctx, fresh, timeout)
	return err
}

// WaitPopup runs click and attaches to the window it opens. The caller must
// call ClosePopup with the returned context and cancel function.
func WaitPopup(ctx context.Context, click chromedp.Action, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opener := chromedp.FromContext(ctx)
	if opener == nil || opener.Target == nil {
		return nil, nil, fmt.Errorf("waiting for popup: context has no target")
	}
	openerID := opener.Target.TargetID

	ch := chromedp.WaitNewTarget(ctx, func(info *target.Info) bool {
		return info.Type == "page" && info.OpenerID == openerID
	})
	if err := chromedp.Run(ctx, click); err != nil {
		return nil, nil, fmt.Errorf("opening popup: %w", err)
	}

	select {
	case id := <-ch:
		popup, cancel := chromedp.NewContext(ctx, chromedp.WithTargetID(id))
		return popup, cancel, nil
	case <-time.After(timeout):
		return nil, nil, ErrNoPopup
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// ClosePopup closes a window attached by WaitPopup
func ClosePopup(popup context.Context, cancel context.CancelFunc) {
	closeCtx, closeCancel := context.WithTimeout(popup, 3*time.Second)
	_ = chromedp.Run(closeCtx, page.Close())
	closeCancel()
	cancel()
}
