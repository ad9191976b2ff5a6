// Package clerk drives City Clerk Connect in a browser: search, listing pages, detail pages and popups
package clerk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clerkconnect/browser"
	"clerkconnect/cache"
	"clerkconnect/config"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"golang.org/x/time/rate"
)

// ErrNoDetail is returned when a detail page never shows its record
var ErrNoDetail = errors.New("detail page did not render a record")

// Client knows the layout of the site. Every method takes a chromedp tab context.
type Client struct {
	site        config.Site
	wait        time.Duration
	pageTimeout time.Duration
	attachments bool
	limiter     *rate.Limiter
	cache       *cache.Cache
	cacheTTL    time.Duration
}

// NewClient creates a client from the configuration, c may be nil
func NewClient(cfg config.Config, c *cache.Cache) *Client {
	limit := rate.Inf
	if d := cfg.Crawl.Delay.Std(); d > 0 {
		limit = rate.Every(d)
	}
	return &Client{
		site:        cfg.Site,
		wait:        cfg.Browser.WaitTimeout.Std(),
		pageTimeout: cfg.Browser.PageTimeout.Std(),
		attachments: cfg.Crawl.Attachments,
		limiter:     rate.NewLimiter(limit, 1),
		cache:       c,
		cacheTTL:    cfg.Cache.TTL.Std(),
	}
}

// Search loads the search page and submits word
func (c *Client) Search(ctx context.Context, word string) error {
	slog.Info("searching", "word", word)
	if err := chromedp.Run(ctx, chromedp.Navigate(c.site.SearchURL)); err != nil {
		return fmt.Errorf("failed to load search page: %w", err)
	}
	if _, err := browser.WaitPresent(ctx, SearchInput, c.wait); err != nil {
		return err
	}
	err := chromedp.Run(ctx,
		chromedp.Clear(SearchInput, chromedp.ByQuery),
		chromedp.SendKeys(SearchInput, word+kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to submit search: %w", err)
	}
	return nil
}

// Results returns the rows of the listing page currently loaded, empty when the site reports no results
func (c *Client) Results(ctx context.Context) ([]Row, error) {
	if _, err := browser.WaitClickable(ctx, ResultsHolder, c.wait); err != nil {
		return nil, err
	}
	if _, err := browser.WaitClickable(ctx, ResultsBanner, c.wait); err != nil {
		return nil, err
	}
	banner, err := browser.Text(ctx, ResultsBanner)
	if err != nil {
		return nil, err
	}
	if isNoResults(banner) {
		slog.Info("search returned no results")
		return []Row{}, nil
	}

	if _, err := browser.WaitClickable(ctx, ResultList, c.wait); err != nil {
		return nil, err
	}
	doc, err := browser.Document(ctx, ResultList)
	if err != nil {
		return nil, err
	}
	loc, err := browser.Location(ctx)
	if err != nil {
		return nil, err
	}
	return ParseResults(doc, loc), nil
}

// NextPage follows the next page link of the listing, false when there is none
func (c *Client) NextPage(ctx context.Context) (bool, error) {
	link, err := browser.ElementIfExists(ctx, NextPageLink)
	if err != nil || link == nil {
		return false, err
	}
	if err := browser.MarkStale(ctx, ResultList); err != nil {
		return false, err
	}
	if err := chromedp.Run(ctx, chromedp.MouseClickNode(link)); err != nil {
		return false, fmt.Errorf("failed to follow next page: %w", err)
	}
	if err := browser.WaitFresh(ctx, ResultList, c.wait); err != nil {
		return false, err
	}
	return true, nil
}

// AllResults collects rows from the current listing page and the ones after it.
// Zero limits mean no limit.
func (c *Client) AllResults(ctx context.Context, maxPages, maxResults int) ([]Row, error) {
	all := []Row{}
	for page := 1; ; page++ {
		rows, err := c.Results(ctx)
		if err != nil {
			return all, fmt.Errorf("listing page %d: %w", page, err)
		}
		all = append(all, rows...)
		slog.Debug("listing page read", "page", page, "rows", len(rows))

		if maxResults > 0 && len(all) >= maxResults {
			return all[:maxResults], nil
		}
		if len(rows) == 0 || (maxPages > 0 && page >= maxPages) {
			return all, nil
		}

		more, err := c.NextPage(ctx)
		if err != nil {
			return all, fmt.Errorf("listing page %d: %w", page+1, err)
		}
		if !more {
			return all, nil
		}
	}
}
