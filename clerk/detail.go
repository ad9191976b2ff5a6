package clerk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clerkconnect/browser"
	"clerkconnect/cache"
	"clerkconnect/record"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Record opens href in a new tab, extracts the record and closes the tab.
// The tab in ctx keeps its page.
func (c *Client) Record(ctx context.Context, href string) (*record.Record, error) {
	return cache.Memoize(ctx, c.cache, cache.RecordKey(href), c.cacheTTL, func() (*record.Record, error) {
		return c.openRecord(ctx, href)
	})
}

// RecordByNumber loads the detail page of a council file number
func (c *Client) RecordByNumber(ctx context.Context, fileNumber string) (*record.Record, error) {
	return c.Record(ctx, c.site.RecordURLFor(fileNumber))
}

func (c *Client) openRecord(ctx context.Context, href string) (*record.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tab, closeTab := browser.NewTab(ctx)
	defer closeTab()
	tctx, cancel := context.WithTimeout(tab, c.pageTimeout)
	defer cancel()

	slog.Info("opening record", "href", href)
	if err := chromedp.Run(tctx, chromedp.Navigate(href)); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", href, err)
	}
	return c.CurrentRecord(tctx)
}

// CurrentRecord extracts the detail page loaded in ctx, popups included when enabled
func (c *Client) CurrentRecord(ctx context.Context) (*record.Record, error) {
	if _, err := browser.WaitPresent(ctx, record.DetailContainer, c.wait); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDetail, err)
	}
	doc, err := browser.Document(ctx, "html")
	if err != nil {
		return nil, err
	}
	loc, err := browser.Location(ctx)
	if err != nil {
		return nil, err
	}

	rec := record.Extract(doc, loc)
	if c.attachments {
		c.collectAttachments(ctx, rec)
	}
	return rec, nil
}

// OnlineDocuments reads the online documents of the detail page loaded in ctx
func (c *Client) OnlineDocuments(ctx context.Context) ([]record.Document, error) {
	if _, err := browser.WaitPresent(ctx, "body", c.wait); err != nil {
		return nil, err
	}
	doc, err := browser.Document(ctx, "html")
	if err != nil {
		return nil, err
	}
	loc, err := browser.Location(ctx)
	if err != nil {
		return nil, err
	}
	return record.ParseOnlineDocuments(doc, loc), nil
}

// collectAttachments fills the attachments of activity rows that open a popup.
// A row whose popup cannot be read keeps what the table itself linked.
func (c *Client) collectAttachments(ctx context.Context, rec *record.Record) {
	var rows []*cdp.Node
	for i := range rec.Activities {
		a := &rec.Activities[i]
		if a.PopupURL == "" {
			continue
		}
		if rows == nil {
			nodes, err := browser.All(ctx, record.ActivitiesContainer+" tr")
			if err != nil {
				slog.Warn("failed to list activity rows", "err", err)
				return
			}
			rows = nodes
		}

		var row *cdp.Node
		if a.RowIndex < len(rows) {
			row = rows[a.RowIndex]
		}
		attachments, err := c.popupAttachments(ctx, row, a.PopupURL)
		if err != nil {
			slog.Warn("failed to read attachments", "file", rec.FileNumber, "date", a.Date, "err", err)
			continue
		}
		a.Attachments = append(a.Attachments, attachments...)
	}
}

// popupAttachments clicks the popup link of row and reads the window it opens,
// falling back to loading popupURL in a new tab when no window shows up.
func (c *Client) popupAttachments(ctx context.Context, row *cdp.Node, popupURL string) ([]record.Attachment, error) {
	if row != nil {
		link, err := browser.ElementIfExists(ctx, popupLinks, chromedp.FromNode(row))
		if err != nil {
			return nil, err
		}
		if link != nil {
			popup, cancel, err := browser.WaitPopup(ctx, chromedp.MouseClickNode(link), c.wait)
			switch {
			case err == nil:
				defer browser.ClosePopup(popup, cancel)
				return c.readAttachments(popup)
			case !errors.Is(err, browser.ErrNoPopup):
				return nil, err
			}
			slog.Debug("no popup window, loading attachment page directly", "url", popupURL)
		}
	}

	tab, closeTab := browser.NewTab(ctx)
	defer closeTab()
	if err := chromedp.Run(tab, chromedp.Navigate(popupURL)); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", popupURL, err)
	}
	return c.readAttachments(tab)
}

func (c *Client) readAttachments(ctx context.Context) ([]record.Attachment, error) {
	if _, err := browser.WaitPresent(ctx, "body", c.wait); err != nil {
		return nil, err
	}
	doc, err := browser.Document(ctx, "html")
	if err != nil {
		return nil, err
	}
	loc, err := browser.Location(ctx)
	if err != nil {
		return nil, err
	}
	return record.ParseAttachments(doc, loc), nil
}
