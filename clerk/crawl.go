package clerk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clerkconnect/record"
)

// CrawlOptions limits a crawl, zero values mean no limit
type CrawlOptions struct {
	MaxPages   int
	MaxResults int
}

// Stats summarises a crawl
type Stats struct {
	Results int `json:"results"`
	Records int `json:"records"`
	Failed  int `json:"failed"`
}

// RecordFunc receives every extracted record, returning an error stops the crawl
type RecordFunc func(rec *record.Record) error

// Crawl searches word, walks the listing pages and extracts each result in turn.
// A record that fails to load is logged and skipped, so is a listing page that
// fails after earlier pages were read.
func (c *Client) Crawl(ctx context.Context, word string, opts CrawlOptions, fn RecordFunc) (Stats, error) {
	var stats Stats
	if err := c.Search(ctx, word); err != nil {
		return stats, err
	}
	rows, err := c.AllResults(ctx, opts.MaxPages, opts.MaxResults)
	if err != nil {
		if len(rows) == 0 || ctx.Err() != nil {
			return stats, err
		}
		slog.Warn("listing walk stopped early, crawling rows already collected", "rows", len(rows), "err", err)
	}
	stats.Results = len(rows)
	slog.Info("search results collected", "word", word, "results", len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, err := c.Record(ctx, row.Href)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return stats, err
			}
			stats.Failed++
			slog.Warn("failed to extract record", "file", row.FileNumber, "href", row.Href, "err", err)
			continue
		}
		if rec.FileNumber == "" {
			rec.FileNumber = row.FileNumber
		}
		if rec.Title == "" {
			rec.Title = row.Title
		}
		stats.Records++
		slog.Info("record extracted", "n", i+1, "of", len(rows), "file", rec.FileNumber)

		if err := fn(rec); err != nil {
			return stats, fmt.Errorf("handling record %s: %w", rec.FileNumber, err)
		}
	}
	return stats, nil
}
